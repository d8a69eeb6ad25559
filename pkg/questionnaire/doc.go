// Package questionnaire defines the shared data model for the OpenForma
// versioning engine: questionnaire versions, steps, question templates,
// the status and question-type enumerations, the error taxonomy, and
// payload validation for structural edits.
package questionnaire
