// Package mutation implements the structural edit surface of the draft:
// question creation, update, deletion, reorder, and step metadata
// updates. Every operation is scoped to a version id and refused unless
// that version is the current draft, so published and archived versions
// stay immutable. The package also owns the dense ordering rules: new
// questions append, deletions close the gap, and reorders must name the
// step's active questions exactly once each.
package mutation
