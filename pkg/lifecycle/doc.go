// Package lifecycle implements the questionnaire version state machine:
// draft creation, publish, discard, and restore. It enforces the
// single-draft and single-published invariants on top of the store's
// transactional guards and owns the deep-clone routine shared by
// createDraft and restoreVersion.
package lifecycle
