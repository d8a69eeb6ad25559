// Package mirror maintains a client-side copy of the active
// questionnaire version. The mirror is loaded from the server and then
// patched with the server's authoritative responses to mutations,
// never with locally predicted state. Every applied patch raises the
// dirty flag, signalling that unpublished edits exist. A patch that
// cannot be applied coherently marks the mirror stale instead; Resync
// is the recovery path and clears both flags.
package mirror
