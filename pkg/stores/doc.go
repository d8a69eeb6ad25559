// Package stores provides the persistence layer for the OpenForma
// versioning engine. It includes SQLite-based storage with WAL mode,
// connection pooling, embedded migrations, and the transactional guards
// behind the single-draft and single-published invariants: a partial
// unique index per status slot, atomic clone insertion, and an atomic
// publish transition that promotes the draft and archives the prior
// published version as one unit.
package stores
