// Package statestore persists environment definitions in an S3-compatible
// bucket (Hetzner Object Storage). Definitions are the shared state of the
// staging fleet, so every write is conditional: an ETag precondition turns
// concurrent modification into ErrPersistenceConflict instead of a silent
// lost update. SaveDefinition wraps the read-compare-write cycle in a
// bounded retry loop.
package statestore
