// Package repositories implements sqlite-backed persistence.
//
// [KVRepository] stores opaque blobs in the kv_store table created by the embedded migrations in
// the shared package. It backs the "sqlite" token store. Writes run in a transaction that also
// advances kv_store_sequence via [NextSequence].
package repositories
