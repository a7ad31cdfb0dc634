// Package storage defines the persistence interfaces of the platform.
//
// The DocumentRepository is the relational source of truth for documents
// and chunks; the vector and keyword indexes hold derived projections that
// can always be rebuilt from it. The ObjectStore keeps the original file
// bytes under content-addressed keys.
//
// Implementations live in sub-packages:
//
//   - storage/sqlite: DocumentRepository on SQLite (modernc.org/sqlite)
//   - storage/badger: ObjectStore on BadgerDB
package storage
