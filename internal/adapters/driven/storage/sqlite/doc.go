// Package sqlite provides a SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database file backs two stores:
//
//   - DocumentStore: documents and their chunks
//   - CacheStore: the durable cache tier (serialised indexes and search results)
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-context/data/context.db
//
// # Concurrency
//
// The database runs in WAL mode with a busy timeout, so several processes can
// share the cache file. Cache writes are single upserts and readers never see a
// partial value.
package sqlite
