// Package storage selects the document store and durable cache backend from a DSN.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// MemoryDSN selects the in-memory backend.
const MemoryDSN = "memory://"

// Stores bundles the storage ports backed by one database.
type Stores struct {
	Documents driven.DocumentStore
	Cache     driven.CacheStore
	Backend   string

	close func() error
}

// Close releases the underlying database.
func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Open creates stores based on the DSN.
//   - Empty DSN: SQLite in dataDir
//   - memory://: in-memory stores, lost on exit
//   - postgres:// or postgresql://: PostgreSQL
//   - sqlite://path or any other value: SQLite database file at that path
func Open(dsn, dataDir string) (*Stores, error) {
	switch {
	case dsn == "":
		st, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return sqliteStores(st), nil

	case strings.HasPrefix(dsn, MemoryDSN):
		docs := memory.NewDocumentStore()
		cache := memory.NewCacheStore()
		return &Stores{Documents: docs, Cache: cache, Backend: "memory", close: cache.Close}, nil

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		st, err := postgres.NewStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Stores{
			Documents: st.DocumentStore(),
			Cache:     st.CacheStore(),
			Backend:   "postgres",
			close:     st.Close,
		}, nil

	default:
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return nil, errors.New("sqlite: empty database path")
		}
		st, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return sqliteStores(st), nil
	}
}

func sqliteStores(st *sqlite.Store) *Stores {
	return &Stores{
		Documents: st.DocumentStore(),
		Cache:     st.CacheStore(),
		Backend:   "sqlite",
		close:     st.Close,
	}
}
