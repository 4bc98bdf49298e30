package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	stats, err := json.Marshal(doc.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, uri, raw_text, content_hash, stats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			uri = EXCLUDED.uri,
			raw_text = EXCLUDED.raw_text,
			content_hash = EXCLUDED.content_hash,
			stats = EXCLUDED.stats,
			updated_at = EXCLUDED.updated_at`,
		doc.ID, doc.Title, doc.URI, doc.RawText, doc.ContentHash, stats, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = $1", doc.ID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	for _, c := range doc.Chunks {
		meta, err := json.Marshal(domain.ChunkMetadata(c))
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (document_id, id, text, metadata) VALUES ($1, $2, $3, $4)",
			doc.ID, c.ID, c.Text, meta); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	var stats []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, uri, raw_text, content_hash, stats, created_at, updated_at
		FROM documents WHERE id = $1`, id).Scan(
		&doc.ID, &doc.Title, &doc.URI, &doc.RawText, &doc.ContentHash, &stats,
		&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	if err := json.Unmarshal(stats, &doc.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, metadata FROM chunks WHERE document_id = $1 ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Chunk
		var meta []byte
		if err := rows.Scan(&c.ID, &c.Text, &meta); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := decodeChunkMetadata(meta, &c); err != nil {
			return nil, err
		}
		doc.Chunks = append(doc.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return &doc, nil
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.content_hash, char_length(d.raw_text), d.updated_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.updated_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentSummary
	for rows.Next() {
		var sum domain.DocumentSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.ContentHash, &sum.Length,
			&sum.UpdatedAt, &sum.Chunks); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func decodeChunkMetadata(data []byte, c *domain.Chunk) error {
	var rec struct {
		Length         int    `json:"length"`
		Position       string `json:"position"`
		WordCount      int    `json:"word_count"`
		HasNumbers     bool   `json:"has_numbers"`
		HasPunctuation bool   `json:"has_punctuation"`
		Preview        string `json:"preview"`
		Offset         int    `json:"offset"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("unmarshal chunk metadata: %w", err)
	}
	c.Length = rec.Length
	c.Position = domain.ChunkPosition(rec.Position)
	c.WordCount = rec.WordCount
	c.HasNumbers = rec.HasNumbers
	c.HasPunctuation = rec.HasPunctuation
	c.Preview = rec.Preview
	c.Offset = rec.Offset
	return nil
}
