package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or replaces a document and its chunks in one transaction.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	statsJSON, err := json.Marshal(doc.Stats)
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, uri, raw_text, content_hash, stats, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			uri = excluded.uri,
			raw_text = excluded.raw_text,
			content_hash = excluded.content_hash,
			stats = excluded.stats,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.URI, doc.RawText, doc.ContentHash, string(statsJSON),
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, id, text, metadata) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range doc.Chunks {
		metadataJSON, err := json.Marshal(domain.ChunkMetadata(chunk))
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, chunk.ID, chunk.Text, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document and its chunks by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, uri, raw_text, content_hash, stats, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var statsJSON string
	if err := row.Scan(&doc.ID, &doc.Title, &doc.URI, &doc.RawText, &doc.ContentHash,
		&statsJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if statsJSON != "" {
		if err := json.Unmarshal([]byte(statsJSON), &doc.Stats); err != nil {
			return nil, fmt.Errorf("unmarshaling stats: %w", err)
		}
	}

	chunks, err := s.chunks(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks

	return &doc, nil
}

func (s *documentStore) chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, text, metadata FROM chunks WHERE document_id = ? ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns document summaries, most recently updated first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.content_hash, length(d.raw_text), d.updated_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.updated_at DESC, d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var result []domain.DocumentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.DocumentSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.ContentHash, &sum.Length,
			&sum.UpdatedAt, &sum.Chunks); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return result, nil
}

// chunkRecord mirrors domain.ChunkMetadata for decoding.
type chunkRecord struct {
	Length         int    `json:"length"`
	Position       string `json:"position"`
	WordCount      int    `json:"word_count"`
	HasNumbers     bool   `json:"has_numbers"`
	HasPunctuation bool   `json:"has_punctuation"`
	Preview        string `json:"preview"`
	Offset         int    `json:"offset"`
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON string
	if err := rows.Scan(&chunk.ID, &chunk.Text, &metadataJSON); err != nil {
		return chunk, fmt.Errorf("scanning chunk: %w", err)
	}

	if metadataJSON != "" {
		var rec chunkRecord
		if err := json.Unmarshal([]byte(metadataJSON), &rec); err != nil {
			return chunk, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		chunk.Length = rec.Length
		chunk.Position = domain.ChunkPosition(rec.Position)
		chunk.WordCount = rec.WordCount
		chunk.HasNumbers = rec.HasNumbers
		chunk.HasPunctuation = rec.HasPunctuation
		chunk.Preview = rec.Preview
		chunk.Offset = rec.Offset
	}
	return chunk, nil
}
