package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxTextLength is the longest raw text accepted for a document.
// Longer text is truncated before chunking.
const MaxTextLength = 1_000_000

// Document represents an uploaded document and the chunks derived from it.
// The document owns its chunks; they are replaced wholesale when the text changes.
type Document struct {
	// ID is the unique identifier for the document (a UUID).
	ID string

	// Title is the human-readable title, usually the file name.
	Title string

	// URI is the original location (file path, URL, etc), if any.
	URI string

	// RawText is the full text as supplied, after truncation to MaxTextLength.
	RawText string

	// ContentHash is the hex SHA-256 of RawText.
	// Durable cache entries are keyed by it so identical text shares one index.
	ContentHash string

	// Chunks are the accepted chunks in source order.
	Chunks []Chunk

	// Stats summarises the chunking outcome.
	Stats DocumentStats

	// CreatedAt is when the document was first uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document text was last replaced.
	UpdatedAt time.Time
}

// ChunkPosition is the coarse location of a chunk within its document.
type ChunkPosition string

// Chunk positions.
const (
	PositionStart  ChunkPosition = "start"
	PositionMiddle ChunkPosition = "middle"
	PositionEnd    ChunkPosition = "end"
)

// IsValid returns true if the position is recognised.
func (p ChunkPosition) IsValid() bool {
	switch p {
	case PositionStart, PositionMiddle, PositionEnd:
		return true
	default:
		return false
	}
}

// PositionFor returns the position of chunk i out of total.
// The document is split into thirds.
func PositionFor(i, total int) ChunkPosition {
	if total <= 0 {
		return PositionStart
	}
	switch i * 3 / total {
	case 0:
		return PositionStart
	case 1:
		return PositionMiddle
	default:
		return PositionEnd
	}
}

// Chunk is a bounded contiguous slice of document text used as the unit of retrieval.
// Chunks are immutable once created.
type Chunk struct {
	// ID is the ordinal identifier within the document, starting at zero.
	ID int `json:"id"`

	// Text is the chunk content, including any context prefix.
	Text string `json:"text"`

	// Length is the number of characters in Text.
	Length int `json:"length"`

	// Position is the coarse location within the document.
	Position ChunkPosition `json:"position"`

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int `json:"word_count"`

	// Offset is the character offset of the chunk in the cleaned source text.
	Offset int `json:"offset"`

	// HasNumbers is true if Text contains a digit.
	HasNumbers bool `json:"has_numbers"`

	// HasPunctuation is true if Text contains sentence punctuation.
	HasPunctuation bool `json:"has_punctuation"`

	// Preview is the first 100 characters of Text.
	Preview string `json:"preview"`
}

// DocumentStats summarises how a document was chunked.
type DocumentStats struct {
	// OriginalLength is the length of the raw text in characters.
	OriginalLength int `json:"original_length"`

	// TotalChunks is the number of accepted chunks.
	TotalChunks int `json:"total_chunks"`

	// AvgChunkSize is the mean chunk length.
	AvgChunkSize float64 `json:"avg_chunk_size"`

	// MinChunkSize is the shortest chunk length.
	MinChunkSize int `json:"min_chunk_size"`

	// MaxChunkSize is the longest chunk length.
	MaxChunkSize int `json:"max_chunk_size"`

	// TotalProcessedLength is the sum of all chunk lengths.
	TotalProcessedLength int `json:"total_processed_length"`
}

// ComputeStats builds DocumentStats for chunks derived from text of the given length.
func ComputeStats(originalLength int, chunks []Chunk) DocumentStats {
	stats := DocumentStats{
		OriginalLength: originalLength,
		TotalChunks:    len(chunks),
	}
	if len(chunks) == 0 {
		return stats
	}

	stats.MinChunkSize = chunks[0].Length
	for _, c := range chunks {
		stats.TotalProcessedLength += c.Length
		if c.Length < stats.MinChunkSize {
			stats.MinChunkSize = c.Length
		}
		if c.Length > stats.MaxChunkSize {
			stats.MaxChunkSize = c.Length
		}
	}
	stats.AvgChunkSize = float64(stats.TotalProcessedLength) / float64(len(chunks))
	return stats
}

// ContentHash returns the hex SHA-256 digest of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkTexts returns the text of each chunk in order.
func ChunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

// DocumentSummary is a lightweight view of a document for listings.
type DocumentSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	Chunks      int       `json:"chunks"`
	Length      int       `json:"length"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary returns the listing view of the document.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Title:       d.Title,
		ContentHash: d.ContentHash,
		Chunks:      len(d.Chunks),
		Length:      len([]rune(d.RawText)),
		UpdatedAt:   d.UpdatedAt,
	}
}
