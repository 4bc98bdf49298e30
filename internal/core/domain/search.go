package domain

import "time"

// SearchMode selects how candidates are drawn from a vector index.
type SearchMode string

// Available search modes.
const (
	// SearchModeSimilarity returns the top-k chunks by cosine similarity.
	SearchModeSimilarity SearchMode = "similarity"

	// SearchModeMMR over-fetches candidates and selects k by maximum marginal relevance.
	SearchModeMMR SearchMode = "mmr"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeSimilarity, SearchModeMMR:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeSimilarity:
		return "Similarity (top-k by cosine)"
	case SearchModeMMR:
		return "MMR (relevance balanced against redundancy)"
	default:
		return unknownDescription
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeSimilarity, SearchModeMMR}
}

// SearchParams configures a vector index search.
type SearchParams struct {
	// Mode selects similarity or MMR search.
	Mode SearchMode

	// K is the number of chunks to return.
	K int

	// FetchK is the number of candidates considered by MMR. Ignored for similarity.
	FetchK int

	// Lambda weights relevance against redundancy in MMR, in [0,1].
	// 1 is pure relevance, 0 is pure diversity.
	Lambda float64
}

// EmbeddingVector is the embedding of one chunk.
type EmbeddingVector struct {
	ChunkID int
	Values  []float32
}

// VectorIndex is the nearest-neighbour structure over one document's chunk embeddings.
// An index is built once and shared read-only by concurrent queries.
type VectorIndex struct {
	// DocumentID is the document the index was built for.
	DocumentID string

	// Model is the embedding model that produced the vectors.
	Model string

	// ContentHash is the hash of the text the chunks came from. An index
	// whose hash differs from its document's is stale.
	ContentHash string

	// Dimensions is the length of every vector.
	Dimensions int

	// Chunks holds the chunk metadata, parallel to Vectors.
	Chunks []Chunk

	// Vectors holds unit-normalised embeddings, parallel to Chunks.
	Vectors [][]float32

	// CreatedAt is when the index was built.
	CreatedAt time.Time
}

// Matches reports whether idx was built from doc's current text with model.
func (idx *VectorIndex) Matches(doc *Document, model string) bool {
	return idx != nil && doc != nil && idx.Model == model && idx.ContentHash == doc.ContentHash
}

// Len returns the number of indexed chunks.
func (idx *VectorIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Chunks)
}

// ChunkByID returns the chunk with the given id.
func (idx *VectorIndex) ChunkByID(id int) (Chunk, bool) {
	for _, c := range idx.Chunks {
		if c.ID == id {
			return c, true
		}
	}
	return Chunk{}, false
}

// ScoredChunk is a search candidate and its cosine similarity to the query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is the transient outcome of retrieving context for one query.
type RetrievalResult struct {
	// Query is the question text.
	Query string

	// Source names where the candidates came from: "document" or an evidence source name.
	Source string

	// Candidates are the ranked chunks returned by the index, before the relevance gate.
	Candidates []ScoredChunk

	// Accepted are the candidates that passed the relevance gate, in rank order.
	Accepted []Chunk

	// Context is the accepted text joined and bounded by the character budget.
	Context string

	// Truncated is true if Context was cut to fit the budget.
	Truncated bool

	// Citations are the external evidence items behind Accepted, if any.
	Citations []Evidence
}

// Empty returns true if no candidate passed the relevance gate.
func (r *RetrievalResult) Empty() bool {
	return r == nil || len(r.Accepted) == 0
}
