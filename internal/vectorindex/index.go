// Package vectorindex builds and searches the in-memory nearest-neighbour
// index over one document's chunk embeddings.
//
// Vectors are unit-normalised at build time so cosine similarity reduces to
// a dot product. An index is immutable once built and safe for concurrent
// searches.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Build creates an index from chunks and their embeddings.
// Every chunk needs exactly one vector and all vectors must share a length.
func Build(documentID, model string, chunks []domain.Chunk, vectors []domain.EmbeddingVector) (*domain.VectorIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	byChunk := make(map[int][]float32, len(vectors))
	dims := 0
	for _, v := range vectors {
		if dims == 0 {
			dims = len(v.Values)
		}
		if len(v.Values) == 0 || len(v.Values) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d values, expected %d",
				domain.ErrDimensionMismatch, v.ChunkID, len(v.Values), dims)
		}
		byChunk[v.ChunkID] = v.Values
	}

	idx := &domain.VectorIndex{
		DocumentID: documentID,
		Model:      model,
		Dimensions: dims,
		Chunks:     make([]domain.Chunk, len(chunks)),
		Vectors:    make([][]float32, len(chunks)),
		CreatedAt:  time.Now().UTC(),
	}
	copy(idx.Chunks, chunks)

	for i, c := range chunks {
		values, ok := byChunk[c.ID]
		if !ok {
			return nil, fmt.Errorf("%w: no vector for chunk %d", domain.ErrInvalidInput, c.ID)
		}
		idx.Vectors[i] = Normalize(values)
	}

	return idx, nil
}

// Normalize returns a unit-length copy of v. A zero vector is returned as zeros.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Search returns the chunks nearest to query under params.
// Scores are cosine similarities. Equal scores rank the lower chunk id first.
func Search(idx *domain.VectorIndex, query []float32, params domain.SearchParams) ([]domain.ScoredChunk, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: nil index", domain.ErrInvalidInput)
	}
	if params.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	if idx.Len() == 0 {
		return nil, nil
	}
	if len(query) != idx.Dimensions {
		return nil, fmt.Errorf("%w: query has %d values, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.Dimensions)
	}

	q := Normalize(query)

	switch params.Mode {
	case domain.SearchModeSimilarity:
		ranked := rank(idx, q)
		return toScored(idx, ranked[:min(params.K, len(ranked))]), nil
	case domain.SearchModeMMR:
		return mmr(idx, q, params), nil
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, params.Mode)
	}
}

type candidate struct {
	pos   int
	score float64
}

// rank scores every vector against q, best first.
func rank(idx *domain.VectorIndex, q []float32) []candidate {
	out := make([]candidate, len(idx.Vectors))
	for i, v := range idx.Vectors {
		out[i] = candidate{pos: i, score: dot(q, v)}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].score != out[b].score {
			return out[a].score > out[b].score
		}
		return idx.Chunks[out[a].pos].ID < idx.Chunks[out[b].pos].ID
	})
	return out
}

// mmr over-fetches FetchK candidates by similarity, then greedily selects K,
// each maximising lambda*relevance - (1-lambda)*max similarity to those already chosen.
func mmr(idx *domain.VectorIndex, q []float32, params domain.SearchParams) []domain.ScoredChunk {
	lambda := params.Lambda
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	fetch := max(params.FetchK, params.K)
	ranked := rank(idx, q)
	pool := ranked[:min(fetch, len(ranked))]
	k := min(params.K, len(pool))

	selected := make([]candidate, 0, k)
	used := make([]bool, len(pool))

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range pool {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
				for _, s := range selected {
					redundancy = math.Max(redundancy, dot(idx.Vectors[c.pos], idx.Vectors[s.pos]))
				}
			}
			score := lambda*c.score - (1-lambda)*redundancy
			// pool is ordered by relevance then id, so strict > keeps ties on the lower id
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		selected = append(selected, pool[best])
	}

	return toScored(idx, selected)
}

func toScored(idx *domain.VectorIndex, cands []candidate) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(cands))
	for i, c := range cands {
		out[i] = domain.ScoredChunk{Chunk: idx.Chunks[c.pos], Score: c.score}
	}
	return out
}
