package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/lexical"
	"github.com/custodia-labs/sercha-context/internal/logger"
	"github.com/custodia-labs/sercha-context/internal/vectorindex"
)

// SourceDocument labels retrieval results drawn from a document index.
const SourceDocument = "document"

// contextSeparator joins accepted passages in the assembled context.
const contextSeparator = "\n\n"

// truncationMarker ends a context that was cut to fit the budget.
const truncationMarker = "\n[context truncated]"

// Retriever fetches candidates from a vector index, gates them by keyword
// relevance and assembles a bounded context window.
type Retriever struct {
	gateway   *EmbeddingGateway
	search    domain.SearchSettings
	retrieval domain.RetrievalSettings
}

// NewRetriever creates a retriever.
func NewRetriever(gateway *EmbeddingGateway, search domain.SearchSettings, retrieval domain.RetrievalSettings) *Retriever {
	defaults := domain.DefaultAppSettings()
	if !search.Mode.IsValid() {
		search.Mode = defaults.Search.Mode
	}
	if search.K <= 0 {
		search.K = defaults.Search.K
	}
	if retrieval.MaxContextChars <= 0 {
		retrieval.MaxContextChars = defaults.Retrieval.MaxContextChars
	}
	return &Retriever{gateway: gateway, search: search, retrieval: retrieval}
}

// Retrieve searches idx for query and applies the relevance gate.
// A result with nothing accepted is not an error.
func (r *Retriever) Retrieve(ctx context.Context, idx *domain.VectorIndex, query string) (*domain.RetrievalResult, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: index is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	vector, err := r.gateway.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.NewStageError(domain.StageEmbed, idx.DocumentID, len(query), err)
	}

	candidates, err := vectorindex.Search(idx, vector, r.search.Params())
	if err != nil {
		return nil, domain.NewStageError(domain.StageRetrieve, idx.DocumentID, len(query), err)
	}

	result := r.assemble(query, SourceDocument, candidates)
	logger.Debug("retrieve %s: %d candidates, %d accepted", idx.DocumentID, len(candidates), len(result.Accepted))
	return result, nil
}

// RetrieveEvidence gates external evidence items as if they were chunks.
// Items keep the order the source returned them in.
func (r *Retriever) RetrieveEvidence(query, source string, items []domain.Evidence) *domain.RetrievalResult {
	candidates := make([]domain.ScoredChunk, len(items))
	want := lexical.Keywords(query)
	for i, item := range items {
		text := item.Text()
		candidates[i] = domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:        i,
				Text:      text,
				Length:    len([]rune(text)),
				WordCount: lexical.WordCount(text),
				Preview:   item.Title,
			},
			Score: lexical.Coverage(want, lexical.Keywords(text)),
		}
	}

	result := r.assemble(query, source, candidates)
	for _, c := range result.Accepted {
		result.Citations = append(result.Citations, items[c.ID])
	}
	return result
}

// Gate returns the candidates whose keywords cover at least the relevance
// threshold of the query's keywords, in rank order. A query without keywords
// matches nothing.
func (r *Retriever) Gate(query string, candidates []domain.ScoredChunk) []domain.Chunk {
	want := lexical.Keywords(query)
	if want.Len() == 0 {
		return nil
	}

	var accepted []domain.Chunk
	for _, c := range candidates {
		overlap := lexical.Coverage(want, lexical.Keywords(c.Chunk.Text))
		if overlap >= r.retrieval.RelevanceThreshold {
			accepted = append(accepted, c.Chunk)
			continue
		}
		logger.Debug("gate: rejected chunk %d (overlap %.2f, similarity %.3f)", c.Chunk.ID, overlap, c.Score)
	}
	return accepted
}

func (r *Retriever) assemble(query, source string, candidates []domain.ScoredChunk) *domain.RetrievalResult {
	result := &domain.RetrievalResult{
		Query:      query,
		Source:     source,
		Candidates: candidates,
		Accepted:   r.Gate(query, candidates),
	}
	result.Context, result.Truncated = BuildContext(result.Accepted, r.retrieval.MaxContextChars)
	return result
}

// BuildContext joins chunk texts up to budget characters. When the texts do
// not fit, the context is cut so that it ends with a truncation marker and
// stays within budget. A budget too small for the marker gets the bare cut.
func BuildContext(chunks []domain.Chunk, budget int) (string, bool) {
	if len(chunks) == 0 {
		return "", false
	}
	budget = max(budget, 0)

	var text []rune
	for i, c := range chunks {
		piece := c.Text
		if i > 0 {
			piece = contextSeparator + piece
		}
		pr := []rune(piece)
		if len(text)+len(pr) <= budget {
			text = append(text, pr...)
			continue
		}

		text = append(text, pr...)
		keep := budget - len([]rune(truncationMarker))
		if keep < 0 {
			return string(text[:budget]), true
		}
		return string(text[:keep]) + truncationMarker, true
	}
	return string(text), false
}
