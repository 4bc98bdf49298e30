package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-context/internal/postprocessors/contextprefix"
	"github.com/custodia-labs/sercha-context/internal/postprocessors/dedupe"
	"github.com/custodia-labs/sercha-context/internal/postprocessors/quality"
	"github.com/custodia-labs/sercha-context/internal/postprocessors/ranker"
)

// DefaultChain is the processor order used to chunk a document.
// Filtering runs before prefixing so prefixes never rescue a rejected chunk,
// and ranking runs last so the cap applies to substantive chunks only.
var DefaultChain = []string{"chunker", "quality", "dedupe", "context_prefix", "ranker", "metadata"}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("quality", buildQuality)
	r.Register("dedupe", buildDedupe)
	r.Register("context_prefix", buildContextPrefix)
	r.Register("ranker", buildRanker)
	r.Register("metadata", func(map[string]any) (driven.PostProcessor, error) {
		return MetadataProcessor{}, nil
	})
}

// ConfigFromSettings maps chunker settings onto per-processor config.
func ConfigFromSettings(s domain.ChunkerSettings) map[string]map[string]any {
	return map[string]map[string]any{
		"chunker": {
			"chunk_size": s.Size,
			"overlap":    s.Overlap,
		},
		"quality": {
			"min_length":      s.EffectiveMinLength(),
			"min_alpha_ratio": s.MinAlphaRatio,
			"min_tokens":      s.MinTokens,
		},
		"dedupe": {
			"threshold": s.DuplicateThreshold,
			"window":    s.DuplicateWindow,
		},
		"context_prefix": {
			"threshold": s.ContextThreshold,
		},
		"ranker": {
			"max_chunks": s.MaxChunks,
		},
	}
}

// NewChunkingPipeline builds the default chain configured from settings.
func NewChunkingPipeline(s domain.ChunkerSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	cfg := ConfigFromSettings(s)
	pipeline := NewPipeline()
	for _, name := range DefaultChain {
		p, err := r.Build(name, cfg[name])
		if err != nil {
			return nil, err
		}
		pipeline.Add(p)
	}
	return pipeline, nil
}

// Chunk splits text into scored, filtered chunks using settings.
// Blank text returns no chunks and domain.ErrEmptyInput.
// Identical text and settings always yield identical chunks.
func Chunk(ctx context.Context, text string, s domain.ChunkerSettings) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	pipeline, err := NewChunkingPipeline(s)
	if err != nil {
		return nil, fmt.Errorf("build chunking pipeline: %w", err)
	}
	return pipeline.Process(ctx, &domain.Document{RawText: text})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 500)
//   - overlap (int): Overlapping characters between chunks (default: 50)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
	}

	return chunker.New(opts...), nil
}

func buildQuality(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []quality.Option

	if _, ok := cfg["min_length"]; ok {
		opts = append(opts, quality.WithMinLength(getIntFromConfig(cfg, "min_length")))
	}
	if r := getFloatFromConfig(cfg, "min_alpha_ratio"); r > 0 {
		opts = append(opts, quality.WithMinAlphaRatio(r))
	}
	if _, ok := cfg["min_tokens"]; ok {
		opts = append(opts, quality.WithMinTokens(getIntFromConfig(cfg, "min_tokens")))
	}

	return quality.New(opts...), nil
}

func buildDedupe(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []dedupe.Option

	if t := getFloatFromConfig(cfg, "threshold"); t > 0 {
		opts = append(opts, dedupe.WithThreshold(t))
	}
	if w := getIntFromConfig(cfg, "window"); w > 0 {
		opts = append(opts, dedupe.WithWindow(w))
	}

	return dedupe.New(opts...), nil
}

func buildContextPrefix(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []contextprefix.Option

	if _, ok := cfg["threshold"]; ok {
		opts = append(opts, contextprefix.WithThreshold(getIntFromConfig(cfg, "threshold")))
	}

	return contextprefix.New(opts...), nil
}

func buildRanker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []ranker.Option

	if _, ok := cfg["max_chunks"]; ok {
		opts = append(opts, ranker.WithMaxChunks(getIntFromConfig(cfg, "max_chunks")))
	}

	return ranker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getFloatFromConfig is the float counterpart of getIntFromConfig.
func getFloatFromConfig(cfg map[string]any, key string) float64 {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
