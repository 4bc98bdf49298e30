package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file format no normaliser can read.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyInput indicates there is no text to chunk.
	// It is non-fatal: callers receive an empty result alongside it.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingService indicates the upstream embedding service failed.
	// It is surfaced to callers and never treated as an empty context.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCacheCorruption indicates a durable cache entry could not be decoded.
	// The entry is treated as a miss, evicted and rebuilt.
	ErrCacheCorruption = errors.New("cache entry corrupt")

	// ErrBuildTimeout indicates a caller gave up waiting for an in-flight index build.
	ErrBuildTimeout = errors.New("index build wait timed out")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answers cannot be generated without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Documents cannot be indexed without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSourceUnavailable indicates an external evidence source failed.
	ErrSourceUnavailable = errors.New("evidence source unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// Pipeline stages reported by StageError.
const (
	StageChunk    = "chunk"
	StageEmbed    = "embed"
	StageBuild    = "build"
	StageCache    = "cache"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
	StageVerify   = "verify"
	StageSource   = "source"
)

// StageError records which stage of a request failed and for which document.
// The query itself is never stored, only its length.
type StageError struct {
	// Stage is one of the Stage* constants.
	Stage string

	// DocumentID is the document being processed, empty for external sources.
	DocumentID string

	// QueryLen is the length of the query in characters, zero for ingestion.
	QueryLen int

	// Err is the underlying failure.
	Err error
}

// NewStageError wraps err with stage context. Returns nil if err is nil.
func NewStageError(stage, documentID string, queryLen int, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, DocumentID: documentID, QueryLen: queryLen, Err: err}
}

// Error implements the error interface.
func (e *StageError) Error() string {
	doc := e.DocumentID
	if doc == "" {
		doc = "-"
	}
	if e.QueryLen > 0 {
		return fmt.Sprintf("%s failed (document=%s, query=%d chars): %v", e.Stage, doc, e.QueryLen, e.Err)
	}
	return fmt.Sprintf("%s failed (document=%s): %v", e.Stage, doc, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, or empty if err carries none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
