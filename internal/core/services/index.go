package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/logger"
	"github.com/custodia-labs/sercha-context/internal/vectorindex"
)

// IndexService returns the vector index for a document, reading through the
// in-process LRU, then the durable store, then building from the chunks.
//
// Builds are keyed by content hash: concurrent requests for identical text
// share one build. A build runs detached from the caller's context, bounded
// by BuildTimeout; callers stop waiting after WaitTimeout.
type IndexService struct {
	gateway  *EmbeddingGateway
	lru      driven.IndexCache
	store    driven.CacheStore
	settings domain.CacheSettings
	group    singleflight.Group
	now      func() time.Time

	builds atomic.Int64
}

// NewIndexService creates an index service. store may be nil for an LRU-only setup.
func NewIndexService(gateway *EmbeddingGateway, lru driven.IndexCache, store driven.CacheStore, settings domain.CacheSettings) *IndexService {
	defaults := domain.DefaultAppSettings().Cache
	if settings.BuildTimeout <= 0 {
		settings.BuildTimeout = defaults.BuildTimeout
	}
	if settings.WaitTimeout <= 0 {
		settings.WaitTimeout = defaults.WaitTimeout
	}
	return &IndexService{
		gateway:  gateway,
		lru:      lru,
		store:    store,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Builds returns how many indexes this service has built from embeddings.
func (s *IndexService) Builds() int64 {
	return s.builds.Load()
}

// Get returns the index for doc.
func (s *IndexService) Get(ctx context.Context, doc *domain.Document) (*domain.VectorIndex, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}
	if len(doc.Chunks) == 0 {
		return nil, domain.NewStageError(domain.StageBuild, doc.ID, 0, domain.ErrEmptyInput)
	}
	if !s.gateway.Available() {
		return nil, domain.NewStageError(domain.StageEmbed, doc.ID, 0, domain.ErrEmbeddingUnavailable)
	}
	model := s.gateway.Model()

	if idx, ok := s.lru.Get(doc.ID); ok {
		if idx.Matches(doc, model) {
			logger.Debug("index %s: memory hit", doc.ID)
			return idx, nil
		}
		logger.Debug("index %s: memory entry is stale", doc.ID)
	}

	if idx := s.load(ctx, doc, model); idx != nil {
		s.lru.Put(doc.ID, idx)
		return idx, nil
	}

	idx, err := s.buildShared(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.lru.Put(doc.ID, idx)
	return idx, nil
}

// Invalidate drops the in-process index for a document.
// Durable entries are keyed by content and stay valid for identical text.
func (s *IndexService) Invalidate(documentID string) {
	if s.lru.Remove(documentID) {
		logger.Debug("index %s: invalidated", documentID)
	}
}

// load reads the durable tier. Corrupt or stale entries are evicted and
// reported as a miss.
func (s *IndexService) load(ctx context.Context, doc *domain.Document, model string) *domain.VectorIndex {
	if s.store == nil {
		return nil
	}
	key := domain.IndexCacheKey(doc.ContentHash)

	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("index %s: durable read failed: %v", doc.ID, err)
		}
		return nil
	}

	idx, err := decodeEntry(data, model)
	if err != nil {
		logger.Warn("index %s: evicting durable entry: %v", doc.ID, err)
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.Warn("index %s: evict failed: %v", doc.ID, delErr)
		}
		return nil
	}

	logger.Debug("index %s: durable hit", doc.ID)
	idx.ContentHash = doc.ContentHash
	return withDocumentID(idx, doc.ID)
}

// buildShared joins or starts the build for doc's content hash and waits
// at most WaitTimeout for it.
func (s *IndexService) buildShared(ctx context.Context, doc *domain.Document) (*domain.VectorIndex, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(doc.ContentHash, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(detached, s.settings.BuildTimeout)
		defer cancel()
		return s.build(buildCtx, doc)
	})

	timer := time.NewTimer(s.settings.WaitTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return withDocumentID(res.Val.(*domain.VectorIndex), doc.ID), nil
	case <-ctx.Done():
		return nil, domain.NewStageError(domain.StageBuild, doc.ID, 0, ctx.Err())
	case <-timer.C:
		return nil, domain.NewStageError(domain.StageBuild, doc.ID, 0,
			fmt.Errorf("%w after %s", domain.ErrBuildTimeout, s.settings.WaitTimeout))
	}
}

// build embeds the chunks, builds the index and writes it to the durable tier.
func (s *IndexService) build(ctx context.Context, doc *domain.Document) (*domain.VectorIndex, error) {
	s.builds.Add(1)
	start := time.Now()

	vectors, err := s.gateway.Embed(ctx, doc.Chunks)
	if err != nil {
		return nil, domain.NewStageError(domain.StageEmbed, doc.ID, 0, err)
	}

	idx, err := vectorindex.Build(doc.ID, s.gateway.Model(), doc.Chunks, vectors)
	if err != nil {
		return nil, domain.NewStageError(domain.StageBuild, doc.ID, 0, err)
	}
	idx.ContentHash = doc.ContentHash
	logger.Info("index %s: built %d vectors in %s", doc.ID, idx.Len(), time.Since(start).Round(time.Millisecond))

	if s.store != nil {
		if err := s.save(ctx, doc, idx); err != nil {
			logger.Warn("index %s: durable write failed: %v", doc.ID, err)
		}
	}
	return idx, nil
}

func (s *IndexService) save(ctx context.Context, doc *domain.Document, idx *domain.VectorIndex) error {
	encoded, err := vectorindex.Marshal(idx)
	if err != nil {
		return err
	}

	entry := domain.CacheEntry{
		Key:       domain.IndexCacheKey(doc.ContentHash),
		Model:     idx.Model,
		Index:     encoded,
		Chunks:    domain.ChunkTexts(idx.Chunks),
		Metadata:  make([]map[string]any, len(idx.Chunks)),
		CreatedAt: s.now(),
		TTL:       s.settings.IndexTTL,
	}
	for i, c := range idx.Chunks {
		entry.Metadata[i] = domain.ChunkMetadata(c)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, entry.Key, data, s.settings.IndexTTL)
}

// decodeEntry parses a durable entry and checks it against the current model.
func decodeEntry(data []byte, model string) (*domain.VectorIndex, error) {
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheCorruption, err)
	}
	if entry.Model != model {
		return nil, fmt.Errorf("built with model %q, current model is %q", entry.Model, model)
	}

	idx, err := vectorindex.Unmarshal(entry.Index)
	if err != nil {
		return nil, err
	}
	if idx.Len() != len(entry.Chunks) {
		return nil, fmt.Errorf("%w: index has %d chunks, sidecar has %d",
			domain.ErrCacheCorruption, idx.Len(), len(entry.Chunks))
	}
	return idx, nil
}

// withDocumentID returns idx labelled with id. The copy shares the
// read-only chunk and vector slices.
func withDocumentID(idx *domain.VectorIndex, id string) *domain.VectorIndex {
	if idx.DocumentID == id {
		return idx
	}
	cp := *idx
	cp.DocumentID = id
	return &cp
}
