package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/cache/lru"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/lexical"
	"github.com/custodia-labs/sercha-context/internal/postprocessors"
)

const (
	eiffelText       = "The Eiffel Tower is in Paris. It was completed in 1889."
	testEmbedDims    = 64
	testGroundedTmpl = "CONTEXT:\n%s\nQUESTION: %s"
	testVerifyTmpl   = "VERIFY\n%s\n%s\n%s"
)

// hashEmbedder is a deterministic bag-of-words embedder: each keyword adds
// one to a hashed dimension, so texts sharing keywords are similar.
type hashEmbedder struct {
	model string
	dims  int

	calls   atomic.Int32
	texts   atomic.Int32
	failFor atomic.Int32
	err     error
	delay   time.Duration
	short   bool
	count   int
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{model: "hash-test", dims: testEmbedDims}
}

func (e *hashEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	for t := range lexical.Keywords(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(t))
		v[h.Sum32()%uint32(e.dims-1)]++
	}
	v[e.dims-1] = 0.01
	return v
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.failFor.Load() > 0 {
		e.failFor.Add(-1)
		return nil, errors.Join(domain.ErrEmbeddingService, errors.New("upstream 503"))
	}
	if e.err != nil {
		return nil, e.err
	}
	e.texts.Add(int32(len(texts)))

	n := len(texts)
	if e.count > 0 {
		n = e.count
	}
	out := make([][]float32, n)
	for i := range out {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		out[i] = e.vector(text)
		if e.short && i == n-1 {
			out[i] = out[i][:e.dims-1]
		}
	}
	return out, nil
}

func (e *hashEmbedder) Dimensions() int { return 0 }
func (e *hashEmbedder) ModelName() string { return e.model }
func (e *hashEmbedder) Ping(context.Context) error { return nil }
func (e *hashEmbedder) Close() error { return nil }

// extractiveLLM answers by returning the first context passage that holds
// every question keyword, or NOT_FOUND. Verification prompts get verdict.
type extractiveLLM struct {
	mu      sync.Mutex
	prompts []string
	verdict string
	answer  string
	err     error
}

func (m *extractiveLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	if strings.HasPrefix(prompt, "VERIFY") {
		return m.verdict, nil
	}
	if m.answer != "" {
		return m.answer, nil
	}

	body := strings.TrimPrefix(prompt, "CONTEXT:\n")
	i := strings.LastIndex(body, "\nQUESTION: ")
	contextText, question := body[:i], body[i+len("\nQUESTION: "):]

	want := lexical.Keywords(question)
	for _, passage := range strings.Split(contextText, "\n\n") {
		if lexical.Coverage(want, lexical.Keywords(passage)) == 1 {
			return passage, nil
		}
	}
	return domain.NotFoundSentinel, nil
}

func (m *extractiveLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "", errors.New("not used")
}
func (m *extractiveLLM) ModelName() string { return "extractive" }
func (m *extractiveLLM) Ping(context.Context) error { return nil }
func (m *extractiveLLM) Close() error { return nil }

func (m *extractiveLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type stubPrompts map[string]string

func (p stubPrompts) Load(name string) (string, error) {
	if t, ok := p[name]; ok {
		return t, nil
	}
	return "", domain.ErrNotFound
}

func (p stubPrompts) Reload() {}

func testPrompts() stubPrompts {
	return stubPrompts{
		driven.PromptGroundedAnswer: testGroundedTmpl,
		driven.PromptVerifyAnswer:   testVerifyTmpl,
	}
}

type stubSource struct {
	name  string
	items []domain.Evidence
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(_ context.Context, _ string, limit int) ([]domain.Evidence, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.items) {
		return s.items[:limit], nil
	}
	return s.items, nil
}

// testEngine wires every service against in-memory adapters.
type testEngine struct {
	settings domain.AppSettings
	embedder *hashEmbedder
	llm      *extractiveLLM
	docs     *memory.DocumentStore
	lru      *lru.Cache
	store    *memory.CacheStore
	index    *IndexService
	document *DocumentService
	query    *QueryService
	cache    *CacheService
}

func testSettings() domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Chunker.Size = 40
	s.Chunker.Overlap = 5
	s.Cache.BuildTimeout = 5 * time.Second
	s.Cache.WaitTimeout = 5 * time.Second
	return s
}

func noRetry() RetryPolicy {
	return RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond}
}

func newTestEngine(t *testing.T, sources ...driven.EvidenceSource) *testEngine {
	t.Helper()
	return newTestEngineWith(t, testSettings(), sources...)
}

func newTestEngineWith(t *testing.T, settings domain.AppSettings, sources ...driven.EvidenceSource) *testEngine {
	t.Helper()

	e := &testEngine{
		settings: settings,
		embedder: newHashEmbedder(),
		llm:      &extractiveLLM{verdict: "ACCURATE"},
		docs:     memory.NewDocumentStore(),
		lru:      lru.New(settings.Cache.LRUCapacity),
		store:    memory.NewCacheStore(),
	}
	e.wire(t, sources...)
	return e
}

// peer returns a second engine sharing e's document and durable stores, as
// another process against the same database would.
func (e *testEngine) peer(t *testing.T) *testEngine {
	t.Helper()

	p := &testEngine{
		settings: e.settings,
		embedder: newHashEmbedder(),
		llm:      &extractiveLLM{verdict: "ACCURATE"},
		docs:     e.docs,
		lru:      lru.New(e.settings.Cache.LRUCapacity),
		store:    e.store,
	}
	p.wire(t, e.query.sources...)
	return p
}

func (e *testEngine) wire(t *testing.T, sources ...driven.EvidenceSource) {
	t.Helper()
	settings := e.settings

	pipeline, err := postprocessors.NewChunkingPipeline(settings.Chunker)
	require.NoError(t, err)

	gateway := NewEmbeddingGateway(e.embedder, settings.Embedding, WithRetryPolicy(noRetry()))
	e.index = NewIndexService(gateway, e.lru, e.store, settings.Cache)
	e.document = NewDocumentService(e.docs, pipeline, e.index)
	e.cache = NewCacheService(e.lru, e.store)
	e.query = NewQueryService(QueryDeps{
		Documents: e.docs,
		Index:     e.index,
		Retriever: NewRetriever(gateway, settings.Search, settings.Retrieval),
		Guard:     NewHallucinationGuard(e.llm, testPrompts(), settings.Guard),
		LLM:       e.llm,
		Prompts:   testPrompts(),
		Sources:   sources,
		Settings:  settings.Sources,
	})
	e.query.policy = noRetry()
}

func uploadRequest(text string) driving.UploadRequest {
	return driving.UploadRequest{Title: "test.txt", Text: text}
}

func (e *testEngine) upload(t *testing.T, text string) *domain.Document {
	t.Helper()
	doc, err := e.document.Upload(context.Background(), uploadRequest(text))
	require.NoError(t, err)
	return doc
}
