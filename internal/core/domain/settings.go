package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkerSettings controls how documents are split and filtered.
type ChunkerSettings struct {
	// Size is the target chunk length in characters.
	Size int

	// Overlap is the number of trailing characters repeated at the start of the next chunk.
	Overlap int

	// MaxChunks caps the number of chunks kept per document. Zero means no cap.
	MaxChunks int

	// MinLength rejects chunks shorter than this many characters.
	MinLength int

	// MinAlphaRatio rejects chunks whose letter ratio is below this.
	MinAlphaRatio float64

	// MinTokens rejects chunks with fewer meaningful tokens.
	MinTokens int

	// DuplicateThreshold rejects chunks whose Jaccard similarity to a recent chunk exceeds it.
	DuplicateThreshold float64

	// DuplicateWindow is how many recently accepted chunks are compared.
	DuplicateWindow int

	// ContextThreshold prefixes chunks shorter than this with the previous chunk's tail.
	ContextThreshold int
}

// EffectiveMinLength returns the minimum accepted length for the target size.
// A target smaller than twice MinLength lowers the floor to half the target,
// otherwise small targets could never produce a sentence-sized chunk.
func (c ChunkerSettings) EffectiveMinLength() int {
	if c.Size > 0 && c.Size/2 < c.MinLength {
		return c.Size / 2
	}
	return c.MinLength
}

// SearchSettings holds vector search configuration.
type SearchSettings struct {
	// Mode is similarity or MMR.
	Mode SearchMode

	// K is the number of chunks retrieved per query.
	K int

	// FetchK is the MMR over-fetch size.
	FetchK int

	// Lambda is the MMR relevance weight.
	Lambda float64
}

// Params returns the search parameters for a query.
func (s SearchSettings) Params() SearchParams {
	return SearchParams{Mode: s.Mode, K: s.K, FetchK: s.FetchK, Lambda: s.Lambda}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// RatePerSecond limits embedding requests. Zero disables limiting.
	RatePerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings controls the relevance gate and context window.
type RetrievalSettings struct {
	// RelevanceThreshold is the minimum share of query keywords a chunk must contain.
	RelevanceThreshold float64

	// MaxContextChars bounds the assembled context.
	MaxContextChars int
}

// GuardSettings controls answer verification.
type GuardSettings struct {
	// VerifyWithLLM enables the second verification pass.
	VerifyWithLLM bool

	// MinSupport is the minimum share of answer keywords found in the context.
	MinSupport float64
}

// CacheSettings controls both cache tiers and the build registry.
type CacheSettings struct {
	// LRUCapacity is the number of indexes held in process.
	LRUCapacity int

	// IndexTTL is the durable lifetime of a built index.
	IndexTTL time.Duration

	// SearchTTL is the durable lifetime of external search results.
	SearchTTL time.Duration

	// BuildTimeout bounds a single index build.
	BuildTimeout time.Duration

	// WaitTimeout bounds how long a caller waits on an in-flight build.
	WaitTimeout time.Duration
}

// SourceSettings controls external evidence sources.
type SourceSettings struct {
	// Enabled lists source names in the order they are tried.
	Enabled []string

	// MaxResults is the number of results requested per source.
	MaxResults int

	// Timeout bounds a single source request.
	Timeout time.Duration

	// RatePerSecond limits requests to each source.
	RatePerSecond float64
}

// StorageSettings selects the durable store.
type StorageSettings struct {
	// DSN is empty for SQLite in the data directory, a postgres:// URL, or memory://.
	DSN string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunker   ChunkerSettings
	Search    SearchSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Guard     GuardSettings
	Cache     CacheSettings
	Sources   SourceSettings
	Storage   StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both AI services default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunker: DefaultChunkerSettings(),
		Search: SearchSettings{
			Mode:   SearchModeMMR,
			K:      3,
			FetchK: 12,
			Lambda: 0.6,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:   DefaultOllamaURL,
			BatchSize: 4,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaURL,
		},
		Retrieval: RetrievalSettings{
			RelevanceThreshold: 0.2,
			MaxContextChars:    2000,
		},
		Guard: GuardSettings{
			VerifyWithLLM: false,
			MinSupport:    0.3,
		},
		Cache: CacheSettings{
			LRUCapacity:  10,
			IndexTTL:     time.Hour,
			SearchTTL:    30 * time.Minute,
			BuildTimeout: 2 * time.Minute,
			WaitTimeout:  2*time.Minute + 5*time.Second,
		},
		Sources: SourceSettings{
			Enabled:       []string{"wikipedia", "duckduckgo"},
			MaxResults:    3,
			Timeout:       10 * time.Second,
			RatePerSecond: 1,
		},
	}
}

// DefaultChunkerSettings returns the chunker defaults.
func DefaultChunkerSettings() ChunkerSettings {
	return ChunkerSettings{
		Size:               500,
		Overlap:            50,
		MaxChunks:          15,
		MinLength:          30,
		MinAlphaRatio:      0.3,
		MinTokens:          3,
		DuplicateThreshold: 0.8,
		DuplicateWindow:    3,
		ContextThreshold:   100,
	}
}

// DefaultOllamaURL is the default local Ollama endpoint.
const DefaultOllamaURL = "http://localhost:11434"

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "gemma2:2b",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
