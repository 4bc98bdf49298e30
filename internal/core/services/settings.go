package services

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvDSN          = "SERCHA_CONTEXT_DSN"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize          = "chunker.size"
	keyChunkOverlap       = "chunker.overlap"
	keyChunkMax           = "chunker.max_chunks"
	keyChunkMinLength     = "chunker.min_length"
	keyChunkMinAlpha      = "chunker.min_alpha_ratio"
	keyChunkMinTokens     = "chunker.min_tokens"
	keyChunkDupThreshold  = "chunker.duplicate_threshold"
	keyChunkDupWindow     = "chunker.duplicate_window"
	keyChunkContextThresh = "chunker.context_threshold"
	keySearchMode         = "search.mode"
	keySearchK            = "search.k"
	keySearchFetchK       = "search.fetch_k"
	keySearchLambda       = "search.lambda"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedBatchSize     = "embedding.batch_size"
	keyEmbedRate          = "embedding.rate_per_second"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyRelevance          = "retrieval.relevance_threshold"
	keyMaxContext         = "retrieval.max_context_chars"
	keyGuardVerify        = "guard.verify_with_llm"
	keyGuardMinSupport    = "guard.min_support"
	keyCacheLRU           = "cache.lru_capacity"
	keyCacheIndexTTL      = "cache.index_ttl"
	keyCacheSearchTTL     = "cache.search_ttl"
	keyCacheBuildTimeout  = "cache.build_timeout"
	keyCacheWaitTimeout   = "cache.wait_timeout"
	keySourcesEnabled     = "sources.enabled"
	keySourcesMax         = "sources.max_results"
	keySourcesTimeout     = "sources.timeout"
	keySourcesRate        = "sources.rate_per_second"
	keyStorageDSN         = "storage.dsn"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindRatio
	kindBool
	kindDuration
	kindList
)

// setting describes one settable key and how to read it from AppSettings.
type setting struct {
	kind   settingKind
	value  func(*domain.AppSettings) any
	secret bool
	check  func(string) error
}

var settingsRegistry = map[string]setting{
	keyChunkSize:          {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.Size }},
	keyChunkOverlap:       {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.Overlap }},
	keyChunkMax:           {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.MaxChunks }},
	keyChunkMinLength:     {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.MinLength }},
	keyChunkMinAlpha:      {kind: kindRatio, value: func(s *domain.AppSettings) any { return s.Chunker.MinAlphaRatio }},
	keyChunkMinTokens:     {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.MinTokens }},
	keyChunkDupThreshold:  {kind: kindRatio, value: func(s *domain.AppSettings) any { return s.Chunker.DuplicateThreshold }},
	keyChunkDupWindow:     {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.DuplicateWindow }},
	keyChunkContextThresh: {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Chunker.ContextThreshold }},
	keySearchMode: {kind: kindString, check: checkSearchMode,
		value: func(s *domain.AppSettings) any { return s.Search.Mode.String() }},
	keySearchK:      {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Search.K }},
	keySearchFetchK: {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Search.FetchK }},
	keySearchLambda: {kind: kindRatio, value: func(s *domain.AppSettings) any { return s.Search.Lambda }},
	keyEmbedProvider: {kind: kindString, check: checkEmbeddingProvider,
		value: func(s *domain.AppSettings) any { return s.Embedding.Provider.String() }},
	keyEmbedModel:   {kind: kindString, value: func(s *domain.AppSettings) any { return s.Embedding.Model }},
	keyEmbedBaseURL: {kind: kindString, value: func(s *domain.AppSettings) any { return s.Embedding.BaseURL }},
	keyEmbedAPIKey: {kind: kindString, secret: true,
		value: func(s *domain.AppSettings) any { return s.Embedding.APIKey }},
	keyEmbedBatchSize: {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Embedding.BatchSize }},
	keyEmbedRate:      {kind: kindFloat, value: func(s *domain.AppSettings) any { return s.Embedding.RatePerSecond }},
	keyLLMProvider: {kind: kindString, check: checkLLMProvider,
		value: func(s *domain.AppSettings) any { return s.LLM.Provider.String() }},
	keyLLMModel:   {kind: kindString, value: func(s *domain.AppSettings) any { return s.LLM.Model }},
	keyLLMBaseURL: {kind: kindString, value: func(s *domain.AppSettings) any { return s.LLM.BaseURL }},
	keyLLMAPIKey: {kind: kindString, secret: true,
		value: func(s *domain.AppSettings) any { return s.LLM.APIKey }},
	keyRelevance:         {kind: kindRatio, value: func(s *domain.AppSettings) any { return s.Retrieval.RelevanceThreshold }},
	keyMaxContext:        {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Retrieval.MaxContextChars }},
	keyGuardVerify:       {kind: kindBool, value: func(s *domain.AppSettings) any { return s.Guard.VerifyWithLLM }},
	keyGuardMinSupport:   {kind: kindRatio, value: func(s *domain.AppSettings) any { return s.Guard.MinSupport }},
	keyCacheLRU:          {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Cache.LRUCapacity }},
	keyCacheIndexTTL:     {kind: kindDuration, value: func(s *domain.AppSettings) any { return s.Cache.IndexTTL }},
	keyCacheSearchTTL:    {kind: kindDuration, value: func(s *domain.AppSettings) any { return s.Cache.SearchTTL }},
	keyCacheBuildTimeout: {kind: kindDuration, value: func(s *domain.AppSettings) any { return s.Cache.BuildTimeout }},
	keyCacheWaitTimeout:  {kind: kindDuration, value: func(s *domain.AppSettings) any { return s.Cache.WaitTimeout }},
	keySourcesEnabled:    {kind: kindList, value: func(s *domain.AppSettings) any { return s.Sources.Enabled }},
	keySourcesMax:        {kind: kindInt, value: func(s *domain.AppSettings) any { return s.Sources.MaxResults }},
	keySourcesTimeout:    {kind: kindDuration, value: func(s *domain.AppSettings) any { return s.Sources.Timeout }},
	keySourcesRate:       {kind: kindFloat, value: func(s *domain.AppSettings) any { return s.Sources.RatePerSecond }},
	keyStorageDSN:        {kind: kindString, value: func(s *domain.AppSettings) any { return s.Storage.DSN }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to defaults; environment variables
// override API keys and the storage DSN.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunker: domain.ChunkerSettings{
			Size:               s.getInt(keyChunkSize, d.Chunker.Size),
			Overlap:            s.getInt(keyChunkOverlap, d.Chunker.Overlap),
			MaxChunks:          s.getInt(keyChunkMax, d.Chunker.MaxChunks),
			MinLength:          s.getInt(keyChunkMinLength, d.Chunker.MinLength),
			MinAlphaRatio:      s.getFloat(keyChunkMinAlpha, d.Chunker.MinAlphaRatio),
			MinTokens:          s.getInt(keyChunkMinTokens, d.Chunker.MinTokens),
			DuplicateThreshold: s.getFloat(keyChunkDupThreshold, d.Chunker.DuplicateThreshold),
			DuplicateWindow:    s.getInt(keyChunkDupWindow, d.Chunker.DuplicateWindow),
			ContextThreshold:   s.getInt(keyChunkContextThresh, d.Chunker.ContextThreshold),
		},
		Search: domain.SearchSettings{
			Mode:   s.getSearchMode(d.Search.Mode),
			K:      s.getInt(keySearchK, d.Search.K),
			FetchK: s.getInt(keySearchFetchK, d.Search.FetchK),
			Lambda: s.getFloat(keySearchLambda, d.Search.Lambda),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:      s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:         s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:        s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:     s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			RatePerSecond: s.getFloat(keyEmbedRate, d.Embedding.RatePerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			RelevanceThreshold: s.getFloat(keyRelevance, d.Retrieval.RelevanceThreshold),
			MaxContextChars:    s.getInt(keyMaxContext, d.Retrieval.MaxContextChars),
		},
		Guard: domain.GuardSettings{
			VerifyWithLLM: s.getBool(keyGuardVerify, d.Guard.VerifyWithLLM),
			MinSupport:    s.getFloat(keyGuardMinSupport, d.Guard.MinSupport),
		},
		Cache: domain.CacheSettings{
			LRUCapacity:  s.getInt(keyCacheLRU, d.Cache.LRUCapacity),
			IndexTTL:     s.getDuration(keyCacheIndexTTL, d.Cache.IndexTTL),
			SearchTTL:    s.getDuration(keyCacheSearchTTL, d.Cache.SearchTTL),
			BuildTimeout: s.getDuration(keyCacheBuildTimeout, d.Cache.BuildTimeout),
			WaitTimeout:  s.getDuration(keyCacheWaitTimeout, d.Cache.WaitTimeout),
		},
		Sources: domain.SourceSettings{
			Enabled:       s.getStringSlice(keySourcesEnabled, d.Sources.Enabled),
			MaxResults:    s.getInt(keySourcesMax, d.Sources.MaxResults),
			Timeout:       s.getDuration(keySourcesTimeout, d.Sources.Timeout),
			RatePerSecond: s.getFloat(keySourcesRate, d.Sources.RatePerSecond),
		},
		Storage: domain.StorageSettings{
			DSN: s.configStore.GetString(keyStorageDSN),
		},
	}

	if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = domain.DefaultOllamaURL
	}
	if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = domain.DefaultOllamaURL
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overrides file values with environment variables.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    s.getenv(EnvOpenAIKey),
		domain.AIProviderAnthropic: s.getenv(EnvAnthropicKey),
	}
	if key := keys[settings.Embedding.Provider]; key != "" {
		settings.Embedding.APIKey = key
	}
	if key := keys[settings.LLM.Provider]; key != "" {
		settings.LLM.APIKey = key
	}
	if dsn := s.getenv(EnvDSN); dsn != "" {
		settings.Storage.DSN = dsn
	}
}

// Save persists application settings.
// API keys that are empty or came from the environment are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, key := range s.Keys() {
		def := settingsRegistry[key]
		value := def.value(settings)
		if def.secret && s.skipSecret(value.(string)) {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value for the kind of key and stores it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := settingsRegistry[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	parsed, err := parseSetting(def, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return s.configStore.Set(key, parsed)
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsRegistry))
	for k := range settingsRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key holds a credential that should not be echoed.
func IsSecret(key string) bool {
	return settingsRegistry[key].secret
}

func parseSetting(def setting, value string) (any, error) {
	if def.check != nil {
		if err := def.check(value); err != nil {
			return nil, err
		}
	}

	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", value)
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat, kindRatio:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", value)
		}
		if f < 0 || (def.kind == kindRatio && f > 1) {
			return nil, fmt.Errorf("out of range: %v", f)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", value)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("not a duration: %q", value)
		}
		if d < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return d, nil
	case kindList:
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return value, nil
	}
}

func checkSearchMode(v string) error {
	if !domain.SearchMode(v).IsValid() {
		return fmt.Errorf("invalid search mode: %s", v)
	}
	return nil
}

func checkEmbeddingProvider(v string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), domain.AIProvider(v)) {
		return fmt.Errorf("provider %s does not support embeddings", v)
	}
	return nil
}

func checkLLMProvider(v string) error {
	if !domain.AIProvider(v).IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", v)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if err := checkEmbeddingProvider(provider.String()); err != nil {
		return err
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Local providers need a base URL, cloud providers use their own
	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = domain.DefaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func (s *SettingsService) skipSecret(value string) bool {
	return value == "" || value == s.getenv(EnvOpenAIKey) || value == s.getenv(EnvAnthropicKey)
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	c := settings.Chunker
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%s must be positive", keyChunkSize)
	case c.Overlap >= c.Size:
		return fmt.Errorf("%s (%d) must be smaller than %s (%d)", keyChunkOverlap, c.Overlap, keyChunkSize, c.Size)
	}

	if !settings.Search.Mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", settings.Search.Mode)
	}
	if settings.Search.K <= 0 {
		return fmt.Errorf("%s must be positive", keySearchK)
	}
	if settings.Search.Mode == domain.SearchModeMMR && settings.Search.FetchK < settings.Search.K {
		return fmt.Errorf("%s (%d) must be at least %s (%d)",
			keySearchFetchK, settings.Search.FetchK, keySearchK, settings.Search.K)
	}

	if settings.Cache.WaitTimeout < settings.Cache.BuildTimeout {
		return fmt.Errorf("%s must not be shorter than %s", keyCacheWaitTimeout, keyCacheBuildTimeout)
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	val := s.configStore.GetString(keySearchMode)
	if val == "" {
		return defaultVal
	}
	mode := domain.SearchMode(val)
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
