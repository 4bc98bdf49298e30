package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/cache/lru"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/sources"
	"github.com/custodia-labs/sercha-context/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-context/internal/core/services"
	"github.com/custodia-labs/sercha-context/internal/logger"
	"github.com/custodia-labs/sercha-context/internal/postprocessors"
)

// app holds the wired services and what must be released on exit.
type app struct {
	documents *services.DocumentService
	query     *services.QueryService
	cache     *services.CacheService
	settings  *services.SettingsService
	warnings  []string
	close     func()
}

// wire builds every service from the configuration in configDir.
// A dsn overrides storage.dsn from the config file and the environment.
func wire(configDir, dsn string) (*app, error) {
	configDir, err := resolveConfigDir(configDir)
	if err != nil {
		return nil, err
	}
	settingsSvc, err := wireSettings(configDir)
	if err != nil {
		return nil, err
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if dsn != "" {
		settings.Storage.DSN = dsn
	}

	stores, err := storage.Open(settings.Storage.DSN, configDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Debug("storage backend: %s", stores.Backend)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	pipeline, err := postprocessors.NewChunkingPipeline(settings.Chunker)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("building chunker: %w", err)
	}

	evidenceSources, err := sources.Build(settings.Sources, stores.Cache, settings.Cache.SearchTTL)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("building sources: %w", err)
	}

	aiServices := ai.Init(settings)

	gateway := services.NewEmbeddingGateway(aiServices.EmbeddingService, settings.Embedding)
	indexCache := lru.New(settings.Cache.LRUCapacity)
	index := services.NewIndexService(gateway, indexCache, stores.Cache, settings.Cache)

	a := &app{
		documents: services.NewDocumentService(stores.Documents, pipeline, index),
		query: services.NewQueryService(services.QueryDeps{
			Documents: stores.Documents,
			Index:     index,
			Retriever: services.NewRetriever(gateway, settings.Search, settings.Retrieval),
			Guard:     services.NewHallucinationGuard(aiServices.LLMService, prompts, settings.Guard),
			LLM:       aiServices.LLMService,
			Prompts:   prompts,
			Sources:   evidenceSources,
			Settings:  settings.Sources,
		}),
		cache:    services.NewCacheService(indexCache, stores.Cache),
		settings: settingsSvc,
		warnings: aiServices.Warnings,
		close: func() {
			aiServices.Close()
			if err := stores.Close(); err != nil {
				logger.Warn("closing storage: %v", err)
			}
		},
	}
	return a, nil
}

// wireSettings builds the settings service alone, for commands that only
// read or write configuration.
func wireSettings(configDir string) (*services.SettingsService, error) {
	configDir, err := resolveConfigDir(configDir)
	if err != nil {
		return nil, err
	}

	loadEnv(filepath.Join(configDir, ".env"))
	loadEnv(".env")

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return services.NewSettingsService(configStore, ai.NewConfigValidator()), nil
}

func resolveConfigDir(configDir string) (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	dir, err := file.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("config directory: %w", err)
	}
	return dir, nil
}

// loadEnv loads a .env file if one exists. Variables already set win.
func loadEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading %s: %v", path, err)
	}
}
