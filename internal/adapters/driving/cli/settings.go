package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, retrieval, AI providers, caching and sources.

Settings are stored in config.toml in the configuration directory.
OPENAI_API_KEY, ANTHROPIC_API_KEY and SERCHA_CONTEXT_DSN override the file.`,
	Annotations: map[string]string{wiringAnnotation: wiringSettings},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set one setting by its dotted key, for example:

  sercha-context settings set search.k 5
  sercha-context settings set sources.enabled wikipedia
  sercha-context settings set cache.index_ttl 2h

API keys are read without echo when the value is omitted.
Run 'sercha-context settings keys' for every key.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index documents and questions.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to draft and verify answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Size: %d (overlap %d, at most %d chunks)\n",
		settings.Chunker.Size, settings.Chunker.Overlap, settings.Chunker.MaxChunks)
	cmd.Printf("  Quality: min length %d, min alpha ratio %.2f, min tokens %d\n",
		settings.Chunker.MinLength, settings.Chunker.MinAlphaRatio, settings.Chunker.MinTokens)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Mode: %s\n", settings.Search.Mode.Description())
	cmd.Printf("  K: %d\n", settings.Search.K)
	if settings.Search.Mode == domain.SearchModeMMR {
		cmd.Printf("  Fetch K: %d, Lambda: %.2f\n", settings.Search.FetchK, settings.Search.Lambda)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Relevance threshold: %.2f\n", settings.Retrieval.RelevanceThreshold)
	cmd.Printf("  Max context: %d chars\n", settings.Retrieval.MaxContextChars)
	cmd.Printf("  Verify with LLM: %t (min support %.2f)\n", settings.Guard.VerifyWithLLM, settings.Guard.MinSupport)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  In-memory indexes: %d\n", settings.Cache.LRUCapacity)
	cmd.Printf("  Index TTL: %s, search TTL: %s\n", settings.Cache.IndexTTL, settings.Cache.SearchTTL)
	cmd.Println()

	cmd.Println("[Sources]")
	if len(settings.Sources.Enabled) == 0 {
		cmd.Println("  Enabled: none")
	} else {
		cmd.Printf("  Enabled: %s\n", strings.Join(settings.Sources.Enabled, ", "))
	}
	cmd.Printf("  Max results: %d, timeout %s\n", settings.Sources.MaxResults, settings.Sources.Timeout)
	cmd.Println()

	cmd.Println("[Storage]")
	if settings.Storage.DSN == "" {
		cmd.Println("  DSN: (sqlite in config directory)")
	} else {
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Storage.DSN))
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-context settings embedding' or 'settings llm' to fix provider issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider == domain.AIProviderOllama || baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case services.IsSecret(key):
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if services.IsSecret(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

// providerChoice prompts for a provider, a model and, when needed, an API key.
func providerChoice(
	cmd *cobra.Command,
	reader *bufio.Reader,
	title string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (provider domain.AIProvider, model, apiKey string) {
	cmd.Println(title)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider = providers[idx-1]

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model = readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (empty uses the environment): ")
		apiKey = readPassword()
		cmd.Println()
	}
	return provider, model, apiKey
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, apiKey := providerChoice(cmd, reader, "Select Embedding Provider",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	cmd.Println("Indexes built with the previous model are rebuilt when next used.")
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, apiKey := providerChoice(cmd, reader, "Select LLM Provider",
		domain.AllLLMProviders(), domain.DefaultLLMModels())

	if err := settingsService.SetLLMProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
