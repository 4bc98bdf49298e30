package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the index caches",
	Long: `Indexes are cached in memory per process and durably by content hash.
Search results from external sources are cached durably for a short time.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [namespace]",
	Short: "Clear cached entries",
	Long: fmt.Sprintf(`Empties the in-memory index cache and purges durable entries.

Namespaces:
  %-8s - vector indexes (also empties the in-memory cache)
  %-8s - external search results

Without a namespace every durable entry is purged.`, domain.NamespaceVectors, domain.NamespaceSearch),
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClear,
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheSweep,
}

var cacheJSON bool

func init() {
	cacheStatsCmd.Flags().BoolVar(&cacheJSON, "json", false, "output statistics as JSON")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	stats, err := cacheService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	if cacheJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("[Memory]")
	cmd.Printf("  Indexes:    %d / %d\n", stats.Memory.Len, stats.Memory.Capacity)
	cmd.Printf("  Hits:       %d\n", stats.Memory.Hits)
	cmd.Printf("  Misses:     %d\n", stats.Memory.Misses)
	cmd.Printf("  Evictions:  %d\n", stats.Memory.Evictions)
	cmd.Println()

	cmd.Println("[Durable]")
	if len(stats.Durable.Entries) == 0 {
		cmd.Println("  No entries.")
	}
	namespaces := make([]string, 0, len(stats.Durable.Entries))
	for ns := range stats.Durable.Entries {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	for _, ns := range namespaces {
		cmd.Printf("  %-10s  %d\n", ns+":", stats.Durable.Entries[ns])
	}
	if stats.Durable.Expired > 0 {
		cmd.Printf("  Expired:    %d (run 'sercha-context cache sweep')\n", stats.Durable.Expired)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	namespace := ""
	if len(args) == 1 {
		namespace = args[0]
	}

	n, err := cacheService.Clear(cmd.Context(), namespace)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	if namespace == "" {
		cmd.Printf("Purged %d cached entries.\n", n)
	} else {
		cmd.Printf("Purged %d %s entries.\n", n, namespace)
	}
	return nil
}

func runCacheSweep(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	n, err := cacheService.Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to sweep cache: %w", err)
	}

	cmd.Printf("Removed %d expired entries.\n", n)
	return nil
}
