// Package cli provides the sercha-context command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services exercised by the commands. Wired in PersistentPreRunE unless set
// beforehand with SetServices.
var (
	documentService driving.DocumentService
	queryService    driving.QueryService
	cacheService    driving.CacheService
	settingsService driving.SettingsService

	servicesReady bool
	closeServices func()
)

// Persistent flags.
var (
	verboseFlag    bool
	logContentFlag bool
	configDirFlag  string
	dsnFlag        string
)

// wiringAnnotation on a command, or any parent, limits what setup wires.
const wiringAnnotation = "sercha-context/wiring"

// Wiring levels.
const (
	wiringNone     = "none"
	wiringSettings = "settings"
)

var rootCmd = &cobra.Command{
	Use:   "sercha-context",
	Short: "Grounded question answering over your documents",
	Long: `sercha-context answers questions from uploaded documents, falling back to
Wikipedia and web search when asked to. Every answer is checked against the
evidence it came from; answers the evidence does not support are refused.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&logContentFlag, "log-content", false,
		"Include document and question text in debug logs")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"Configuration and data directory (default ~/.sercha-context)")
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "",
		"Storage DSN: sqlite path, postgres://..., or memory:// (overrides storage.dsn)")
}

// Services bundles the driving ports used by the commands.
type Services struct {
	Document driving.DocumentService
	Query    driving.QueryService
	Cache    driving.CacheService
	Settings driving.SettingsService
}

// SetServices injects already-wired services, skipping the default wiring.
func SetServices(s *Services) {
	documentService = s.Document
	queryService = s.Query
	cacheService = s.Cache
	settingsService = s.Settings
	servicesReady = true
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	logger.SetContentLogging(logContentFlag)

	if servicesReady {
		return nil
	}

	switch wiringFor(cmd) {
	case wiringNone:
		return nil
	case wiringSettings:
		if settingsService != nil {
			return nil
		}
		svc, err := wireSettings(configDirFlag)
		if err != nil {
			return err
		}
		settingsService = svc
		return nil
	}

	app, err := wire(configDirFlag, dsnFlag)
	if err != nil {
		return err
	}
	for _, w := range app.warnings {
		logger.Warn("%s", w)
	}

	documentService = app.documents
	queryService = app.query
	cacheService = app.cache
	settingsService = app.settings
	closeServices = app.close
	servicesReady = true
	return nil
}

func wiringFor(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if level := c.Annotations[wiringAnnotation]; level != "" {
			return level
		}
	}
	return ""
}

func teardown() {
	if closeServices != nil {
		closeServices()
		closeServices = nil
	}
}
