package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/sercha-context/internal/adapters/driving/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Serves documents, questions and cache maintenance as JSON under /api/v1.

Routes:
  GET    /api/v1/health
  GET    /api/v1/documents
  POST   /api/v1/documents            {"title", "uri", "text"}
  GET    /api/v1/documents/:id
  PUT    /api/v1/documents/:id        {"title", "uri", "text"}
  DELETE /api/v1/documents/:id
  GET    /api/v1/documents/:id/text
  GET    /api/v1/documents/:id/stats
  POST   /api/v1/ask                  {"question", "document_id", "allow_external"}
  GET    /api/v1/cache/stats
  DELETE /api/v1/cache?namespace=
  POST   /api/v1/cache/sweep`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "127.0.0.1:8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if documentService == nil || queryService == nil {
		return errors.New("document and query services not configured")
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Document: documentService,
		Query:    queryService,
		Cache:    cacheService,
	})
	if err != nil {
		return err
	}

	cmd.Printf("API listening on http://%s/api/v1\n", serveAddr)
	if err := server.Run(cmd.Context(), serveAddr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
