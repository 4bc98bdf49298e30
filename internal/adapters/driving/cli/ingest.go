package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

var ingestTitle string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Upload a document",
	Long: `Chunks a text document, embeds the chunks and stores the index.

Reads the file if given, otherwise text piped on stdin. The printed document
id is passed to 'ask --doc' to answer questions from the document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "Document title (default: file name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	req, err := uploadRequest(cmd, args)
	if err != nil {
		return err
	}

	doc, err := documentService.Upload(cmd.Context(), req)
	if doc == nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	printDocument(cmd, doc)
	if err != nil {
		cmd.Printf("\nWarning: %v\n", err)
		cmd.Println("The index will be built on the first question.")
	}
	return nil
}

// uploadRequest builds a request from a file argument or stdin.
func uploadRequest(cmd *cobra.Command, args []string) (driving.UploadRequest, error) {
	req := driving.UploadRequest{Title: ingestTitle}
	if len(args) == 0 {
		text, err := readStdin(cmd)
		if err != nil {
			return req, err
		}
		req.Text = text
		return req, nil
	}

	text, title, uri, err := readDocumentFile(cmd.Context(), args[0])
	if err != nil {
		return req, err
	}
	req.Text = text
	req.URI = uri
	if req.Title == "" {
		req.Title = title
	}
	return req, nil
}

func printDocument(cmd *cobra.Command, doc *domain.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	if doc.Title != "" {
		cmd.Printf("  Title:    %s\n", doc.Title)
	}
	if doc.URI != "" {
		cmd.Printf("  URI:      %s\n", doc.URI)
	}
	cmd.Printf("  Chunks:   %d\n", doc.Stats.TotalChunks)
	cmd.Printf("  Length:   %d chars\n", doc.Stats.OriginalLength)
	if doc.Stats.OriginalLength > domain.MaxTextLength {
		cmd.Printf("  Note:     truncated to %d chars\n", domain.MaxTextLength)
	}
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
}
