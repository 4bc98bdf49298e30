package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage uploaded documents",
	Long:  `List, view, replace, or remove uploaded documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentReplaceCmd = &cobra.Command{
	Use:   "replace [doc-id] [file]",
	Short: "Replace document text",
	Long: `Replaces a document's text from a file or stdin, keeping its id.
The old index is dropped and a new one is built.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDocumentReplace,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

var documentStatsCmd = &cobra.Command{
	Use:   "stats [doc-id]",
	Short: "Show chunking statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentStats,
}

var (
	documentJSON   bool
	documentChunks bool
)

func init() {
	documentGetCmd.Flags().BoolVar(&documentChunks, "chunks", false, "also print every chunk")
	documentStatsCmd.Flags().BoolVar(&documentJSON, "json", false, "output statistics as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentReplaceCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	documentCmd.AddCommand(documentStatsCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		if docs[i].Title != "" {
			cmd.Printf("    Title: %s\n", docs[i].Title)
		}
		cmd.Printf("    Chunks: %d, %d chars, updated %s\n",
			docs[i].Chunks, docs[i].Length, docs[i].UpdatedAt.Format("2006-01-02 15:04"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	printDocument(cmd, doc)
	cmd.Printf("  Hash:     %s\n", doc.ContentHash)

	if documentChunks {
		cmd.Println("\n  Chunks:")
		for _, c := range doc.Chunks {
			cmd.Printf("    [%d] (%s, %d chars) %s\n", c.ID, c.Position, c.Length, c.Preview)
		}
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(doc.RawText)
	return nil
}

func runDocumentReplace(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	req, err := uploadRequest(cmd, args[1:])
	if err != nil {
		return err
	}

	doc, err := documentService.Replace(cmd.Context(), args[0], req)
	if doc == nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	printDocument(cmd, doc)
	if err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Document %s removed.\n", args[0])
	return nil
}

func runDocumentStats(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document stats: %w", err)
	}

	if documentJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Document Stats: %s\n\n", args[0])
	cmd.Printf("  Original length:   %d\n", stats.OriginalLength)
	cmd.Printf("  Chunks:            %d\n", stats.TotalChunks)
	cmd.Printf("  Chunk size:        avg %.1f, min %d, max %d\n",
		stats.AvgChunkSize, stats.MinChunkSize, stats.MaxChunkSize)
	cmd.Printf("  Processed length:  %d\n", stats.TotalProcessedLength)
	return nil
}
