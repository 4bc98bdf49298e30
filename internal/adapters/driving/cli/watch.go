package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 300 * time.Millisecond

var watchDocumentID string

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-ingest a document whenever its file changes",
	Long: `Uploads the file (or uses --doc) and replaces the document's text each
time the file is saved, so questions always see the current version.
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDocumentID, "doc", "d", "", "existing document id to keep replacing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	docID := watchDocumentID
	if docID == "" {
		req, err := uploadRequest(cmd, []string{path})
		if err != nil {
			return err
		}
		doc, err := documentService.Upload(cmd.Context(), req)
		if doc == nil {
			return fmt.Errorf("failed to ingest document: %w", err)
		}
		if err != nil {
			logger.Warn("%v", err)
		}
		docID = doc.ID
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often save by renaming a temp file over the original, which
	// drops a watch on the file itself, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	cmd.Printf("Watching %s as document %s (Ctrl+C to stop)\n", path, docID)
	return watchLoop(cmd.Context(), watcher.Events, watcher.Errors, path, func(ctx context.Context) {
		reingest(ctx, cmd, documentService, docID, path)
	})
}

// watchLoop calls reload once per burst of changes to path until ctx is done.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	path string,
	reload func(context.Context),
) error {
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if changed(event, path) {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			reload(ctx)
		}
	}
}

// changed reports whether event means path has new content.
func changed(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func reingest(ctx context.Context, cmd *cobra.Command, docs driving.DocumentService, docID, path string) {
	text, _, _, err := readDocumentFile(ctx, path)
	if err != nil {
		logger.Warn("watch: %v", err)
		return
	}

	doc, err := docs.Replace(ctx, docID, driving.UploadRequest{Text: text})
	switch {
	case doc == nil:
		logger.Warn("watch: replacing %s: %v", docID, err)
	case err != nil:
		logger.Warn("watch: %v", err)
		cmd.Printf("%s  replaced %s (%d chunks, not indexed)\n", time.Now().Format("15:04:05"), docID, len(doc.Chunks))
	default:
		cmd.Printf("%s  replaced %s (%d chunks)\n", time.Now().Format("15:04:05"), docID, len(doc.Chunks))
	}
}
