package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/logger"
	"github.com/custodia-labs/sercha-context/internal/normalisers"
)

// maxInputBytes bounds what is read from a file or stdin. The document
// service truncates to MaxTextLength characters; this only stops runaway reads.
const maxInputBytes = 4*domain.MaxTextLength + 4

var errNoInput = errors.New("no input: pass a file or pipe text on stdin")

// documentNormalisers extracts text from files passed on the command line.
var documentNormalisers driven.NormaliserRegistry = normalisers.Default()

// readStdin reads piped input. An interactive terminal is not read.
func readStdin(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errNoInput
	}
	data, err := io.ReadAll(io.LimitReader(in, maxInputBytes))
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errNoInput
	}
	return string(data), nil
}

// readDocumentFile reads a file and extracts its text with the normaliser
// for its type. It returns the text, the title the normaliser found and the URI.
func readDocumentFile(ctx context.Context, path string) (text, title, uri string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxInputBytes))
	if err != nil {
		return "", "", "", fmt.Errorf("reading %s: %w", path, err)
	}

	uri = path
	if abs, err := filepath.Abs(path); err == nil {
		uri = abs
	}

	result, err := documentNormalisers.Normalise(ctx, &domain.RawDocument{
		URI:      uri,
		MIMEType: normalisers.MIMETypeFor(path),
		Content:  data,
	})
	if err != nil {
		return "", "", "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	logger.Debug("input: %s read as %s", path, result.Format)
	return result.Text, result.Title, uri, nil
}
