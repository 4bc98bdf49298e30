package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-context/internal/normalisers/eml"
	"github.com/custodia-labs/sercha-context/internal/normalisers/html"
	"github.com/custodia-labs/sercha-context/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-context/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to normalisers by MIME type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Normaliser)}
}

// Default returns a registry with every built-in normaliser registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(eml.New())
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mt], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mt] = list
	}
}

// Normalise extracts text with the highest priority normaliser for the
// document's MIME type. An empty MIME type is treated as plain text.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mt := baseType(raw.MIMEType)
	if mt == "" {
		mt = "text/plain"
	}

	r.mu.RLock()
	candidates := r.byMIME[mt]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mt)
	}
	return candidates[0].Normalise(ctx, raw)
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// extensions maps file extensions the mime package does not know, or
// maps differently across platforms.
var extensions = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".rst":      "text/plain",
	".htm":      "text/html",
	".html":     "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".eml":      "message/rfc822",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".sh":       "text/x-shellscript",
	".js":       "text/javascript",
	".css":      "text/css",
}

// MIMETypeFor guesses the MIME type of a file from its extension.
// Unknown extensions are treated as plain text.
func MIMETypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensions[ext]; ok {
		return mt
	}
	if mt := baseType(mime.TypeByExtension(ext)); mt != "" {
		return mt
	}
	return "text/plain"
}

func baseType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
