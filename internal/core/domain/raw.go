package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument is file content before text extraction.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// FallbackTitle derives a readable title from the URI file name,
// for formats that carry no title of their own.
func (r *RawDocument) FallbackTitle() string {
	if r.URI == "" {
		return ""
	}
	name := filepath.Base(r.URI)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
