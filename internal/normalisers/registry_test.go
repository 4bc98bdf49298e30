package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

type stubNormaliser struct {
	format   string
	priority int
	types    []string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(context.Context, *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Format: s.format}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{format: "fallback", priority: 5, types: []string{"text/x-test"}})
	r.Register(&stubNormaliser{format: "specific", priority: 50, types: []string{"text/x-test"}})
	r.Register(&stubNormaliser{format: "low", priority: 1, types: []string{"text/x-test"}})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/x-test; charset=utf-8"})

	require.NoError(t, err)
	assert.Equal(t, "specific", result.Format)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	_, err := Default().Normalise(context.Background(), &domain.RawDocument{MIMEType: "application/pdf"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := Default().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefault_Dispatch(t *testing.T) {
	tests := []struct {
		path   string
		body   string
		format string
		text   string
	}{
		{"notes.txt", "The tower is 330 metres tall.", "text", "The tower is 330 metres tall."},
		{"guide.md", "# Guide\n\nThe **tower** is tall.", "markdown", "Guide\n\nThe tower is tall."},
		{"page.html", "<title>Page</title><p>The tower</p>", "html", "The tower"},
		{"unknown.zzz", "plain bytes", "text", "plain bytes"},
	}

	r := Default()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			raw := &domain.RawDocument{URI: tt.path, MIMEType: MIMETypeFor(tt.path), Content: []byte(tt.body)}

			result, err := r.Normalise(context.Background(), raw)

			require.NoError(t, err)
			assert.Equal(t, tt.format, result.Format)
			assert.Equal(t, tt.text, result.Text)
		})
	}
}

func TestDefault_SupportedMIMETypes(t *testing.T) {
	types := Default().SupportedMIMETypes()

	assert.Contains(t, types, "text/plain")
	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "message/rfc822")
	assert.IsIncreasing(t, types)
}

func TestMIMETypeFor(t *testing.T) {
	tests := map[string]string{
		"README.md":        "text/markdown",
		"/a/b/INDEX.HTML":  "text/html",
		"letter.docx":      "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"mail.eml":         "message/rfc822",
		"main.go":          "text/x-go",
		"no-extension":     "text/plain",
		"archive.unknownx": "text/plain",
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, MIMETypeFor(path))
		})
	}
}
