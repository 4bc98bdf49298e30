package html

import (
	"bytes"
	"context"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to plain text. The title comes from
// the <title> element, falling back to the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	title, text := extract(raw.Content)
	if title == "" {
		title = raw.FallbackTitle()
	}

	return &driven.NormaliseResult{
		Title:  title,
		Text:   text,
		Format: "html",
	}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
}

// block elements start and end on their own line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true, atom.Main: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Figure: true,
	atom.Figcaption: true,
}

// extract returns the document title and its readable text.
func extract(content []byte) (string, string) {
	z := xhtml.NewTokenizer(bytes.NewReader(content))

	var (
		title   strings.Builder
		text    strings.Builder
		depth   int
		inTitle bool
	)
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			return collapse(title.String()), tidy(text.String())

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = tt == xhtml.StartTagToken
			case skipped[a]:
				if tt == xhtml.StartTagToken {
					depth++
				}
			case depth > 0:
			case a == atom.Br || a == atom.Hr || block[a]:
				text.WriteByte('\n')
			case a == atom.Td || a == atom.Th:
				text.WriteByte(' ')
			}

		case xhtml.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = false
			case skipped[a]:
				if depth > 0 {
					depth--
				}
			case depth == 0 && block[a]:
				text.WriteByte('\n')
			}

		case xhtml.TextToken:
			switch {
			case inTitle:
				title.Write(z.Text())
			case depth == 0:
				text.Write(z.Text())
			}
		}
	}
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tidy collapses whitespace within lines and drops empty lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// ExtractText returns the readable text of an HTML fragment or document.
func ExtractText(content []byte) string {
	_, text := extract(content)
	return text
}
