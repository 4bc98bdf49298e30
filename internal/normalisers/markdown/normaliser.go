package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts markdown to plain text. Formatting is removed but the
// text of code blocks, links and image alt text is kept.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, frontTitle := splitFrontMatter(string(raw.Content))

	title := frontTitle
	if title == "" {
		title = firstHeading(content)
	}
	if title == "" {
		title = raw.FallbackTitle()
	}

	return &driven.NormaliseResult{
		Title:  title,
		Text:   stripMarkdown(content),
		Format: "markdown",
	}, nil
}

var (
	codeFence     = regexp.MustCompile("(?m)^[ \t]*(```|~~~).*$")
	inlineCode    = regexp.MustCompile("`([^`\n]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headings      = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	hrule         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	tableRule     = regexp.MustCompile(`(?m)^[ \t]*\|?([ \t]*:?-{3,}:?[ \t]*\|)+[ \t]*(:?-{3,}:?)?[ \t]*$`)
	tablePipes    = regexp.MustCompile(`[ \t]*\|[ \t]*`)
	strong        = regexp.MustCompile(`(\*\*|__)([^*_\n]+)(\*\*|__)`)
	emphasis      = regexp.MustCompile(`(^|[\s(])[*_]([^*_\n]+)[*_]`)
	blockquote    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	listMarkers   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList  = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// splitFrontMatter removes a leading YAML front matter block and returns
// the remaining content and any title it declared.
func splitFrontMatter(content string) (string, string) {
	if !strings.HasPrefix(content, "---\n") {
		return content, ""
	}
	end := strings.Index(content[4:], "\n---")
	if end < 0 {
		return content, ""
	}
	front := content[4 : 4+end]
	rest := strings.TrimLeft(content[4+end+4:], "-\n")

	for _, line := range strings.Split(front, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == "title" {
			return rest, strings.Trim(strings.TrimSpace(value), `"'`)
		}
	}
	return rest, ""
}

// firstHeading returns the text of the first level one heading.
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// stripMarkdown removes common markdown formatting.
func stripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = hrule.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Count(line, "|") >= 2 {
			lines[i] = strings.TrimSpace(tablePipes.ReplaceAllString(strings.Trim(strings.TrimSpace(line), "|"), "  "))
		}
	}
	content = strings.Join(lines, "\n")

	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1$2")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
