package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
	assert.Len(t, mimeTypes, 2)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/path/to/document.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Hello World\n\nThis is a test."),
	}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", result.Title)
	assert.Equal(t, "Hello World\n\nThis is a test.", result.Text)
	assert.Equal(t, "markdown", result.Format)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		uri           string
		expectedTitle string
	}{
		{
			name:          "H1 heading",
			content:       "# My Document\n\nContent here.",
			uri:           "/doc.md",
			expectedTitle: "My Document",
		},
		{
			name:          "H1 with extra spaces",
			content:       "#   Spaced Title   \n\nContent",
			uri:           "/doc.md",
			expectedTitle: "Spaced Title",
		},
		{
			name:          "front matter wins over heading",
			content:       "---\ntitle: \"Eiffel Tower\"\nauthor: guide\n---\n# Overview\n\nBody",
			uri:           "/doc.md",
			expectedTitle: "Eiffel Tower",
		},
		{
			name:          "no heading - fallback to filename",
			content:       "Just some content without heading.",
			uri:           "/my_document.md",
			expectedTitle: "my document",
		},
		{
			name:          "H2 first - fallback to filename",
			content:       "## Second Level\n\nNo H1.",
			uri:           "/readme.md",
			expectedTitle: "readme",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawDocument{URI: tc.uri, MIMEType: "text/markdown", Content: []byte(tc.content)}

			result, err := New().Normalise(context.Background(), raw)

			require.NoError(t, err)
			assert.Equal(t, tc.expectedTitle, result.Title)
		})
	}
}

func TestSplitFrontMatter(t *testing.T) {
	rest, title := splitFrontMatter("---\ntitle: Eiffel Tower\n---\nBody text")
	assert.Equal(t, "Body text", rest)
	assert.Equal(t, "Eiffel Tower", title)

	rest, title = splitFrontMatter("---\nunterminated")
	assert.Equal(t, "---\nunterminated", rest)
	assert.Empty(t, title)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "headings removed",
			input:    "# Title\n## Subtitle\n### Third",
			expected: "Title\nSubtitle\nThird",
		},
		{
			name:     "bold removed",
			input:    "This is **bold** text",
			expected: "This is bold text",
		},
		{
			name:     "italic removed",
			input:    "This is *italic* text",
			expected: "This is italic text",
		},
		{
			name:     "identifiers keep underscores",
			input:    "Call snake_case_name here",
			expected: "Call snake_case_name here",
		},
		{
			name:     "links converted",
			input:    "Click [here](https://example.com)",
			expected: "Click here",
		},
		{
			name:     "images keep alt text",
			input:    "See ![alt text](image.png) here",
			expected: "See alt text here",
		},
		{
			name:     "code fences removed, code kept",
			input:    "Before\n```go\ncode here\n```\nAfter",
			expected: "Before\n\ncode here\n\nAfter",
		},
		{
			name:     "inline code unwrapped",
			input:    "Use `code` here",
			expected: "Use code here",
		},
		{
			name:     "blockquotes cleaned",
			input:    "> This is a quote",
			expected: "This is a quote",
		},
		{
			name:     "list markers removed",
			input:    "- Item 1\n- Item 2",
			expected: "Item 1\nItem 2",
		},
		{
			name:     "numbered list markers removed",
			input:    "1. First\n2. Second",
			expected: "First\nSecond",
		},
		{
			name:     "tables flattened",
			input:    "| Column 1 | Column 2 |\n|----------|----------|\n| Data 1   | Data 2   |",
			expected: "Column 1  Column 2\n\nData 1  Data 2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestNormalise_ComplexMarkdown(t *testing.T) {
	complexMarkdown := `# Main Title

## Section 1

This is a paragraph with **bold** and *italic* text.

- List item 1
- List item 2

---

` + "```go" + `
fmt.Println("Hello, World!")
` + "```" + `

[Link](https://example.com)
`

	raw := &domain.RawDocument{URI: "/path/complex.md", MIMEType: "text/markdown", Content: []byte(complexMarkdown)}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Main Title", result.Title)
	assert.NotContains(t, result.Text, "**bold**")
	assert.Contains(t, result.Text, "bold")
	assert.NotContains(t, result.Text, "[Link]")
	assert.Contains(t, result.Text, "Link")
	assert.NotContains(t, result.Text, "```")
	assert.NotContains(t, result.Text, "---")
	assert.Contains(t, result.Text, `fmt.Println("Hello, World!")`)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}
