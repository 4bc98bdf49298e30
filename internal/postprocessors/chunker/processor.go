// Package chunker provides a recursive, separator-aware text splitting processor.
package chunker

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Separators are tried in order. A piece longer than the chunk size is split
// again with the separators that follow the one that produced it.
// The empty separator splits between characters.
var Separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ": ", ", ", " ", ""}

var manyNewlines = regexp.MustCompile(`\n{3,}`)

// Processor splits document text into chunks close to the target size.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the cleaned document text into chunks.
// Input chunks are ignored; this processor creates new chunks from the document text.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	content := Clean(doc.RawText)
	if content == "" {
		return nil, nil
	}

	pieces := p.merge(p.split(content, 0, Separators))
	chunks := make([]domain.Chunk, 0, len(pieces))

	for i, pc := range pieces {
		text := pc.text
		if i > 0 {
			if tail := overlapTail(pieces[i-1].text, p.overlap); tail != "" {
				text = tail + " " + text
			}
		}
		chunks = append(chunks, domain.Chunk{
			ID:     i,
			Text:   text,
			Length: utf8.RuneCountInString(text),
			Offset: pc.offset,
		})
	}

	return chunks, nil
}

// Clean collapses runs of whitespace within each line and
// reduces three or more consecutive newlines to a paragraph break.
func Clean(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	cleaned := manyNewlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(cleaned)
}

// piece is a span of the cleaned text and its character offset.
type piece struct {
	text   string
	offset int
}

// split breaks text into pieces no longer than the chunk size.
// Separators stay attached to the end of the piece before them.
func (p *Processor) split(text string, offset int, seps []string) []piece {
	if utf8.RuneCountInString(text) <= p.chunkSize {
		return []piece{{text: text, offset: offset}}
	}

	for i, sep := range seps {
		if sep == "" {
			return splitRunes(text, offset, p.chunkSize)
		}
		if !strings.Contains(text, sep) {
			continue
		}

		var out []piece
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			n := utf8.RuneCountInString(part)
			if n > p.chunkSize {
				out = append(out, p.split(part, offset, seps[i+1:])...)
			} else {
				out = append(out, piece{text: part, offset: offset})
			}
			offset += n
		}
		return out
	}

	return splitRunes(text, offset, p.chunkSize)
}

func splitRunes(text string, offset, size int) []piece {
	runes := []rune(text)
	out := make([]piece, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, piece{text: string(runes[start:end]), offset: offset + start})
	}
	return out
}

// merge greedily joins adjacent pieces while they fit in the chunk size.
func (p *Processor) merge(pieces []piece) []piece {
	var (
		out    []piece
		cur    strings.Builder
		curLen int
		curOff int
	)

	flush := func() {
		raw := cur.String()
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := utf8.RuneCountInString(raw) - utf8.RuneCountInString(strings.TrimLeftFunc(raw, unicode.IsSpace))
			out = append(out, piece{text: trimmed, offset: curOff + lead})
		}
		cur.Reset()
		curLen = 0
	}

	for _, pc := range pieces {
		n := utf8.RuneCountInString(pc.text)
		if curLen > 0 && curLen+n > p.chunkSize {
			flush()
		}
		if curLen == 0 {
			curOff = pc.offset
		}
		cur.WriteString(pc.text)
		curLen += n
	}
	flush()

	return out
}

// overlapTail returns at most n trailing characters of prev, starting on a word boundary.
func overlapTail(prev string, n int) string {
	runes := []rune(prev)
	if n <= 0 || len(runes) == 0 {
		return ""
	}
	if n >= len(runes) {
		return prev
	}

	start := len(runes) - n
	tail := runes[start:]
	if !unicode.IsSpace(runes[start-1]) {
		i := indexSpace(tail)
		if i < 0 {
			return ""
		}
		tail = tail[i+1:]
	}
	return strings.TrimSpace(string(tail))
}

func indexSpace(runes []rune) int {
	for i, r := range runes {
		if unicode.IsSpace(r) {
			return i
		}
	}
	return -1
}
