package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"

	// maxPartBytes bounds how much of one archive member is decompressed.
	maxPartBytes = 64 << 20
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise extracts the paragraph text of a DOCX document, including
// paragraphs inside tables. The title comes from the core properties.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return nil, err
	}
	text, err := paragraphText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, documentPart, err)
	}

	title := coreTitle(reader)
	if title == "" {
		title = raw.FallbackTitle()
	}

	return &driven.NormaliseResult{
		Title:  title,
		Text:   text,
		Format: "docx",
	}, nil
}

// readPart returns the contents of the named archive member, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	f, err := reader.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrInvalidInput, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPartBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidInput, name, err)
	}
	return data, nil
}

// paragraphText streams the document XML, writing the text runs of each
// paragraph on its own line. Tabs and breaks inside runs are kept.
func paragraphText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimRight(line, " \t"); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// coreTitle returns the title from the core properties, if any.
func coreTitle(reader *zip.Reader) string {
	data, err := readPart(reader, corePart)
	if err != nil || len(data) == 0 {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
