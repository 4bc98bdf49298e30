package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-context/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxDepth bounds multipart nesting.
const maxDepth = 8

// Normaliser handles EML (email) documents.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise converts an email into text: the From, To, Date and Subject
// headers followed by the body. Plain text parts are preferred over HTML.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: not an email: %v", domain.ErrInvalidInput, err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))

	var text strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&text, "%s: %s\n", h, v)
		}
	}
	text.WriteString("\n")
	text.WriteString(extractBody(textproto.MIMEHeader(msg.Header), msg.Body, 0))

	title := subject
	if title == "" {
		title = raw.FallbackTitle()
	}

	return &driven.NormaliseResult{
		Title:  title,
		Text:   strings.TrimSpace(text.String()),
		Format: "eml",
	}, nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractBody returns the text of one message part. Unreadable parts and
// attachments yield no text rather than failing the whole message.
func extractBody(header textproto.MIMEHeader, body io.Reader, depth int) string {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return ""
		}
		return extractMultipart(multipart.NewReader(body, params["boundary"]), depth+1)
	}

	content, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return ""
	}

	switch mediaType {
	case "text/html":
		return html.ExtractText(content)
	case "text/plain":
		return strings.TrimSpace(string(content))
	default:
		return ""
	}
}

// extractMultipart joins the text of the parts of a multipart body.
func extractMultipart(mr *multipart.Reader, depth int) string {
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		if isAttachment(part.Header) {
			part.Close()
			continue
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		text := extractBody(part.Header, part, depth)
		part.Close()
		if text == "" {
			continue
		}
		if mediaType == "text/html" {
			htmlParts = append(htmlParts, text)
		} else {
			textParts = append(textParts, text)
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n")
	}
	return strings.Join(htmlParts, "\n")
}

func isAttachment(header textproto.MIMEHeader) bool {
	disposition, _, err := mime.ParseMediaType(header.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

// decodeTransfer undoes base64 and quoted-printable transfer encodings.
// multipart.Reader already decodes quoted-printable parts itself.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
