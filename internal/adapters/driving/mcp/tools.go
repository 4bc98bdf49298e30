package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not configured")

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question      string `json:"question" jsonschema:"the question to answer"`
	DocumentID    string `json:"document_id,omitempty" jsonschema:"answer from this uploaded document; empty searches external sources"`
	AllowExternal bool   `json:"allow_external,omitempty" jsonschema:"fall back to external sources when the document has nothing relevant"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string          `json:"answer"`
	Grounded  bool            `json:"grounded"`
	State     string          `json:"state"`
	Source    string          `json:"source,omitempty"`
	Verdict   string          `json:"verdict"`
	Evidence  []EvidenceChunk `json:"evidence,omitempty"`
	Citations []Citation      `json:"citations,omitempty"`
	Reasons   []string        `json:"reasons,omitempty"`
}

// EvidenceChunk is one chunk the answer was produced from.
type EvidenceChunk struct {
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
}

// Citation links an external source behind the answer.
type Citation struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Title string `json:"title,omitempty" jsonschema:"display name for the document"`
	Text  string `json:"text" jsonschema:"the document text"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string               `json:"document_id"`
	Chunks     int                  `json:"chunks"`
	Stats      domain.DocumentStats `json:"stats"`
	Warning    string               `json:"warning,omitempty"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []domain.DocumentSummary `json:"documents"`
	Count     int                      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from an uploaded document or external sources. " +
			"The answer is verified against the evidence; unsupported answers are refused.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Upload document text so questions can be asked about it",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents",
	}, s.handleListDocuments)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, domain.Question{
		Text:          input.Question,
		DocumentID:    input.DocumentID,
		AllowExternal: input.AllowExternal,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, toAskOutput(answer), nil
}

func toAskOutput(a *domain.VerifiedAnswer) AskOutput {
	out := AskOutput{
		Answer:   a.Text,
		Grounded: a.Grounded,
		State:    a.State.String(),
		Source:   a.Source,
		Verdict:  string(a.Verdict),
		Reasons:  a.Reasons,
	}
	for _, c := range a.Evidence {
		out.Evidence = append(out.Evidence, EvidenceChunk{ChunkID: c.ID, Text: c.Text})
	}
	for _, c := range a.Citations {
		out.Citations = append(out.Citations, Citation{Source: c.Source, Title: c.Title, URL: c.URL})
	}
	return out
}

// handleIngest handles the ingest tool invocation. A document that was
// stored but not indexed is reported with a warning, not an error.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Document == nil {
		return nil, IngestOutput{}, errNoDocumentService
	}

	doc, err := s.ports.Document.Upload(ctx, driving.UploadRequest{Title: input.Title, Text: input.Text})
	if doc == nil {
		return nil, IngestOutput{}, err
	}

	out := IngestOutput{
		DocumentID: doc.ID,
		Chunks:     len(doc.Chunks),
		Stats:      doc.Stats,
	}
	if err != nil {
		out.Warning = err.Error()
	}
	return nil, out, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{}, errNoDocumentService
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}
