package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

const answerResponse = `{
  "Heading": "Eiffel Tower",
  "AbstractText": "The Eiffel Tower is a wrought-iron lattice tower on the Champ de Mars in Paris, completed in 1889.",
  "AbstractURL": "https://en.wikipedia.org/wiki/Eiffel_Tower",
  "RelatedTopics": [
    {"Text": "Gustave Eiffel - French civil engineer.", "FirstURL": "https://duckduckgo.com/Gustave_Eiffel"},
    {"Name": "Places", "Topics": [
      {"Text": "Champ de Mars - Public green space in Paris.", "FirstURL": "https://duckduckgo.com/Champ_de_Mars"},
      {"Text": "duplicate", "FirstURL": "https://duckduckgo.com/Gustave_Eiffel"}
    ]},
    {"Text": "", "FirstURL": "https://duckduckgo.com/Empty"}
  ]
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL})
}

func TestSource_Search(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eiffel tower", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("no_html"))
		_, _ = w.Write([]byte(answerResponse))
	})

	results, err := src.Search(context.Background(), "eiffel tower", 5)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, domain.Evidence{
		Source:  "duckduckgo",
		Title:   "Eiffel Tower",
		URL:     "https://en.wikipedia.org/wiki/Eiffel_Tower",
		Summary: "The Eiffel Tower is a wrought-iron lattice tower on the Champ de Mars in Paris, completed in 1889.",
	}, results[0])
	assert.Equal(t, "Gustave Eiffel", results[1].Title)
	assert.Equal(t, "Champ de Mars", results[2].Title)
}

func TestSource_SearchRespectsLimit(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(answerResponse))
	})

	results, err := src.Search(context.Background(), "eiffel", 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Eiffel Tower", results[0].Title)
}

func TestSource_SearchEmptyAnswer(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Heading":"","AbstractText":"","RelatedTopics":[]}`))
	})

	results, err := src.Search(context.Background(), "qwxzzy", 3)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSource_SearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, "bad gateway", domain.ErrSourceUnavailable},
		{"rate limited", http.StatusTooManyRequests, "", domain.ErrRateLimited},
		{"malformed", http.StatusOK, "<html>", domain.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := src.Search(context.Background(), "tower", 3)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSource_SearchBlankQuery(t *testing.T) {
	src := New(Config{BaseURL: "http://127.0.0.1:1"})

	results, err := src.Search(context.Background(), "", 3)

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestTopicTitle(t *testing.T) {
	assert.Equal(t, "Café de Flore", topicTitle(topic{FirstURL: "https://duckduckgo.com/Caf%C3%A9_de_Flore"}))
	assert.Equal(t, "Some topic", topicTitle(topic{Text: "Some topic - details"}))
	assert.Equal(t, "plain", topicTitle(topic{Text: "plain"}))
}
