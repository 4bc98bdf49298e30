package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

const searchResponse = `{
  "query": {
    "pages": {
      "200": {"pageid": 200, "title": "Paris", "index": 2,
              "extract": "Paris is the capital of France.", "fullurl": "https://en.wikipedia.org/wiki/Paris"},
      "100": {"pageid": 100, "title": "Eiffel Tower", "index": 1,
              "extract": "The Eiffel Tower is a wrought-iron lattice tower in Paris. It was completed in 1889.",
              "fullurl": "https://en.wikipedia.org/wiki/Eiffel_Tower"},
      "300": {"pageid": 300, "title": "Eiffel (disambiguation)", "index": 3,
              "extract": "Eiffel may refer to:", "pageprops": {"disambiguation": ""}},
      "400": {"pageid": 400, "title": "Empty", "index": 4, "extract": ""}
    }
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL})
}

func TestSource_Name(t *testing.T) {
	assert.Equal(t, "wikipedia", New(Config{}).Name())
}

func TestSource_Search(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/w/api.php", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "search", q.Get("generator"))
		assert.Equal(t, "eiffel tower", q.Get("gsrsearch"))
		assert.Equal(t, "4", q.Get("gsrlimit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(searchResponse))
	})

	results, err := src.Search(context.Background(), "eiffel tower", 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Eiffel Tower", results[0].Title)
	assert.Equal(t, "wikipedia", results[0].Source)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Eiffel_Tower", results[0].URL)
	assert.Contains(t, results[0].Summary, "1889")
	assert.Equal(t, "Paris", results[1].Title)
}

func TestSource_SearchSkipsDisambiguationAndEmpty(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchResponse))
	})

	results, err := src.Search(context.Background(), "eiffel", 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotContains(t, r.Title, "disambiguation")
		assert.NotEmpty(t, r.Summary)
	}
}

func TestSource_SearchTruncatesSummary(t *testing.T) {
	long := strings.Repeat("tower ", 200)
	src := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"title":"Long","index":1,"extract":"` + long + `"}}}}`))
	})

	results, err := src.Search(context.Background(), "tower", 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, []rune(results[0].Summary), DefaultMaxSummary)
	assert.True(t, strings.HasSuffix(results[0].Summary, "..."))
	assert.Contains(t, results[0].URL, "/wiki/Long")
}

func TestSource_SearchBlankQuery(t *testing.T) {
	src := newTestServer(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	results, err := src.Search(context.Background(), "   ", 3)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSource_SearchNoResults(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"batchcomplete":""}`))
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
		{"server error", http.StatusInternalServerError, "boom", domain.ErrSourceUnavailable},
		{"rate limited", http.StatusTooManyRequests, "", domain.ErrRateLimited},
		{"api error", http.StatusOK, `{"error":{"code":"badparam","info":"bad"}}`, domain.ErrSourceUnavailable},
		{"malformed", http.StatusOK, `{`, domain.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := src.Search(context.Background(), "tower", 3)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSource_SearchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	_, err := New(Config{BaseURL: base}).Search(context.Background(), "tower", 3)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
