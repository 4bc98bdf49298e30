// Package duckduckgo provides an evidence source backed by the DuckDuckGo
// Instant Answer API. It returns the topic abstract and related topics,
// not a full web result page.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/sources/ratelimit"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.EvidenceSource = (*Source)(nil)

// Name is the configuration name of this source.
const Name = "duckduckgo"

// Default configuration values.
const (
	DefaultBaseURL = "https://api.duckduckgo.com"
	DefaultTimeout = 10 * time.Second
	maxSummary     = 500
)

// Config holds configuration for the DuckDuckGo source.
type Config struct {
	// BaseURL is the API root (default: https://api.duckduckgo.com).
	BaseURL string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration

	// RatePerSecond throttles requests. Zero disables throttling.
	RatePerSecond float64
}

// Source queries the DuckDuckGo Instant Answer API.
type Source struct {
	client  *http.Client
	baseURL string
	limiter *ratelimit.Limiter
}

// New creates a DuckDuckGo source.
func New(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Source{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: ratelimit.New(cfg.RatePerSecond, 1),
	}
}

// Name returns "duckduckgo".
func (s *Source) Name() string {
	return Name
}

type instantAnswer struct {
	Heading        string  `json:"Heading"`
	AbstractText   string  `json:"AbstractText"`
	AbstractURL    string  `json:"AbstractURL"`
	AbstractSource string  `json:"AbstractSource"`
	Answer         string  `json:"Answer"`
	Definition     string  `json:"Definition"`
	DefinitionURL  string  `json:"DefinitionURL"`
	RelatedTopics  []topic `json:"RelatedTopics"`
}

// topic is either a result or a named group of results.
type topic struct {
	Text     string  `json:"Text"`
	FirstURL string  `json:"FirstURL"`
	Name     string  `json:"Name"`
	Topics   []topic `json:"Topics"`
}

// Search returns up to limit results: the abstract first, then the definition,
// then related topics. Results without a title or URL are dropped.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]domain.Evidence, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: %v", domain.ErrSourceUnavailable, err)
	}

	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"no_redirect":   {"1"},
		"skip_disambig": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if s.limiter.Observe(resp) {
		return nil, fmt.Errorf("%w: duckduckgo", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: duckduckgo status %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: decode response: %v", domain.ErrSourceUnavailable, err)
	}

	return collect(answer, limit), nil
}

func collect(answer instantAnswer, limit int) []domain.Evidence {
	var results []domain.Evidence
	seen := make(map[string]bool)
	add := func(title, link, summary string) {
		title = strings.TrimSpace(title)
		link = strings.TrimSpace(link)
		summary = strings.TrimSpace(summary)
		if title == "" || link == "" || summary == "" || seen[link] || len(results) >= limit {
			return
		}
		seen[link] = true
		results = append(results, domain.Evidence{
			Source:  Name,
			Title:   title,
			URL:     link,
			Summary: truncate(summary, maxSummary),
		})
	}

	add(answer.Heading, answer.AbstractURL, answer.AbstractText)
	add(answer.Heading, answer.DefinitionURL, answer.Definition)

	var walk func(topics []topic)
	walk = func(topics []topic) {
		for _, t := range topics {
			if len(t.Topics) > 0 {
				walk(t.Topics)
				continue
			}
			add(topicTitle(t), t.FirstURL, t.Text)
		}
	}
	walk(answer.RelatedTopics)

	return results
}

// topicTitle derives a title from the topic URL, falling back to the
// leading words of its text.
func topicTitle(t topic) string {
	if u, err := url.Parse(t.FirstURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			if unescaped, err := url.PathUnescape(base); err == nil {
				base = unescaped
			}
			return strings.ReplaceAll(base, "_", " ")
		}
	}
	if i := strings.Index(t.Text, " - "); i > 0 {
		return t.Text[:i]
	}
	return t.Text
}

func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}
