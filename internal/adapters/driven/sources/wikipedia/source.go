// Package wikipedia provides an evidence source backed by the MediaWiki search API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/sources/ratelimit"
	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.EvidenceSource = (*Source)(nil)

// Name is the configuration name of this source.
const Name = "wikipedia"

// Default configuration values.
const (
	DefaultBaseURL    = "https://en.wikipedia.org"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxSummary = 500
	userAgent         = "sercha-context/1.0 (https://github.com/custodia-labs/sercha-context)"
)

// Config holds configuration for the Wikipedia source.
type Config struct {
	// BaseURL is the wiki root (default: https://en.wikipedia.org).
	BaseURL string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration

	// RatePerSecond throttles requests. Zero disables throttling.
	RatePerSecond float64

	// MaxSummary caps the extract length in characters (default: 500).
	MaxSummary int
}

// Source searches Wikipedia and returns article intros as evidence.
type Source struct {
	client     *http.Client
	baseURL    string
	maxSummary int
	limiter    *ratelimit.Limiter
}

// New creates a Wikipedia source.
func New(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxSummary <= 0 {
		cfg.MaxSummary = DefaultMaxSummary
	}

	return &Source{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxSummary: cfg.MaxSummary,
		limiter:    ratelimit.New(cfg.RatePerSecond, 1),
	}
}

// Name returns "wikipedia".
func (s *Source) Name() string {
	return Name
}

// queryResponse is the subset of the MediaWiki query API used here.
type queryResponse struct {
	Query struct {
		Pages map[string]page `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

type page struct {
	PageID  int    `json:"pageid"`
	Title   string `json:"title"`
	Index   int    `json:"index"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`

	PageProps map[string]string `json:"pageprops,omitempty"`
}

// Search returns up to limit article intros matching query, in search rank order.
// Disambiguation pages and pages without an extract are skipped.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]domain.Evidence, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: wikipedia: %v", domain.ErrSourceUnavailable, err)
	}

	// Over-fetch so skipped pages still leave limit results.
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"generator":   {"search"},
		"gsrsearch":   {query},
		"gsrlimit":    {strconv.Itoa(limit * 2)},
		"prop":        {"extracts|info|pageprops"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"exlimit":     {"max"},
		"inprop":      {"url"},
		"ppprop":      {"disambiguation"},
		"redirects":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/w/api.php?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: wikipedia: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if s.limiter.Observe(resp) {
		return nil, fmt.Errorf("%w: wikipedia", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: wikipedia status %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: wikipedia: decode response: %v", domain.ErrSourceUnavailable, err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("%w: wikipedia: %s", domain.ErrSourceUnavailable, decoded.Error.Info)
	}

	pages := make([]page, 0, len(decoded.Query.Pages))
	for _, p := range decoded.Query.Pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	results := make([]domain.Evidence, 0, limit)
	for _, p := range pages {
		extract := strings.TrimSpace(p.Extract)
		if _, disambiguation := p.PageProps["disambiguation"]; disambiguation {
			continue
		}
		if extract == "" || isDisambiguation(extract) {
			continue
		}
		link := p.FullURL
		if link == "" {
			link = s.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(p.Title, " ", "_"))
		}
		results = append(results, domain.Evidence{
			Source:  Name,
			Title:   p.Title,
			URL:     link,
			Summary: truncate(extract, s.maxSummary),
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// isDisambiguation detects disambiguation intros by their stock phrasing.
func isDisambiguation(extract string) bool {
	lower := strings.ToLower(extract)
	return strings.Contains(lower, "may refer to:") || strings.Contains(lower, "may also refer to:")
}

// truncate cuts text to n runes, marking the cut with an ellipsis.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
