// Package websearch provides the web_search tool: Brave Search API
// lookups with optional concurrent page-content extraction.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultSearchURL = "https://api.search.brave.com/res/v1/web/search"

// Result is a single web search hit, optionally enriched with the
// scraped page text.
type Result struct {
	Title            string `json:"title"`
	URL              string `json:"url,omitempty"`
	Summary          string `json:"summary"`
	ExtractedContent string `json:"extracted_content,omitempty"`
}

// Client calls the Brave Search API.
type Client struct {
	httpClient *http.Client
	searchURL  string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a Brave Search client. apiKey must not be empty.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		searchURL:  defaultSearchURL,
		apiKey:     apiKey,
		logger:     slog.Default(),
	}
}

// braveResponse mirrors the subset of the Brave API response we use.
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs a query against the Brave Search API and returns the
// raw hits without page extraction.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := c.searchURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Subscription-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned HTTP %d for %q", resp.StatusCode, query)
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		title := r.Title
		if title == "" {
			title = "No Title"
		}
		results = append(results, Result{
			Title:   title,
			URL:     r.URL,
			Summary: r.Description,
		})
	}

	if len(results) == 0 {
		c.logger.Info("No results found", "query", query)
	}
	return results, nil
}
