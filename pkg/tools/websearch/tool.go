package websearch

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/brightpath-labs/concierge/pkg/tools"
)

const (
	// maxConcurrentExtractions bounds parallel page scrapes per search.
	maxConcurrentExtractions = 5

	// maxContentChars caps extracted page text in the observation so a
	// single verbose page cannot drown the scratchpad.
	maxContentChars = 1500
)

// Tool exposes web search as an agent tool. Each run performs a Brave
// search and scrapes the result pages concurrently.
type Tool struct {
	client *Client
}

// NewTool wraps a search client as the web_search agent tool.
func NewTool(client *Client) *Tool {
	return &Tool{client: client}
}

func (t *Tool) Name() string { return "web_search" }

func (t *Tool) Description() string {
	return "Performs a web search for up-to-date information. " +
		`Input must be a JSON object with a "query" key.`
}

func (t *Tool) Run(ctx context.Context, input map[string]any) (string, error) {
	query, err := tools.StringParam(input, "query")
	if err != nil {
		return "", err
	}

	results, err := t.SearchAndExtract(ctx, query)
	if err != nil {
		return "", err
	}
	return FormatResults(query, results), nil
}

// Search runs the query without page extraction.
func (t *Tool) Search(ctx context.Context, query string) ([]Result, error) {
	return t.client.Search(ctx, query)
}

// SearchAndExtract runs the search and enriches each hit with the
// scraped page text. Extraction failures are logged and skipped; the
// hit keeps its summary.
func (t *Tool) SearchAndExtract(ctx context.Context, query string) ([]Result, error) {
	results, err := t.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtractions)

	for i := range results {
		if results[i].URL == "" {
			continue
		}
		g.Go(func() error {
			content, err := ExtractPageContent(gctx, t.client.httpClient, results[i].URL)
			if err != nil {
				t.client.logger.Warn("Page extraction failed", "url", results[i].URL, "error", err)
				return nil
			}
			results[i].ExtractedContent = content
			return nil
		})
	}

	// Extraction errors are swallowed above, so Wait only reports
	// group-context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FormatResults renders search hits as observation text for the
// agent scratchpad.
func FormatResults(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for %q.\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		}
		if r.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", r.Summary)
		}
		if r.ExtractedContent != "" {
			content := r.ExtractedContent
			if len(content) > maxContentChars {
				content = content[:maxContentChars] + "..."
			}
			fmt.Fprintf(&b, "   Content: %s\n", strings.ReplaceAll(content, "\n", " "))
		}
	}
	return b.String()
}
