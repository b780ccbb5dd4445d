// Package casestudy provides the case_studies_search tool: a
// domain-scoped search for customer case studies about a specific
// company, combining company-name extraction, a pre-search for the
// company's domain, and LLM-generated search queries.
package casestudy

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/brightpath-labs/concierge/pkg/tools"
	"github.com/brightpath-labs/concierge/pkg/tools/websearch"
)

// defaultDomain is searched when no company can be extracted from
// the prompt.
const defaultDomain = "bloomreach.com"

// companyPattern captures a run of capitalized words following a
// linking preposition, e.g. "a case study from Google Cloud".
var companyPattern = regexp.MustCompile(`(?:at|from|for|with)\s+([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*)*)`)

// knownDomains maps company names whose primary domain is not simply
// name.com.
var knownDomains = map[string]string{
	"google cloud":        "cloud.google.com",
	"aws":                 "aws.amazon.com",
	"amazon web services": "aws.amazon.com",
	"azure":               "azure.microsoft.com",
}

// noiseDomains are excluded from the domain consensus: they rank high
// for almost any company name but are never the company's own site.
var noiseDomains = []string{
	"youtube.com",
	"wikipedia.org",
	"linkedin.com",
	"facebook.com",
	"twitter.com",
}

const queryPrompt = `Based on the following user request, generate a concise and effective search query to find a relevant case study.
The query should be just a few keywords. Do not include 'site:' or the company name in your query.

User Request: %q

Search Query:
`

// LLM generates search queries from user prompts. Satisfied by the
// llm package's client.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Searcher is the slice of the web search tool this package needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
	SearchAndExtract(ctx context.Context, query string) ([]websearch.Result, error)
}

// Tool implements the case_studies_search agent tool.
type Tool struct {
	searcher Searcher
	llm      LLM
	logger   *slog.Logger
}

// NewTool creates the case study search tool.
func NewTool(searcher Searcher, llm LLM) *Tool {
	return &Tool{
		searcher: searcher,
		llm:      llm,
		logger:   slog.Default(),
	}
}

func (t *Tool) Name() string { return "case_studies_search" }

func (t *Tool) Description() string {
	return "Searches for case studies about a specific company. " +
		`Input must be a JSON object with a "user_prompt" key.`
}

func (t *Tool) Run(ctx context.Context, input map[string]any) (string, error) {
	userPrompt, err := tools.StringParam(input, "user_prompt")
	if err != nil {
		return "", err
	}

	targetDomain := t.resolveDomain(ctx, userPrompt)

	query, err := t.generateQuery(ctx, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate search query: %w", err)
	}

	scoped := fmt.Sprintf("%s site:%s", query, targetDomain)
	t.logger.Info("Scoped case study query", "query", scoped)

	results, err := t.searcher.SearchAndExtract(ctx, scoped)
	if err != nil {
		return "", err
	}

	// Keep only hits actually on the target domain.
	filtered := results[:0]
	for _, r := range results {
		if r.URL != "" && strings.Contains(r.URL, targetDomain) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		t.logger.Warn("No case studies found", "domain", targetDomain, "query", scoped)
	}
	return websearch.FormatResults(scoped, filtered), nil
}

// resolveDomain picks the domain to scope the search to: company from
// the prompt → consensus from a pre-search → naive .com guess →
// default.
func (t *Tool) resolveDomain(ctx context.Context, userPrompt string) string {
	company, ok := ExtractCompany(userPrompt)
	if !ok {
		t.logger.Info("No company in prompt, using default domain", "domain", defaultDomain)
		return defaultDomain
	}

	if domain, err := t.findCompanyDomain(ctx, company); err == nil && domain != "" {
		return domain
	}
	t.logger.Warn("Domain pre-search failed, falling back to guess", "company", company)
	return GuessDomain(company)
}

// generateQuery asks the LLM for a few search keywords based on the
// user's request.
func (t *Tool) generateQuery(ctx context.Context, userPrompt string) (string, error) {
	raw, err := t.llm.Complete(ctx, fmt.Sprintf(queryPrompt, userPrompt))
	if err != nil {
		return "", err
	}
	query := strings.ReplaceAll(strings.TrimSpace(raw), `"`, "")
	if query == "" {
		return "", fmt.Errorf("empty query from LLM")
	}
	t.logger.Info("Generated search query", "query", query)
	return query, nil
}

// findCompanyDomain searches for the bare company name and takes the
// most common non-noise domain among the top results.
func (t *Tool) findCompanyDomain(ctx context.Context, company string) (string, error) {
	results, err := t.searcher.Search(ctx, company)
	if err != nil {
		return "", err
	}

	counts := make(map[string]int)
	var order []string
	for i, r := range results {
		if i >= 5 {
			break
		}
		domain := baseDomain(r.URL)
		if domain == "" || isNoiseDomain(domain) {
			continue
		}
		if counts[domain] == 0 {
			order = append(order, domain)
		}
		counts[domain]++
	}
	if len(order) == 0 {
		return "", fmt.Errorf("no usable domains in pre-search for %q", company)
	}

	best := order[0]
	for _, domain := range order[1:] {
		if counts[domain] > counts[best] {
			best = domain
		}
	}
	t.logger.Info("Consensus domain", "company", company, "domain", best)
	return best, nil
}

// ExtractCompany pulls a company name out of a user prompt, looking
// for capitalized words after "at", "from", "for" or "with".
func ExtractCompany(prompt string) (string, bool) {
	match := companyPattern.FindStringSubmatch(prompt)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

// GuessDomain derives a domain from a company name or URL. Known
// exceptions are checked first; bare names become name.com.
func GuessDomain(company string) string {
	lower := strings.ToLower(strings.TrimSpace(company))
	if domain, ok := knownDomains[lower]; ok {
		return domain
	}

	if strings.HasPrefix(company, "http://") || strings.HasPrefix(company, "https://") {
		company = strings.SplitN(company, "//", 2)[1]
	}
	company = strings.SplitN(company, "/", 2)[0]
	company = strings.TrimPrefix(strings.ToLower(company), "www.")

	if !strings.Contains(company, ".") {
		return strings.ReplaceAll(company, " ", "") + ".com"
	}
	return company
}

// baseDomain returns the host part of a URL, or "" if unparseable.
func baseDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func isNoiseDomain(domain string) bool {
	for _, noise := range noiseDomains {
		if strings.Contains(domain, noise) {
			return true
		}
	}
	return false
}
