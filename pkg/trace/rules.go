package trace

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The classifier is a table of named pattern rules evaluated in a fixed
// priority order: final-answer onset, step marker, progress heuristic,
// continuation. Keeping the rules in tables (rather than inline conditionals)
// is what makes them testable and extensible.

// markerRule maps a line prefix to the step kind it opens. Decorated variants
// come first so the plain token never shadows them.
type markerRule struct {
	prefix string
	kind   StepKind
}

var markerRules = []markerRule{
	{"🤔 **Thinking:**", StepThought},
	{"**Thinking:**", StepThought},
	{"Thought:", StepThought},
	{"🔧 **Action:**", StepAction},
	{"**Action:**", StepAction},
	{"Action:", StepAction},
	{"📝 **Observation:**", StepObservation},
	{"**Observation:**", StepObservation},
	{"Observation:", StepObservation},
	{"❌ **Error:**", StepError},
	{"**Error:**", StepError},
	{"Error:", StepError},
}

// finalMarkerPrefixes open the final-answer section; the prefix itself is
// stripped from the captured content.
var finalMarkerPrefixes = []string{
	"✅ **Final Answer:**",
	"**Final Answer:**",
	"Final Answer:",
}

// finalOnsetPhrases are summary-style openers that also end the structured
// section. Unlike the explicit markers, the phrase stays part of the answer.
var finalOnsetPhrases = []string{
	"Based on my research",
	"Based on the information",
	"Based on what I found",
	"In summary",
	"To summarize",
	"Here's what I found",
	"Here is what I found",
}

// classifyMarker reports whether the trimmed line starts a new step, and if
// so which kind, with the marker prefix stripped from the returned content.
func classifyMarker(line string) (StepKind, string, bool) {
	for _, rule := range markerRules {
		if strings.HasPrefix(line, rule.prefix) {
			return rule.kind, strings.TrimSpace(line[len(rule.prefix):]), true
		}
	}
	return "", "", false
}

// classifyFinalOnset reports whether the trimmed line opens the final-answer
// section, returning the initial answer content.
func classifyFinalOnset(line string) (string, bool) {
	for _, prefix := range finalMarkerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	for _, phrase := range finalOnsetPhrases {
		if strings.HasPrefix(line, phrase) {
			return line, true
		}
	}
	return "", false
}

// bareMarkerKind reports whether the transcript tail is exactly a step marker
// with nothing after it — the "step just opened, no content yet" condition.
func bareMarkerKind(tail string) (StepKind, bool) {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return "", false
	}
	for _, rule := range markerRules {
		if tail == rule.prefix {
			return rule.kind, true
		}
	}
	return "", false
}

// Raw tool-call JSON leaking into the transcript is filtered, never rendered.
var (
	quotedKVPattern  = regexp.MustCompile(`"[\w-]+"\s*:`)
	payloadKeyNames  = []string{`"tool_name"`, `"tool_input"`, `'tool_name'`, `'tool_input'`}
	codeFencePattern = regexp.MustCompile("^```(json)?\\s*$")
)

// looksLikeToolPayload reports whether text is structural JSON rather than
// narrative — a leaked tool-call payload.
func looksLikeToolPayload(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	for _, key := range payloadKeyNames {
		if strings.Contains(s, key) {
			return true
		}
	}
	if codeFencePattern.MatchString(s) {
		return true
	}
	opens := strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
	closes := strings.HasSuffix(s, "}") || strings.HasSuffix(s, "]")
	if opens && closes {
		return true
	}
	// A line that opens a JSON object and carries quoted keys is a payload
	// still being streamed.
	return opens && quotedKVPattern.MatchString(s)
}

// Progress lines are live sub-status output of an in-flight Action step:
// bracketed step counters, search/scrape status, bullets, status glyphs.
var progressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\[\d+\s*/\s*\d+\]`),
	regexp.MustCompile(`(?i)^searching for:`),
	regexp.MustCompile(`(?i)^found\b`),
	regexp.MustCompile(`(?i)^scraping\b`),
	regexp.MustCompile(`(?i)^fetching\b`),
	regexp.MustCompile(`^[-•*]\s`),
}

var progressGlyphs = []string{"🔍", "🔗", "📄", "📁", "📊", "⏳", "✅", "📝", "⚙️"}

// isProgressLine reports whether a continuation line inside an Action step
// should be routed to ProgressContent instead of Content.
func isProgressLine(line string) bool {
	for _, glyph := range progressGlyphs {
		if strings.HasPrefix(line, glyph) {
			return true
		}
	}
	for _, p := range progressPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// toolFamily is one known tool identity and the phrases that reveal it in
// free-form action text. Names match the canonical tool registry identifiers.
type toolFamily struct {
	name    string
	phrases []string
}

var toolFamilies = []toolFamily{
	{"web_search", []string{"web_search", "web search", "search the web", "searching the web"}},
	{"case_studies_search", []string{"case_studies_search", "case study", "case studies", "case stud"}},
	{"read_file", []string{"read_file", "read the file", "reading file", "reading the file"}},
	{"create_file", []string{"create_file", "create a file", "creating file", "creating a file"}},
	{"edit_file", []string{"edit_file", "edit the file", "editing file", "editing the file"}},
	{"list_files", []string{"list_files", "list files", "listing files", "list the files"}},
}

// inferToolName scans action text case-insensitively for a family-identifying
// phrase. Returns "" when no family matches — not an error, the step just
// renders without a tool identity.
func inferToolName(text string) string {
	lower := strings.ToLower(text)
	for _, family := range toolFamilies {
		for _, phrase := range family.phrases {
			if strings.Contains(lower, phrase) {
				return family.name
			}
		}
	}
	return ""
}

// extractToolInput is the best-effort structured extraction of a tool payload
// from free text. It only succeeds when the text carries a well-formed JSON
// object; otherwise it returns nil and the consumer treats the input as
// absent. No schema is guessed.
func extractToolInput(text string) map[string]any {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil
	}
	if inner, ok := payload["tool_input"].(map[string]any); ok {
		return inner
	}
	return payload
}
