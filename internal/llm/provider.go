// Package llm produces an optional review summary of an extraction report.
// The summary is advisory only: it never alters the generated statements.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/compare"
	"github.com/ppiankov/infobox2wd/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize reviews the report in strict evidence mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	Report model.Report

	// EvidenceURLs is the allowlist of URLs the summary may cite
	EvidenceURLs []string

	// Prompt overrides the default prompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string // URLs found in the summary, already checked against the allowlist
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama" or "" for disabled
	Provider string

	Model   string
	APIKey  string
	BaseURL string
	Timeout int // seconds

	// StrictEvidence rejects summaries citing URLs outside the allowlist
	StrictEvidence bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      800,
	}
}

const systemPrompt = "You review statements extracted from Wikipedia infoboxes before they are imported into Wikidata. You only describe what the report shows."

// maxPromptStatements bounds the statement list sent to the model
const maxPromptStatements = 40

// BuildPrompt constructs the default review prompt
func BuildPrompt(report model.Report, evidenceURLs []string) string {
	var b strings.Builder
	counts := compare.Summarize(report.Statements)

	fmt.Fprintf(&b, `You are reviewing statements generated from the infobox of a Wikipedia article.

RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. Do not cite or infer any other source.
3. Point out statements that conflict with existing Wikidata values, fields that could not be parsed and references that are dead.
4. Never claim a value is true or false; describe only what the report shows.

Report:
- Article: %s (%s)
- Item: %s
- Fields: %d, unparsed or unresolved: %d
- Statements: %d new, %d already present, %d conflicting, %d not compared
- References checked: %d accessible, %d dead
`, joinURLs(evidenceURLs), report.Subject, report.Language, orNone(report.Entity),
		len(report.Fields), countFailedFields(report.Fields),
		counts.New, counts.Present, counts.Conflict, counts.Unknown,
		countAccessible(report.ReferenceChecks), countDead(report.ReferenceChecks))
	if s := report.Stability; s != nil {
		fmt.Fprintf(&b, "- Edit history: %s contention, %d edits and %d reverts in the last 30 days\n",
			s.Severity, s.RecentEdits, s.Reverts)
	}
	b.WriteString("\nStatements:\n")

	for i, st := range report.Statements {
		if i >= maxPromptStatements {
			fmt.Fprintf(&b, "... and %d more statements\n", len(report.Statements)-maxPromptStatements)
			break
		}
		fmt.Fprintf(&b, "- %s = %s [%s]\n", st.Statement.Property(), st.Statement.MainSnak, st.Status)
	}

	b.WriteString("\nProvide a 3-4 sentence review an editor can act on.")
	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No reference URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func countFailedFields(fields []model.FieldReport) int {
	count := 0
	for _, f := range fields {
		if f.Status != model.FieldParsed {
			count++
		}
	}
	return count
}

func countAccessible(checks []model.ReferenceCheck) int {
	count := 0
	for _, c := range checks {
		if c.IsAccessible {
			count++
		}
	}
	return count
}

func countDead(checks []model.ReferenceCheck) int {
	count := 0
	for _, c := range checks {
		if c.IsDead {
			count++
		}
	}
	return count
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]]+`)

// extractURLs returns the distinct URLs mentioned in text
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}
	return unique
}

// checkCitations fails when strict mode is on and a cited URL is not allowed
func checkCitations(strict bool, allowed, cited []string) error {
	if !strict {
		return nil
	}
	allow := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		allow[u] = true
	}
	for _, u := range cited {
		if !allow[u] {
			return fmt.Errorf("citation leak: summary cites disallowed URL %s", u)
		}
	}
	return nil
}

// resolveModel picks the request model, then the configured one, then fallback
func resolveModel(req SummarizeRequest, config Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if config.Model != "" {
		return config.Model
	}
	return fallback
}

func resolveMaxTokens(req SummarizeRequest, config Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if config.MaxTokens > 0 {
		return config.MaxTokens
	}
	return 800
}
