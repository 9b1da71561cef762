package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/compare"
	"github.com/ppiankov/infobox2wd/internal/model"
)

// StdoutPath selects standard output instead of a file
const StdoutPath = "-"

// Renderer writes reports as JSON, Markdown and a short console summary
type Renderer struct {
	pretty bool
	out    io.Writer
}

// NewRenderer creates a renderer writing console output to stdout
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty, out: os.Stdout}
}

// RenderJSON writes v (a report or a batch of reports) as JSON
func (r *Renderer) RenderJSON(v any, path string) error {
	var data []byte
	var err error
	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	return r.write(path, data)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.write(path, []byte(Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(content string, path string) error {
	if content == "" {
		return nil
	}
	return r.write(path, []byte(content))
}

// RenderSummary prints a few lines about the report
func (r *Renderer) RenderSummary(report *model.Report) {
	counts := compare.Summarize(report.Statements)
	item := report.Entity
	if item == "" {
		item = "no item"
	}
	fmt.Fprintf(r.out, "%s (%s, %s)\n", report.Subject, report.Language, item)
	fmt.Fprintf(r.out, "  fields: %d parsed of %d\n", parsedFields(report.Fields), len(report.Fields))
	fmt.Fprintf(r.out, "  statements: %d new, %d present, %d conflicting, %d unchecked\n",
		counts.New, counts.Present, counts.Conflict, counts.Unknown)
	if report.Stability.IsContested() {
		fmt.Fprintf(r.out, "  warning: contested article (%s, %d reverts in 30 days)\n",
			report.Stability.Severity, report.Stability.Reverts)
	}
	if len(report.ReferenceChecks) > 0 {
		dead := 0
		for _, c := range report.ReferenceChecks {
			if c.IsDead {
				dead++
			}
		}
		fmt.Fprintf(r.out, "  references: %d checked, %d dead\n", len(report.ReferenceChecks), dead)
	}
}

func (r *Renderer) write(path string, data []byte) error {
	if path == StdoutPath {
		_, err := r.out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func parsedFields(fields []model.FieldReport) int {
	n := 0
	for _, f := range fields {
		if f.Status == model.FieldParsed {
			n++
		}
	}
	return n
}

// Markdown renders a report as Markdown
func Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Subject)
	fmt.Fprintf(&b, "- **Source:** %s\n", report.SourceURL)
	fmt.Fprintf(&b, "- **Language:** %s\n", report.Language)
	if report.Entity != "" {
		fmt.Fprintf(&b, "- **Item:** [%s](https://www.wikidata.org/wiki/%s)\n", report.Entity, report.Entity)
	} else {
		b.WriteString("- **Item:** none found\n")
	}
	fmt.Fprintf(&b, "- **Fetched:** %s\n", report.FetchedAt.Format("2006-01-02 15:04:05 UTC"))
	if s := report.Stability; s != nil {
		fmt.Fprintf(&b, "- **Stability:** %s (%d edits by %d editors, %d reverts in 30 days)\n",
			s.Severity, s.RecentEdits, s.UniqueEditors, s.Reverts)
	}
	b.WriteString("\n")

	b.WriteString("## Fields\n\n")
	if len(report.Fields) == 0 {
		b.WriteString("_No infobox fields mapped to properties._\n")
	} else {
		b.WriteString("| Property | Text | Status | Statements |\n|---|---|---|---|\n")
		for _, f := range report.Fields {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", f.Property, escapeCell(f.Text), f.Status, f.Statements)
		}
	}
	if len(report.Unmapped) > 0 {
		unmapped := append([]string(nil), report.Unmapped...)
		sort.Strings(unmapped)
		fmt.Fprintf(&b, "\nUnmapped rows: %s\n", strings.Join(unmapped, ", "))
	}

	b.WriteString("\n## Statements\n\n")
	if len(report.Statements) == 0 {
		b.WriteString("_No statements generated._\n")
	} else {
		b.WriteString("| Property | Value | Qualifiers | References | Status |\n|---|---|---|---|---|\n")
		for _, s := range report.Statements {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
				s.Statement.Property(), escapeCell(s.Statement.MainSnak.String()),
				escapeCell(qualifierText(s.Statement)), len(s.Statement.References), s.Status)
		}
	}

	if len(report.ReferenceChecks) > 0 {
		b.WriteString("\n## References\n\n| URL | Status | Authority | Archive |\n|---|---|---|---|\n")
		for _, c := range report.ReferenceChecks {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.URL, checkStatus(c), c.Authority, yesNo(c.HasArchive))
		}
	}

	if report.LLM != nil && report.LLM.Enabled && report.LLM.SummaryMD != "" {
		fmt.Fprintf(&b, "\n## Review summary (%s)\n\n%s\n", report.LLM.Provider, report.LLM.SummaryMD)
	}
	return b.String()
}

func qualifierText(st model.Statement) string {
	parts := make([]string, 0, len(st.QualifiersOrder))
	for _, prop := range st.QualifiersOrder {
		for _, q := range st.Qualifiers[prop] {
			parts = append(parts, prop+"="+q.String())
		}
	}
	return strings.Join(parts, "; ")
}

func checkStatus(c model.ReferenceCheck) string {
	switch {
	case c.IsAccessible && c.RedirectURL != "":
		return fmt.Sprintf("%d, redirects", c.StatusCode)
	case c.IsAccessible:
		return fmt.Sprintf("%d", c.StatusCode)
	case c.IsDead:
		return "dead"
	case c.Error != "":
		return "error"
	default:
		return fmt.Sprintf("%d", c.StatusCode)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
