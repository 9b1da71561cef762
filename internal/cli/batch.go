package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/infobox2wd/internal/pipeline"
	"github.com/ppiankov/infobox2wd/internal/worker"
)

var (
	batchOpts    runOptions
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	writeMD      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract statements from many articles in parallel",
	Long: `Batch processes a list of articles concurrently:
- Read article URLs or lang:title lines from a file (one per line)
- Extract each article with a configurable number of workers
- Write one JSON report per article and an index of all results

Example:
  infobox2wd batch articles.txt
  infobox2wd batch articles.txt --concurrency 8 --output-dir ./reports --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./infobox2wd-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&writeMD, "md", false, "also write Markdown reports")
	batchOpts.register(batchCmd.Flags())
}

// batchEntry is one line of the batch index
type batchEntry struct {
	Target     string `json:"target"`
	Subject    string `json:"subject,omitempty"`
	Entity     string `json:"entity,omitempty"`
	Report     string `json:"report,omitempty"`
	Statements int    `json:"statements"`
	Error      string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := batchOpts.apply(cmd, cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	// The pipeline already limits requests per host
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, 0, 0)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	entries := make([]batchEntry, 0, len(results))
	successCount := 0
	used := make(map[string]int)

	for _, result := range results {
		entry := batchEntry{Target: result.URL}
		if result.Error != nil {
			entry.Error = result.Error.Error()
			entries = append(entries, entry)
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}

		report := result.Report
		slug := uniqueSlug(used, sanitizeFilename(report.Language+"-"+report.Subject))
		jsonPath := filepath.Join(outputDir, slug+".json")
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			entry.Error = fmt.Sprintf("write JSON: %v", err)
			entries = append(entries, entry)
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.URL, err)
			continue
		}
		if writeMD {
			if err := renderer.RenderMarkdown(report, filepath.Join(outputDir, slug+".md")); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.URL, err)
			}
		}

		successCount++
		entry.Subject = report.Subject
		entry.Entity = report.Entity
		entry.Report = slug + ".json"
		entry.Statements = len(report.Statements)
		entries = append(entries, entry)
		fmt.Fprintf(os.Stderr, "✓ %s (%d statements)\n", report.Subject, len(report.Statements))
	}

	if err := renderer.RenderJSON(entries, filepath.Join(outputDir, "index.json")); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d articles\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", len(results)-successCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
)

// sanitizeFilename turns a title into a file name
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, "._")
	if s == "" {
		s = "article"
	}
	// Cut on a rune boundary
	if len(s) > 100 {
		cut := 100
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// uniqueSlug appends a counter when two articles share a slug
func uniqueSlug(used map[string]int, slug string) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
