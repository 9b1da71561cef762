package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/pipeline"
)

// runOptions are the flags shared by extract and batch
type runOptions struct {
	lang        string
	userAgent   string
	maxBytes    int64
	noCache     bool
	noCompare   bool
	noStability bool
	validate    bool
	httpProxy   string
	httpsProxy  string
	llmProvider string
	llmModel    string
}

func (o *runOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.lang, "lang", "en", "language edition for bare titles")
	flags.StringVar(&o.userAgent, "ua", model.DefaultUserAgent, "HTTP User-Agent")
	flags.Int64Var(&o.maxBytes, "max-bytes", 5_000_000, "max response bytes to read")
	flags.BoolVar(&o.noCache, "no-cache", false, "disable cache (force fresh lookups)")
	flags.BoolVar(&o.noCompare, "no-compare", false, "skip comparison with existing claims")
	flags.BoolVar(&o.noStability, "no-stability", false, "skip the article edit history check")
	flags.BoolVar(&o.validate, "validate", false, "check that reference URLs are alive")
	flags.StringVar(&o.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.StringVar(&o.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	flags.StringVar(&o.llmProvider, "llm-provider", "", "review summary provider (openai, anthropic, ollama)")
	flags.StringVar(&o.llmModel, "llm-model", "", "review summary model name")
}

// apply overrides the loaded configuration with flags the user set
func (o *runOptions) apply(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Language = o.lang
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = o.userAgent
	}
	if flags.Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = o.maxBytes
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if o.noCompare {
		cfg.Extraction.Compare = false
	}
	if o.noStability {
		cfg.Extraction.Stability = false
	}
	if o.validate {
		cfg.Validation.Enabled = true
	}
	if o.httpProxy != "" {
		cfg.HTTP.HTTPProxy = o.httpProxy
	}
	if o.httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = o.httpsProxy
	}
	if o.llmProvider != "" {
		cfg.LLM.Provider = o.llmProvider
	}
	if o.llmModel != "" {
		cfg.LLM.Model = o.llmModel
	}
	return applyLLMEnv(&cfg.LLM)
}

// applyLLMEnv fills API keys and endpoints from the environment
func applyLLMEnv(cfg *model.LLMConfig) error {
	switch cfg.Provider {
	case "":
		return nil
	case "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.BaseURL == "" {
			cfg.BaseURL = baseURL
		}
	}
	return nil
}

var (
	extractOpts    runOptions
	outJSON        string
	outMD          string
	extractTimeout time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <url|lang:title|title>",
	Short: "Extract statements from one article",
	Long: `Extract reads one Wikipedia article and:
- Maps infobox rows to Wikidata properties
- Parses quantities, dates, links and identifiers into statements
- Attaches the article's citations as references
- Compares the statements with the claims already on the item
- Flags articles whose recent edit history shows an edit war

Example:
  infobox2wd extract https://en.wikipedia.org/wiki/Mount_Everest
  infobox2wd extract ru:Москва --md moscow.md
  infobox2wd extract Berlin --lang de --validate --json -`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path (- for stdout)")
	extractCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "overall timeout")
	extractOpts.register(extractCmd.Flags())
}

func runExtract(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := extractOpts.apply(cmd, cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracting: %s\n", target)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", extractTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	report, err := p.ExtractURL(ctx, target)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Mapped %d infobox fields\n", len(report.Fields))
		fmt.Fprintf(os.Stderr, "✓ Built %d statements\n", len(report.Statements))
		if len(report.ReferenceChecks) > 0 {
			fmt.Fprintf(os.Stderr, "✓ Checked %d reference URLs\n", len(report.ReferenceChecks))
		}
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated review summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
