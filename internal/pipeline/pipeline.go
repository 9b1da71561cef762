// Package pipeline fetches Wikipedia articles and turns their infoboxes into
// statement reports.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/infobox2wd/internal/cache"
	"github.com/ppiankov/infobox2wd/internal/compare"
	"github.com/ppiankov/infobox2wd/internal/llm"
	"github.com/ppiankov/infobox2wd/internal/metadata"
	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
	"github.com/ppiankov/infobox2wd/internal/resolve"
	"github.com/ppiankov/infobox2wd/internal/scrape"
	"github.com/ppiankov/infobox2wd/internal/stability"
	"github.com/ppiankov/infobox2wd/internal/statement"
	"github.com/ppiankov/infobox2wd/internal/util"
	"github.com/ppiankov/infobox2wd/internal/validate"
	"github.com/ppiankov/infobox2wd/internal/wikidata"
	"github.com/ppiankov/infobox2wd/internal/worker"
)

// Pipeline orchestrates fetching, scraping, statement building and the
// optional comparison, edit history, reference checks and review summary
type Pipeline struct {
	config     *model.Config
	fetcher    *Fetcher
	extractor  *scrape.Extractor
	metadata   *metadata.Store
	client     *wikidata.Client
	resolver   *resolve.Resolver
	validator  *validate.Validator // nil when validation is disabled
	summarizer *llm.Summarizer     // nil when no provider is configured
	renderer   *Renderer
	logger     *slog.Logger

	mu       sync.Mutex
	builders map[string]*statement.Builder // Per article language
}

// revisionLimit bounds the edit history fetched per article
const revisionLimit = 100

var _ worker.Extractor = (*Pipeline)(nil)

// NewPipeline wires the components described by cfg
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := metadata.Load(cfg.Extraction.MetadataFile)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.RespectRobots,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy).WithLimiter(limiter)

	client := wikidata.NewClient(wikidata.Config{
		APIURL:          cfg.Wikidata.APIURL,
		WikipediaAPIURL: cfg.Wikidata.WikipediaAPIURL,
		UserAgent:       cfg.HTTP.UserAgent,
		Timeout:         cfg.HTTP.Timeout,
		MaxRetries:      cfg.HTTP.MaxRetries,
		CacheTTL:        cfg.Cache.DiskTTL,
		Cache:           cache.New(cfg.Cache),
		Limiter:         limiter,
		Proxy:           util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		Logger:          logger,
	})

	var validator *validate.Validator
	if cfg.Validation.Enabled {
		validator = validate.NewValidator(cfg.Validation.Timeout, cfg.Concurrency.ValidationWorkers, &cfg.Authority,
			cfg.HTTP.UserAgent, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			logger.Warn("LLM provider disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		config:     cfg,
		fetcher:    fetcher,
		extractor:  scrape.NewExtractor(store, logger),
		metadata:   store,
		client:     client,
		resolver:   resolve.NewResolver(client, logger).WithBatchSize(cfg.Wikidata.BatchSize),
		validator:  validator,
		summarizer: summarizer,
		renderer:   NewRenderer(cfg.Output.Pretty),
		logger:     logger,
		builders:   make(map[string]*statement.Builder),
	}, nil
}

// builderFor returns the statement builder of an article language
func (p *Pipeline) builderFor(lang string) (*statement.Builder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.builders[lang]; ok {
		return b, nil
	}

	set, err := patterns.LoadWithOverrides(lang, p.config.Extraction.PatternsDir)
	if err != nil {
		return nil, err
	}
	b, err := statement.NewBuilder(statement.Config{
		Language:  lang,
		Languages: labelLanguages(lang, p.config.Wikidata.Languages),
		Patterns:  set,
		Metadata:  p.metadata,
		Resolver:  p.resolver,
		Circa:     p.config.Extraction.Circa,
		Logger:    p.logger,
	})
	if err != nil {
		return nil, err
	}
	p.builders[lang] = b
	return b, nil
}

// labelLanguages puts the article language first, then the configured ones
func labelLanguages(lang string, configured []string) []string {
	out := []string{lang}
	for _, l := range configured {
		if l != lang {
			out = append(out, l)
		}
	}
	return out
}

// ExtractURL processes one article given as URL or as "lang:Title" and
// returns its report
func (p *Pipeline) ExtractURL(ctx context.Context, target string) (*model.Report, error) {
	rawURL := p.articleURL(target)

	fetchResult, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	article, err := p.extractor.Extract(fetchResult.HTML, fetchResult.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}
	p.logger.Debug("scraped infobox", "title", article.Title, "lang", article.Language,
		"fields", len(article.Fields), "unmapped", len(article.Unmapped))

	builder, err := p.builderFor(article.Language)
	if err != nil {
		return nil, fmt.Errorf("statement builder: %w", err)
	}

	entity := p.subjectEntity(ctx, article)
	var subject string
	var existing map[string][]model.Statement
	if entity != nil {
		subject = entity.ID
		existing = entity.Claims
	}

	results, err := builder.BuildAll(ctx, subject, article.Fields, existing)
	if err != nil {
		return nil, fmt.Errorf("build statements: %w", err)
	}

	now := time.Now().UTC()
	report := &model.Report{
		Subject:   article.Title,
		Entity:    subject,
		SourceURL: fetchResult.FinalURL,
		Language:  article.Language,
		FetchedAt: now,
		FetchMeta: fetchResult.Meta,
		Unmapped:  article.Unmapped,
	}

	var statements []model.Statement
	for _, r := range results {
		report.Fields = append(report.Fields, model.FieldReport{
			Property:   r.Field.PropertyID,
			Text:       r.Field.RawText,
			Status:     r.Status,
			Statements: len(r.Statements),
		})
		statements = append(statements, r.Statements...)
	}

	compareWith := entity
	if !p.config.Extraction.Compare {
		compareWith = nil
	}
	report.Statements = compare.Statements(statements, compareWith)

	if p.config.Extraction.Stability && article.Title != "" {
		revisions, err := p.client.Revisions(ctx, model.SiteID(article.Language), article.Title, revisionLimit)
		if err != nil {
			p.logger.Warn("edit history lookup failed", "title", article.Title, "error", err)
		} else {
			report.Stability = stability.Analyze(revisions, now)
			if report.Stability.IsContested() {
				p.logger.Warn("article is contested", "title", article.Title,
					"severity", report.Stability.Severity, "reverts", report.Stability.Reverts)
			}
		}
	}

	if p.validator != nil {
		checks, err := p.validator.Validate(ctx, validate.Targets(statements))
		if err != nil {
			p.logger.Warn("reference validation failed", "url", report.SourceURL, "error", err)
		} else {
			report.ReferenceChecks = checks
		}
	}

	// The summary runs last and only reads the report
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.logger.Warn("LLM summary generation failed", "error", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	return report, nil
}

// articleURL accepts full URLs, "lang:Title" and bare titles of the
// configured language
func (p *Pipeline) articleURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if lang, title, ok := strings.Cut(target, ":"); ok && isLanguageCode(lang) {
		return ArticleURL(lang, title)
	}
	return ArticleURL(p.config.Language, target)
}

func isLanguageCode(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// subjectEntity looks up the item of the article. Failures are logged and
// leave the report without an item.
func (p *Pipeline) subjectEntity(ctx context.Context, article *scrape.Article) *model.Entity {
	if article.Title == "" {
		return nil
	}
	entities, err := p.client.EntitiesByTitles(ctx, model.SiteID(article.Language), []string{article.Title},
		labelLanguages(article.Language, p.config.Wikidata.Languages))
	if err != nil {
		p.logger.Warn("subject lookup failed", "title", article.Title, "error", err)
		return nil
	}
	if len(entities) == 0 {
		p.logger.Info("article has no item", "title", article.Title)
		return nil
	}
	return &entities[0]
}

// RenderReport writes the report to the requested outputs and prints the
// summary to stdout
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote JSON", "path", jsonPath)
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote Markdown", "path", mdPath)

		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
			if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
				p.logger.Warn("failed to write LLM summary", "path", llmPath, "error", err)
			} else {
				p.logger.Info("wrote LLM summary", "path", llmPath)
			}
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}
