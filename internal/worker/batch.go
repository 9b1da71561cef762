package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// Extractor turns one article into a report
type Extractor interface {
	ExtractURL(ctx context.Context, url string) (*model.Report, error)
}

// ArticleJob extracts a single article
type ArticleJob struct {
	Index     int
	URL       string
	Extractor Extractor
	Limiter   *Limiter // Optional
}

// Execute runs the extraction after rate limit clearance. A cancelled
// context fails the job without calling the extractor.
func (j *ArticleJob) Execute(ctx context.Context) *ArticleResult {
	if err := ctx.Err(); err != nil {
		return &ArticleResult{Index: j.Index, URL: j.URL, Error: err}
	}
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			return &ArticleResult{Index: j.Index, URL: j.URL, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	report, err := j.Extractor.ExtractURL(ctx, j.URL)
	if err != nil {
		return &ArticleResult{Index: j.Index, URL: j.URL, Error: err}
	}
	return &ArticleResult{Index: j.Index, URL: j.URL, Report: report}
}

// ArticleResult is the outcome of one article
type ArticleResult struct {
	Index  int
	URL    string
	Report *model.Report
	Error  error
}

// BatchProcessor extracts many articles concurrently
type BatchProcessor struct {
	extractor   Extractor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A positive rate limits
// requests per host.
func NewBatchProcessor(extractor Extractor, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	return &BatchProcessor{
		extractor:   extractor,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs extracts every URL and returns the results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ArticleResult {
	if len(urls) == 0 {
		return []*ArticleResult{}
	}

	return Run(ctx, NewPool(b.concurrency), len(urls), func(ctx context.Context, i int) *ArticleResult {
		job := &ArticleJob{Index: i, URL: urls[i], Extractor: b.extractor, Limiter: b.limiter}
		return job.Execute(ctx)
	})
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ArticleResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads article URLs from a file, one per line. Blank lines
// and lines starting with # are skipped, duplicates are dropped.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}
