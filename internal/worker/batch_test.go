package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/infobox2wd/internal/model"
)

type mockExtractor struct {
	shouldError bool
}

func (m *mockExtractor) ExtractURL(ctx context.Context, url string) (*model.Report, error) {
	time.Sleep(5 * time.Millisecond)
	if m.shouldError {
		return nil, errors.New("extract error")
	}
	return &model.Report{Subject: "Test", SourceURL: url}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{}, 2, 0, 0)

	urls := []string{
		"https://en.wikipedia.org/wiki/Moscow",
		"https://en.wikipedia.org/wiki/Paris",
		"https://en.wikipedia.org/wiki/Mount_Everest",
		"https://ru.wikipedia.org/wiki/Москва",
	}
	results := processor.ProcessURLs(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d is %s, want input order", i, res.URL)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.URL, res.Error)
		}
		if res.Report == nil {
			t.Errorf("expected report for %s", res.URL)
		}
	}
}

func TestBatchProcessor_RateLimited(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{}, 4, 1000, 10)
	results := processor.ProcessURLs(context.Background(), []string{
		"https://en.wikipedia.org/wiki/A",
		"https://en.wikipedia.org/wiki/B",
	})
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error: %v", res.Error)
		}
	}
}

func TestBatchProcessor_ProcessURLs_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{shouldError: true}, 2, 0, 0)

	results := processor.ProcessURLs(context.Background(), []string{"https://en.wikipedia.org/wiki/X"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessURLs_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockExtractor{}, 2, 0, 0).ProcessURLs(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeTemp(t, "https://en.wikipedia.org/wiki/A\n# comment\nhttps://en.wikipedia.org/wiki/B\n   \nhttps://en.wikipedia.org/wiki/A\n  https://en.wikipedia.org/wiki/C   ")

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{
		"https://en.wikipedia.org/wiki/A",
		"https://en.wikipedia.org/wiki/B",
		"https://en.wikipedia.org/wiki/C",
	}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %v", len(expected), urls)
	}
	for i := range expected {
		if urls[i] != expected[i] {
			t.Errorf("URL %d = %s, want %s", i, urls[i], expected[i])
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadURLsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&mockExtractor{}, 2, 0, 0).ProcessURLs(ctx, []string{
		"https://en.wikipedia.org/wiki/A",
		"https://en.wikipedia.org/wiki/B",
	})
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) || res.Report != nil {
			t.Errorf("%s: error = %v, want context.Canceled", res.URL, res.Error)
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "https://en.wikipedia.org/wiki/A\nhttps://en.wikipedia.org/wiki/B\n# comment\n\n")

	results, err := NewBatchProcessor(&mockExtractor{}, 2, 0, 0).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := NewBatchProcessor(&mockExtractor{}, 2, 0, 0).ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
