package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ppiankov/estatescout/internal/model"
)

// Scanner turns one source (snapshot path or URL) into a report
type Scanner interface {
	Scan(ctx context.Context, src string) (*model.Report, error)
}

// ScanJob processes one source
type ScanJob struct {
	Source  string
	Scanner Scanner
}

// Execute runs the scan and times it
func (j *ScanJob) Execute(ctx context.Context) Result {
	start := time.Now()
	report, err := j.Scanner.Scan(ctx, j.Source)
	return &ScanResult{
		Source:   j.Source,
		Report:   report,
		Error:    err,
		Duration: time.Since(start),
	}
}

// ScanResult is the outcome of one ScanJob
type ScanResult struct {
	Source   string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor scans many sources concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	observe     func(*ScanResult)
}

// BatchOption customizes a BatchProcessor
type BatchOption func(*BatchProcessor)

// WithObserver is called once per finished source, after the whole batch
// completes, in input order
func WithObserver(fn func(*ScanResult)) BatchOption {
	return func(b *BatchProcessor) {
		b.observe = fn
	}
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Process scans sources and returns their results in input order
func (b *BatchProcessor) Process(ctx context.Context, sources []string) []*ScanResult {
	if len(sources) == 0 {
		return []*ScanResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, src := range sources {
		pool.Submit(&ScanJob{Source: src, Scanner: b.scanner})
	}

	results := pool.Wait()

	scanResults := make([]*ScanResult, len(results))
	for i, result := range results {
		scanResults[i] = result.(*ScanResult)
		if b.observe != nil {
			b.observe(scanResults[i])
		}
	}

	return scanResults
}

// ProcessList reads sources from a list file or directory and scans them
func (b *BatchProcessor) ProcessList(ctx context.Context, path string) ([]*ScanResult, error) {
	sources, err := ReadSources(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.Process(ctx, sources), nil
}

// ReadSources returns the sources named by path. A directory yields its
// .html and .htm files in name order; a file is read as a list.
func ReadSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !info.IsDir() {
		return ReadSourcesFromFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var sources []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".html", ".htm":
			sources = append(sources, filepath.Join(path, e.Name()))
		}
	}
	slices.Sort(sources)
	return sources, nil
}

// ReadSourcesFromFile reads one source per line. Blank lines and lines
// starting with # are skipped, duplicates are dropped, and relative paths
// are resolved against the list file's directory.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !isRemote(line) && line != "-" && !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
