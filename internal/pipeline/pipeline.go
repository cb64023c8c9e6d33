// Package pipeline loads a portal page and routes it to the eligibility
// filter or the case extractor depending on what kind of page it is.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/estatescout/internal/classify"
	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/eligibility"
	"github.com/ppiankov/estatescout/internal/extract"
	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/score"
)

// Pipeline orchestrates classification, eligibility and extraction
type Pipeline struct {
	fetcher   *Fetcher
	filter    *eligibility.Filter
	extractor *extract.Extractor
	scorer    *score.Scorer
	logger    *slog.Logger
	stdin     io.Reader
	now       func() time.Time
	config    *model.Config
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger shared by every stage
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFetcher replaces the fetcher built from the http config
func WithFetcher(f *Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// WithClock fixes "now" for the eligibility age check and report stamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithStdin sets the reader used for the "-" source
func WithStdin(r io.Reader) Option {
	return func(p *Pipeline) {
		p.stdin = r
	}
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: slog.New(slog.DiscardHandler),
		stdin:  os.Stdin,
		now:    time.Now,
		config: cfg,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.fetcher == nil {
		p.fetcher = NewFetcherFromConfig(cfg.HTTP, WithFetchLogger(p.logger))
	}
	p.filter = eligibility.New(cfg.Eligibility,
		eligibility.WithClock(p.now),
		eligibility.WithLogger(p.logger.With("stage", "eligibility")))
	p.extractor = extract.NewExtractor(cfg.Documents,
		extract.WithLogger(p.logger.With("stage", "extract")))
	p.scorer = score.NewScorer(cfg.Quality.ReviewThreshold)

	return p
}

// Source is a loaded page ready for processing
type Source struct {
	Page      *dom.Page
	Meta      model.FetchMeta
	FetchedAt time.Time
}

// Load reads src, which is a file path, "-" for stdin, or an http(s) URL
func (p *Pipeline) Load(ctx context.Context, src string) (*Source, error) {
	if isURL(src) {
		result, err := p.fetcher.FetchWithRetry(ctx, src)
		if err != nil {
			return nil, err
		}
		page, err := dom.ParseString(result.HTML, result.FinalURL)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", src, err)
		}
		return &Source{Page: page, Meta: result.Meta, FetchedAt: result.FetchedAt}, nil
	}

	var (
		r       io.Reader
		pageURL string
	)
	if src == "-" {
		r = p.stdin
	} else {
		file, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer func() { _ = file.Close() }()
		r = file
		if abs, err := filepath.Abs(src); err == nil {
			pageURL = "file://" + filepath.ToSlash(abs)
		}
	}

	page, err := dom.Parse(r, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	return &Source{Page: page, FetchedAt: p.now().UTC()}, nil
}

// Process classifies a page and runs the stage that fits it. It never
// fails: an unrecognized page yields a report with kind "unknown".
func (p *Pipeline) Process(page *dom.Page) *model.Report {
	report := &model.Report{
		Source: page.URL,
		Kind:   classify.ClassifyPage(page),
	}

	switch report.Kind {
	case model.PageListing:
		report.Verdicts = p.filter.Evaluate(page.Text)
		report.Cases = p.filter.Scan(page.Text, page.Links)
		p.logger.Debug("listing processed", "source", page.URL,
			"entries", len(report.Verdicts), "qualified", len(report.Cases))
	case model.PageDetail:
		rec := p.extractor.Extract(page)
		assessment := p.scorer.Assess(rec)
		report.Record = &rec
		report.Assessment = &assessment
		p.logger.Debug("detail processed", "source", page.URL,
			"case", rec.CaseNumber, "quality", rec.ExtractionQuality)
	default:
		p.logger.Debug("page not recognized", "source", page.URL)
	}

	return report
}

// Scan loads src and processes it
func (p *Pipeline) Scan(ctx context.Context, src string) (*model.Report, error) {
	loaded, err := p.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	report := p.Process(loaded.Page)
	report.Source = src
	report.FetchMeta = loaded.Meta
	report.FetchedAt = loaded.FetchedAt
	return report, nil
}

// Extract loads src and extracts it as a case detail page regardless of
// how the classifier would label it
func (p *Pipeline) Extract(ctx context.Context, src string) (*model.CaseRecord, *model.Assessment, error) {
	loaded, err := p.Load(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	rec := p.extractor.Extract(loaded.Page)
	assessment := p.scorer.Assess(rec)
	return &rec, &assessment, nil
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() *model.Config {
	return p.config
}

// Fetcher returns the pipeline's fetcher
func (p *Pipeline) Fetcher() *Fetcher {
	return p.fetcher
}

func isURL(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
