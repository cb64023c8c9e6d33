// Package driver walks the qualified cases of a listing: it opens each
// case, extracts it and hands the record to the sink.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/eligibility"
	"github.com/ppiankov/estatescout/internal/metrics"
	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/pacing"
	"github.com/ppiankov/estatescout/internal/pipeline"
	"github.com/ppiankov/estatescout/internal/session"
	"github.com/ppiankov/estatescout/internal/sink"
)

// ErrNoTarget means a qualified case has no link the driver can follow
var ErrNoTarget = errors.New("case has no navigable link")

// ErrNotDetail means navigation landed somewhere other than a case page
var ErrNotDetail = errors.New("page is not a case detail page")

// Navigator opens the page a listing anchor points at
type Navigator interface {
	Navigate(ctx context.Context, target model.NavigationTarget) (*dom.Page, error)
}

// Processor classifies and extracts a loaded page
type Processor interface {
	Process(page *dom.Page) *model.Report
}

// Runner drives one session
type Runner struct {
	nav       Navigator
	processor Processor
	sink      sink.Sink
	pacer     *pacing.Pacer
	recorder  *metrics.Recorder
	logger    *slog.Logger
	onAdvance func(session.State) error
	now       func() time.Time
}

// Option customizes a Runner
type Option func(*Runner)

// WithPacer sets the human pacing; without one the runner never waits
func WithPacer(p *pacing.Pacer) Option {
	return func(r *Runner) {
		r.pacer = p
	}
}

// WithRecorder counts pages and sink deliveries
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithLogger sets the runner's logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCheckpoint is called with the updated state after every case, e.g.
// to save it so an interrupted run can resume
func WithCheckpoint(fn func(session.State) error) Option {
	return func(r *Runner) {
		r.onAdvance = fn
	}
}

// NewRunner creates a runner. A nil sink discards records.
func NewRunner(nav Navigator, processor Processor, s sink.Sink, opts ...Option) *Runner {
	if s == nil {
		s = sink.Discard{}
	}
	r := &Runner{
		nav:       nav,
		processor: processor,
		sink:      s,
		pacer:     pacing.New(model.PacingConfig{}),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes cases from the cursor to the end. It returns the state
// reached, which on cancellation points at the first unfinished case.
func (r *Runner) Run(ctx context.Context, state session.State) (session.State, error) {
	r.logger.Info("session started", "source", state.Source, "cases", len(state.Cases), "from", state.Index)

	for !state.Done() {
		c, _ := state.Next()

		outcome, err := r.process(ctx, c)
		if err != nil && ctx.Err() != nil {
			return state, ctx.Err()
		}
		state = state.Advance(outcome)

		if r.onAdvance != nil {
			if err := r.onAdvance(state); err != nil {
				r.logger.Warn("checkpoint failed", "err", err)
			}
		}

		if !state.Done() {
			if err := r.pacer.BetweenCases(ctx); err != nil {
				return state, err
			}
		}
	}

	r.logger.Info("session finished",
		"extracted", state.Count(session.StatusExtracted),
		"skipped", state.Count(session.StatusSkipped),
		"failed", state.Count(session.StatusFailed))
	return state, nil
}

// process handles one case. The error is only for the caller to notice
// cancellation; everything else is captured in the outcome.
func (r *Runner) process(ctx context.Context, c model.QualifiedCase) (session.Outcome, error) {
	outcome := session.Outcome{CaseNumber: c.CaseNumber, At: r.now().UTC()}
	log := r.logger.With("case", c.CaseNumber)

	if !Navigable(c.Target) {
		log.Warn("skipping case", "err", ErrNoTarget)
		outcome.Status = session.StatusSkipped
		outcome.Error = ErrNoTarget.Error()
		return outcome, nil
	}

	start := time.Now()
	page, err := r.open(ctx, c.Target)
	if err != nil {
		r.observe(nil, start, err)
		log.Warn("navigation failed", "err", err)
		outcome.Status = session.StatusFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	report := r.processor.Process(page)
	if report.Record == nil {
		err := fmt.Errorf("%w: classified as %s", ErrNotDetail, report.Kind)
		r.observe(report, start, err)
		log.Warn("extraction skipped", "err", err)
		outcome.Status = session.StatusFailed
		outcome.Error = err.Error()
		return outcome, nil
	}
	r.observe(report, start, nil)

	rec := *report.Record
	outcome.Status = session.StatusExtracted
	outcome.Quality = rec.ExtractionQuality

	if c.DecedentName != eligibility.UnknownDecedent && rec.Parties.Decedent.Name != "" {
		outcome.NameMatch = session.NameSimilarity(c.DecedentName, rec.Parties.Decedent.Name)
		if outcome.NameMatch < session.NameMatchThreshold {
			log.Warn("decedent differs from listing",
				"listing", c.DecedentName, "detail", rec.Parties.Decedent.Name, "similarity", outcome.NameMatch)
		}
	}

	msg := sink.NewMessage(sink.ActionProcessCase, rec)
	sendErr := r.sink.Send(ctx, msg)
	if r.recorder != nil {
		r.recorder.ObserveSink(sendErr)
	}
	if sendErr != nil {
		log.Error("sink delivery failed", "err", sendErr)
		outcome.Error = sendErr.Error()
	} else {
		log.Info("case extracted", "quality", rec.ExtractionQuality, "documents", len(rec.Documents))
	}

	return outcome, nil
}

// open paces like a reader: a pause before clicking, then the page skim
func (r *Runner) open(ctx context.Context, target model.NavigationTarget) (*dom.Page, error) {
	if err := r.pacer.Wait(ctx, pacing.PhaseBeforeClick); err != nil {
		return nil, err
	}
	page, err := r.nav.Navigate(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := r.pacer.Skim(ctx); err != nil {
		return nil, err
	}
	return page, nil
}

func (r *Runner) observe(report *model.Report, start time.Time, err error) {
	if r.recorder != nil {
		r.recorder.ObservePage(report, time.Since(start), err)
	}
}

// Navigable reports whether a target can be followed without a browser
func Navigable(target model.NavigationTarget) bool {
	href := strings.TrimSpace(target.Href)
	if !target.Resolved || href == "" || href == model.PlaceholderHref {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(href), "javascript:")
}

// FetchNavigator opens targets over HTTP
type FetchNavigator struct {
	fetcher *pipeline.Fetcher
}

// NewFetchNavigator navigates with f
func NewFetchNavigator(f *pipeline.Fetcher) *FetchNavigator {
	return &FetchNavigator{fetcher: f}
}

// Navigate implements Navigator
func (n *FetchNavigator) Navigate(ctx context.Context, target model.NavigationTarget) (*dom.Page, error) {
	if !Navigable(target) {
		return nil, ErrNoTarget
	}
	result, err := n.fetcher.FetchWithRetry(ctx, target.Href)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.Href, err)
	}
	page, err := dom.ParseString(result.HTML, result.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target.Href, err)
	}
	return page, nil
}
