// Package pacing spaces browsing actions the way a person reading the
// portal would.
package pacing

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/estatescout/internal/model"
)

// Phase names one kind of pause
type Phase string

const (
	PhaseReading      Phase = "reading"
	PhaseThinking     Phase = "thinking"
	PhaseBeforeClick  Phase = "before_click"
	PhaseBetweenCases Phase = "between_cases"
	PhaseScroll       Phase = "scroll"
)

// ScrollStops is how many scroll movements a page skim takes
const ScrollStops = 6

// Pacer draws a uniformly random delay from the configured range of each
// phase and sleeps for it. Every wait returns early when ctx is done.
type Pacer struct {
	cfg    model.PacingConfig
	intn   func(n int64) int64
	sleep  func(ctx context.Context, d time.Duration) error
	cases  *rate.Limiter // floor between two case navigations
	logger *slog.Logger
}

// Option customizes a Pacer
type Option func(*Pacer)

// WithRand replaces the random source; intn must return a value in [0, n)
func WithRand(intn func(n int64) int64) Option {
	return func(p *Pacer) {
		p.intn = intn
	}
}

// WithSleep replaces the cancellable sleep
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pacer) {
		p.sleep = sleep
	}
}

// WithLogger sets the logger used for per-pause debug lines
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pacer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pacer. A disabled config yields a pacer that never waits.
func New(cfg model.PacingConfig, opts ...Option) *Pacer {
	p := &Pacer{
		cfg:    cfg,
		intn:   rand.Int64N,
		sleep:  Sleep,
		logger: slog.New(slog.DiscardHandler),
	}
	if cfg.Enabled && cfg.BetweenCases.Min > 0 {
		p.cases = rate.NewLimiter(rate.Every(cfg.BetweenCases.Min), 1)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delay draws a delay for phase without sleeping
func (p *Pacer) Delay(phase Phase) time.Duration {
	if !p.cfg.Enabled {
		return 0
	}
	return p.draw(p.interval(phase))
}

// Wait sleeps for a random delay of the given phase
func (p *Pacer) Wait(ctx context.Context, phase Phase) error {
	d := p.Delay(phase)
	if d <= 0 {
		return ctx.Err()
	}
	p.logger.Debug("pause", "phase", string(phase), "delay", d)
	return p.sleep(ctx, d)
}

// BetweenCases waits before opening the next case. Besides the random
// pause, two navigations are never closer than the range's minimum.
func (p *Pacer) BetweenCases(ctx context.Context) error {
	if p.cases != nil {
		if err := p.cases.Wait(ctx); err != nil {
			return err
		}
	}
	return p.Wait(ctx, PhaseBetweenCases)
}

// Skim performs the scroll pauses of a page read followed by the reading
// and thinking pauses
func (p *Pacer) Skim(ctx context.Context) error {
	for i := 0; i < ScrollStops; i++ {
		if err := p.Wait(ctx, PhaseScroll); err != nil {
			return err
		}
	}
	if err := p.Wait(ctx, PhaseReading); err != nil {
		return err
	}
	return p.Wait(ctx, PhaseThinking)
}

func (p *Pacer) interval(phase Phase) model.Interval {
	switch phase {
	case PhaseReading:
		return p.cfg.Reading
	case PhaseThinking:
		return p.cfg.Thinking
	case PhaseBeforeClick:
		return p.cfg.BeforeClick
	case PhaseBetweenCases:
		return p.cfg.BetweenCases
	case PhaseScroll:
		return p.cfg.ScrollInterval
	default:
		return model.Interval{}
	}
}

// draw returns a value in [Min, Max] at millisecond resolution
func (p *Pacer) draw(iv model.Interval) time.Duration {
	lo, hi := iv.Min.Milliseconds(), iv.Max.Milliseconds()
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	return time.Duration(lo+p.intn(hi-lo+1)) * time.Millisecond
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
