// Package extract turns case detail page snapshots into case records
package extract

import (
	"log/slog"
	"strings"

	"dario.cat/mergo"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

// Extractor runs strategies in registration order and merges their output
type Extractor struct {
	strategies []Strategy
	logger     *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger used for recovered failures
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor with the table strategy followed by the
// text strategy
func NewExtractor(docs model.DocumentConfig, opts ...Option) *Extractor {
	e := &Extractor{
		strategies: make([]Strategy, 0, 2),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	options := DocumentOptionsFrom(docs)
	e.Register(NewTableStrategy(options))
	e.Register(NewTextStrategy(options))

	return e
}

// Register appends a strategy; earlier strategies win merge conflicts
func (e *Extractor) Register(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Strategies returns the registered strategy names in run order
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract builds a case record from a snapshot. It never fails: anything
// that cannot be located is left empty and unscored.
func (e *Extractor) Extract(page *dom.Page) model.CaseRecord {
	var rec model.CaseRecord
	if page == nil {
		return finalize(rec)
	}

	for _, s := range e.strategies {
		part := e.run(s, page)

		// Points only for fields this strategy is the first to fill
		for _, a := range part.Awards {
			if filled(&rec, a.Field) {
				continue
			}
			rec.Awards = append(rec.Awards, a)
		}

		takePerson(&rec.Parties.Decedent, &part.Record.Parties.Decedent)
		takePerson(&rec.Parties.Executor, &part.Record.Parties.Executor)
		if err := mergo.Merge(&rec, part.Record); err != nil {
			e.logger.Warn("merge failed", "strategy", s.Name(), "url", page.URL, "error", err)
		}
	}

	rec.FullPageText = page.Text
	return finalize(rec)
}

// run isolates one strategy; a panic outside a step drops its whole output
func (e *Extractor) run(s Strategy, page *dom.Page) (part Partial) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("strategy panicked", "strategy", s.Name(), "url", page.URL, "panic", r)
			part = Partial{}
		}
	}()

	part = s.Extract(page)
	for _, f := range part.Failures {
		e.logger.Debug("extraction step skipped", "strategy", s.Name(), "url", page.URL, "step", f)
	}
	return part
}

// takePerson moves src into dst when dst has no name yet. A person is never
// assembled from two strategies, so src is cleared either way.
func takePerson(dst, src *model.PersonRecord) {
	if dst.Name == "" && src.Name != "" {
		*dst = *src
	}
	*src = model.PersonRecord{}
}

// filled reports whether the record already holds a value for field
func filled(rec *model.CaseRecord, field model.Field) bool {
	switch field {
	case model.FieldCaseNumber:
		return rec.CaseNumber != ""
	case model.FieldFilingDate:
		return rec.FilingDate != ""
	case model.FieldCaseStatus:
		return rec.CaseStatus != ""
	case model.FieldCounty:
		return rec.County != ""
	case model.FieldDecedent:
		return rec.Parties.Decedent.Name != ""
	case model.FieldExecutor:
		return rec.Parties.Executor.Name != ""
	case model.FieldBeneficiaries:
		return len(rec.Parties.Beneficiaries) > 0
	case model.FieldDocuments:
		return len(rec.Documents) > 0
	case model.FieldPartySection:
		return rec.Sections.Parties != ""
	case model.FieldEventsSection:
		return rec.Sections.Events != ""
	default:
		return false
	}
}

// finalize sums the awards and replaces nil lists with empty ones
func finalize(rec model.CaseRecord) model.CaseRecord {
	rec.ExtractionQuality = 0
	for _, a := range rec.Awards {
		rec.ExtractionQuality += a.Points
	}

	if rec.Parties.Beneficiaries == nil {
		rec.Parties.Beneficiaries = []model.PersonRecord{}
	}
	if rec.Documents == nil {
		rec.Documents = []model.DocumentRecord{}
	}
	if rec.Events == nil {
		rec.Events = []model.EventRecord{}
	}
	rec.CaseNumber = strings.TrimSpace(rec.CaseNumber)
	return rec
}
