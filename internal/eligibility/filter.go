// Package eligibility picks the listing entries worth opening: old, disposed
// estate cases.
package eligibility

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

var (
	listingCaseNumber = regexp.MustCompile(`(?i)\b(\d{2})E\d{6}-\d{3}\b`)
	listingDecedent   = regexp.MustCompile(`(?i:ESTATE OF|IN THE MATTER OF)(?i:\s+THE ESTATE OF)?\s+([A-Z][A-Z ]+)`)
	nameGap           = regexp.MustCompile(`\t|\s{2,}`)
)

// UnknownDecedent is reported when no name can be read from the listing
const UnknownDecedent = "Unknown"

// Filter applies the eligibility rules to listing text
type Filter struct {
	cfg    model.EligibilityConfig
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Filter
type Option func(*Filter)

// WithClock replaces time.Now, for the age rule
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		f.now = now
	}
}

// WithLogger sets the logger used for scan tallies
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a filter; a lookahead below one is treated as one
func New(cfg model.EligibilityConfig, opts ...Option) *Filter {
	if cfg.LookaheadLines < 1 {
		cfg.LookaheadLines = 1
	}
	f := &Filter{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// entry is one case line with its context window
type entry struct {
	caseNumber string
	window     []string
	verdict    model.Verdict
}

// Evaluate returns a verdict for every case line in the listing, in order
func (f *Filter) Evaluate(pageText string) []model.Verdict {
	entries := f.entries(pageText)
	verdicts := make([]model.Verdict, len(entries))
	for i, e := range entries {
		verdicts[i] = e.verdict
	}
	return verdicts
}

// Scan returns the qualified cases in first-seen order. Repeated case
// numbers are reported each time they appear.
func (f *Filter) Scan(pageText string, anchors []dom.Link) []model.QualifiedCase {
	entries := f.entries(pageText)

	qualified := make([]model.QualifiedCase, 0, len(entries))
	tally := make(map[model.Reason]int)
	for _, e := range entries {
		if !e.verdict.Qualified {
			tally[e.verdict.Reason]++
			continue
		}
		qualified = append(qualified, model.QualifiedCase{
			CaseNumber:   e.caseNumber,
			DecedentName: decedentName(e.window),
			Target:       findTarget(anchors, e.caseNumber),
		})
	}

	f.logger.Debug("listing scanned",
		"case_lines", len(entries),
		"qualified", len(qualified),
		"not_estate", tally[model.ReasonNotEstate],
		"excluded", tally[model.ReasonExcluded],
		"not_disposed", tally[model.ReasonNotDisposed],
		"too_recent", tally[model.ReasonTooRecent],
	)
	return qualified
}

func (f *Filter) entries(pageText string) []entry {
	lines := strings.Split(pageText, "\n")
	year := f.now().Year()

	var entries []entry
	for i, line := range lines {
		m := listingCaseNumber.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		end := min(i+f.cfg.LookaheadLines, len(lines))
		e := entry{
			caseNumber: strings.ToUpper(m[0]),
			window:     lines[i:end],
		}
		e.verdict = f.judge(e.caseNumber, m[1], strings.Join(e.window, " "), year)
		entries = append(entries, e)
	}
	return entries
}

// judge applies the gates in order: estate, excluded status, disposition, age
func (f *Filter) judge(caseNumber, yy, context string, year int) model.Verdict {
	v := model.Verdict{CaseNumber: caseNumber}

	caseYear, _ := strconv.Atoi(yy)
	v.AgeYears = year - (2000 + caseYear)

	switch {
	case !strings.Contains(strings.ToUpper(context), "ESTATE"):
		v.Reason = model.ReasonNotEstate
	case containsAnyOf(context, f.cfg.ExcludedStatusMarkers):
		v.Reason = model.ReasonExcluded
	case !containsAllOf(context, f.cfg.RequiredDispositionMarkers):
		v.Reason = model.ReasonNotDisposed
	case v.AgeYears < f.cfg.MinEstateAgeYears:
		v.Reason = model.ReasonTooRecent
	default:
		v.Qualified = true
	}
	return v
}

func containsAnyOf(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func containsAllOf(text string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

// decedentName reads the name from the first window line that has one
func decedentName(window []string) string {
	for _, line := range window {
		loc := listingDecedent.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		name := line[loc[2]:loc[3]]

		// A capital that starts a mixed-case word is not part of the name
		if next, _ := utf8.DecodeRuneInString(line[loc[3]:]); unicode.IsLower(next) {
			if i := strings.LastIndexByte(name, ' '); i >= 0 {
				name = name[:i]
			} else {
				continue
			}
		}

		if gap := nameGap.FindStringIndex(name); gap != nil {
			name = name[:gap[0]]
		}
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return UnknownDecedent
}

// findTarget returns the first anchor naming the case, ignoring hyphens
func findTarget(anchors []dom.Link, caseNumber string) model.NavigationTarget {
	want := strings.ReplaceAll(caseNumber, "-", "")
	for _, a := range anchors {
		text := strings.ToUpper(strings.ReplaceAll(a.Text, "-", ""))
		if strings.Contains(text, want) {
			return model.NavigationTarget{Href: a.Href, Text: a.Text, Resolved: true}
		}
	}
	return model.NavigationTarget{Href: model.PlaceholderHref}
}
