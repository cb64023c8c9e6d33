package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

// Strategy extracts whatever it can from a page snapshot
type Strategy interface {
	// Name identifies the strategy in awards and logs
	Name() string

	// Extract returns a partial record and the points it earned
	Extract(page *dom.Page) Partial
}

// Partial is one strategy's contribution to a case record
type Partial struct {
	Record   model.CaseRecord
	Awards   []model.Award
	Failures []string // Steps that panicked and were skipped

	strategy string
}

func newPartial(strategy string) Partial {
	return Partial{strategy: strategy}
}

func (p *Partial) award(field model.Field, points int) {
	p.Awards = append(p.Awards, model.Award{Field: field, Points: points, Strategy: p.strategy})
}

// step runs one extraction step; a panic only loses that step
func (p *Partial) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.Failures = append(p.Failures, fmt.Sprintf("%s: %v", name, r))
		}
	}()
	fn()
}

// TableStrategy reads label/value cells, the party table and the docket table
type TableStrategy struct {
	docs DocumentOptions
}

// NewTableStrategy creates the structured table strategy
func NewTableStrategy(docs DocumentOptions) *TableStrategy {
	return &TableStrategy{docs: docs}
}

// Name returns the strategy name
func (s *TableStrategy) Name() string {
	return "table"
}

// Extract reads the structured parts of the page
func (s *TableStrategy) Extract(page *dom.Page) Partial {
	p := newPartial(s.Name())
	rec := &p.Record

	p.step("case number", func() {
		if v, ok := MatchFieldFunc(page.Cells, acceptCaseNumber, caseNumberLabels...); ok {
			rec.CaseNumber = v
			p.award(model.FieldCaseNumber, 20)
		}
	})

	p.step("filing date", func() {
		if v, ok := MatchFieldFunc(page.Cells, acceptDate, filingDateLabels...); ok {
			rec.FilingDate = v
			p.award(model.FieldFilingDate, 10)
		}
	})

	p.step("case status", func() {
		if v, ok := MatchField(page.Cells, statusLabels...); ok {
			rec.CaseStatus = v
			p.award(model.FieldCaseStatus, 10)
		}
	})

	p.step("county", func() {
		if v, ok := MatchFieldFunc(page.Cells, acceptCounty, countyLabels...); ok {
			rec.County = v
			p.award(model.FieldCounty, 5)
		}
	})

	p.step("case type", func() {
		if v, ok := MatchField(page.Cells, caseTypeLabels...); ok {
			rec.CaseType = v
		}
	})

	p.step("parties", func() {
		assignment, ok := ClassifyParties(page.FindTable(partyTableMarkers...))
		if !ok {
			return
		}
		rec.Parties = assignment.Parties
		if assignment.DecedentRows > 0 {
			p.award(model.FieldDecedent, 15)
		}
		if assignment.ExecutorRows > 0 {
			p.award(model.FieldExecutor, 15)
		}
		for range assignment.Beneficiaries {
			p.award(model.FieldBeneficiaries, 10)
		}
	})

	p.step("documents", func() {
		docket := page.FindTable(docketTableMarkers...)
		rec.Documents = HarvestDocuments(docket, page.Links, s.docs)
		if len(rec.Documents) > 0 {
			p.award(model.FieldDocuments, 20)
		}
		rec.Events = docketEvents(docket)
	})

	return p
}

// docketEvents turns docket rows without a link into events
func docketEvents(docket *dom.Table) []model.EventRecord {
	if docket == nil {
		return nil
	}
	var events []model.EventRecord
	for _, row := range docket.Rows {
		if len(row.Links) > 0 || headerRow(row) {
			continue
		}
		text := strings.TrimSpace(row.Text)
		if len(text) <= 10 {
			continue
		}
		events = append(events, model.EventRecord{
			Date:        firstDate(text),
			Description: dom.CollapseSpace(text),
		})
	}
	return events
}

func headerRow(row dom.Row) bool {
	for _, c := range row.Cells {
		if !c.Header {
			return false
		}
	}
	return len(row.Cells) > 0
}

// TextStrategy works on the rendered page text alone
type TextStrategy struct {
	docs DocumentOptions
}

// NewTextStrategy creates the free-text fallback strategy
func NewTextStrategy(docs DocumentOptions) *TextStrategy {
	return &TextStrategy{docs: docs}
}

// Name returns the strategy name
func (s *TextStrategy) Name() string {
	return "text"
}

// Extract scans the page text with patterns and section headings
func (s *TextStrategy) Extract(page *dom.Page) Partial {
	p := newPartial(s.Name())
	rec := &p.Record
	text := page.Text

	p.step("case number", func() {
		if v, ok := FindCaseNumber(text); ok {
			rec.CaseNumber = v
			p.award(model.FieldCaseNumber, 10)
		}
	})

	p.step("filing date", func() {
		for _, re := range filingDatePatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				rec.FilingDate = m[1]
				p.award(model.FieldFilingDate, 10)
				return
			}
		}
	})

	p.step("case status", func() {
		if strings.Contains(strings.ToLower(text), "disposed") {
			rec.CaseStatus = "Disposed"
			p.award(model.FieldCaseStatus, 10)
		}
	})

	p.step("county", func() {
		if v, ok := countyFromText(text); ok {
			rec.County = v
			p.award(model.FieldCounty, 5)
		}
	})

	p.step("case type", func() {
		if strings.Contains(strings.ToLower(text), "estate") {
			rec.CaseType = "Estate"
		}
	})

	p.step("party section", func() {
		body, ok := section(text, partySectionHeading, eventSectionHeading, summarySectionHeading)
		if !ok || strings.TrimSpace(body) == "" {
			return
		}
		rec.Sections.Parties = strings.TrimSpace(body)
		rec.Parties = PartiesFromSection(body)
		p.award(model.FieldPartySection, 15)
	})

	p.step("decedent", func() {
		if rec.Parties.Decedent.Name == "" {
			if name, ok := DecedentFromText(text); ok {
				rec.Parties.Decedent = model.PersonRecord{Name: name}
			}
		}
		if rec.Parties.Decedent.Name != "" {
			p.award(model.FieldDecedent, 5)
		}
	})

	p.step("events section", func() {
		body, ok := section(text, eventSectionHeading, partySectionHeading)
		if !ok || strings.TrimSpace(body) == "" {
			return
		}
		rec.Sections.Events = strings.TrimSpace(body)
		rec.Events = ParseEvents(body)
		p.award(model.FieldEventsSection, 15)

		docs := eventDocuments(page.Tables, rec.Events)
		rec.Documents = PrioritizeDocuments(SortDocuments(docs), s.docs)
		if len(rec.Documents) > 0 {
			p.award(model.FieldDocuments, 20)
		}
	})

	return p
}

// ParseEvents splits an events section on its dates; each date opens an
// event whose description runs to the next date
func ParseEvents(body string) []model.EventRecord {
	locs := datePattern.FindAllStringIndex(body, -1)
	events := make([]model.EventRecord, 0, len(locs))
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := body[loc[1]:end]
		events = append(events, model.EventRecord{
			Date:        body[loc[0]:loc[1]],
			Description: dom.CollapseSpace(block),
			HasDocument: containsAny(block, eventDocumentPhrases),
		})
	}
	return events
}

func countyFromText(text string) (string, bool) {
	if m := countyLabelPattern.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v, true
		}
	}
	if m := countySuffixPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}
