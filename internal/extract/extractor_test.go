package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

const detailPage = `<html><body>
<h2>IN THE MATTER OF THE ESTATE OF JOHN DOE</h2>
<table id="info">
  <tr><td>Case Number:</td><td>22 E001713 -100</td></tr>
  <tr><td>Filing Date:</td><td>01/15/2019</td></tr>
  <tr><td>Case Status:</td><td>Disposed</td></tr>
  <tr><td>County:</td><td>Wake</td></tr>
</table>
<table id="parties">
  <tr><th>Party Type</th><th>Party Name</th><th>Address</th></tr>
  <tr><td>Decedent Estate</td><td>JOHN DOE</td><td>1 ELM ST</td></tr>
  <tr><td>Executor</td><td>JANE DOE</td><td>2 OAK AVE</td></tr>
  <tr><td>Heir</td><td>JIM DOE</td><td></td></tr>
</table>
<table id="docket">
  <tr><th>Filed Date</th><th>Document</th></tr>
  <tr><td>01/15/2019</td><td><a href="/docs/app.pdf">Application for Letters</a></td></tr>
  <tr><td>02/20/2019</td><td>Hearing continued to a later date</td></tr>
</table>
</body></html>`

func newTestExtractor() *Extractor {
	return NewExtractor(model.DefaultDocumentConfig())
}

func mustParse(t *testing.T, src string) *dom.Page {
	t.Helper()
	page, err := dom.ParseString(src, "https://portal.example.gov/casedetail")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return page
}

func TestExtract_ExecutorRowScores15(t *testing.T) {
	page := mustParse(t, `<table>
		<tr><th>Party Type</th><th>Party Name</th></tr>
		<tr><td>Executor</td><td>JANE DOE</td></tr>
	</table>`)

	rec := newTestExtractor().Extract(page)

	if rec.Parties.Executor.Name != "JANE DOE" {
		t.Errorf("executor = %q, want JANE DOE", rec.Parties.Executor.Name)
	}
	if rec.ExtractionQuality != 15 {
		t.Errorf("quality = %d, want 15 (awards %+v)", rec.ExtractionQuality, rec.Awards)
	}
}

func TestExtract_ExecutorRowWithLocationColumns(t *testing.T) {
	page := mustParse(t, `<table>
		<tr><th>Party Type</th><th>Party Name</th><th>Address</th><th>City</th><th>State</th><th>Zip</th></tr>
		<tr><td>Executor</td><td>JANE DOE</td><td>123 Main St</td><td>Raleigh</td><td>NC</td><td>27601</td></tr>
	</table>`)

	rec := newTestExtractor().Extract(page)

	want := model.PersonRecord{Name: "JANE DOE", Address: "123 Main St", City: "Raleigh", State: "NC", Zip: "27601", Phone: ""}
	if diff := cmp.Diff(want, rec.Parties.Executor); diff != "" {
		t.Errorf("executor mismatch (-want +got):\n%s", diff)
	}
	if rec.ExtractionQuality != 15 {
		t.Errorf("quality = %d, want 15 (awards %+v)", rec.ExtractionQuality, rec.Awards)
	}
}

func TestExtract_PersonNotMixedAcrossStrategies(t *testing.T) {
	page := mustParse(t, `<body>
		<table>
			<tr><th>Party Type</th><th>Party Name</th></tr>
			<tr><td>Estate</td><td>JOHN DOE</td></tr>
		</table>
		<div>Party Information</div>
		<div>Decedent</div><div>MARY ROE</div><div>99 PINE RD RALEIGH NC</div>
		<div>Executor</div><div>PAT ROE</div><div>5 ASH CT</div>
	</body>`)

	rec := newTestExtractor().Extract(page)

	if diff := cmp.Diff(model.PersonRecord{Name: "JOHN DOE"}, rec.Parties.Decedent); diff != "" {
		t.Errorf("decedent mismatch (-want +got):\n%s", diff)
	}
	// The table had no executor, so the section's executor is taken whole
	if diff := cmp.Diff(model.PersonRecord{Name: "PAT ROE", Address: "5 ASH CT"}, rec.Parties.Executor); diff != "" {
		t.Errorf("executor mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_PartySectionStopsAtCaseSummary(t *testing.T) {
	page := mustParse(t, `<body>
		<div>PARTY INFORMATION</div>
		<div>Decedent</div><div>JOHN DOE</div>
		<div>Case Summary</div>
		<div>ESTATE CLOSED</div>
		<div>12 FILINGS ON RECORD</div>
	</body>`)

	rec := newTestExtractor().Extract(page)

	if diff := cmp.Diff(model.PersonRecord{Name: "JOHN DOE"}, rec.Parties.Decedent); diff != "" {
		t.Errorf("decedent mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(rec.Sections.Parties, "ESTATE CLOSED") {
		t.Errorf("party section ran into the case summary: %q", rec.Sections.Parties)
	}
}

func TestExtract_FullDetailPage(t *testing.T) {
	rec := newTestExtractor().Extract(mustParse(t, detailPage))

	if rec.CaseNumber != "22E001713-100" {
		t.Errorf("case number = %q", rec.CaseNumber)
	}
	if rec.FilingDate != "01/15/2019" || rec.CaseStatus != "Disposed" || rec.County != "Wake" {
		t.Errorf("case info = %q / %q / %q", rec.FilingDate, rec.CaseStatus, rec.County)
	}
	if rec.CaseType != "Estate" {
		t.Errorf("case type = %q, want Estate from the text strategy", rec.CaseType)
	}

	wantParties := model.Parties{
		Decedent:      model.PersonRecord{Name: "JOHN DOE", Address: "1 ELM ST"},
		Executor:      model.PersonRecord{Name: "JANE DOE", Address: "2 OAK AVE"},
		Beneficiaries: []model.PersonRecord{{Name: "JIM DOE"}},
	}
	if diff := cmp.Diff(wantParties, rec.Parties); diff != "" {
		t.Errorf("parties mismatch (-want +got):\n%s", diff)
	}

	if len(rec.Documents) != 1 || rec.Documents[0].URL != "https://portal.example.gov/docs/app.pdf" {
		t.Errorf("documents = %+v", rec.Documents)
	}
	if len(rec.Events) != 1 || rec.Events[0].Date != "02/20/2019" {
		t.Errorf("events = %+v", rec.Events)
	}

	// case 20 + filing 10 + status 10 + county 5 + decedent 15 + executor 15 + heir 10 + documents 20
	if rec.ExtractionQuality != 105 {
		t.Errorf("quality = %d, want 105 (awards %+v)", rec.ExtractionQuality, rec.Awards)
	}
	for _, a := range rec.Awards {
		if a.Strategy != "table" {
			t.Errorf("award %+v should come from the table strategy", a)
		}
	}
}

func TestExtract_QualityIsSumOfAwards(t *testing.T) {
	rec := newTestExtractor().Extract(mustParse(t, detailPage))

	sum := 0
	for _, a := range rec.Awards {
		sum += a.Points
	}
	if sum != rec.ExtractionQuality {
		t.Errorf("quality %d != award sum %d", rec.ExtractionQuality, sum)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	page := mustParse(t, detailPage)
	e := newTestExtractor()

	first := e.Extract(page)
	second := e.Extract(page)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second extraction differs (-first +second):\n%s", diff)
	}
}

func TestExtract_EmptyPage(t *testing.T) {
	rec := newTestExtractor().Extract(mustParse(t, `<html><body></body></html>`))

	if rec.CaseNumber != "" || rec.ExtractionQuality != 0 {
		t.Errorf("expected empty record, got %+v", rec)
	}
	if rec.Documents == nil || rec.Events == nil || rec.Parties.Beneficiaries == nil {
		t.Error("lists should be empty, not nil")
	}

	if rec := newTestExtractor().Extract(nil); rec.ExtractionQuality != 0 {
		t.Errorf("nil page quality = %d", rec.ExtractionQuality)
	}
}

func TestExtract_TextFallback(t *testing.T) {
	page := mustParse(t, `<body>
		<p>Estate of MARY SMITH, Deceased</p>
		<p>File 21E000555-300 Filed: 03/04/2021 Disposed</p>
		<div>Case Events</div>
		<div>04/02/2021 Letters Testamentary issued. A document is available.</div>
		<div>05/10/2021 Hearing scheduled</div>
		<div>Party Information</div>
		<div>Decedent</div><div>MARY SMITH</div>
		<div>Executor</div><div>PAT SMITH</div><div>77 HILL RD</div>
	</body>`)

	rec := newTestExtractor().Extract(page)

	if rec.CaseNumber != "21E000555-300" {
		t.Errorf("case number = %q", rec.CaseNumber)
	}
	if rec.FilingDate != "03/04/2021" || rec.CaseStatus != "Disposed" {
		t.Errorf("filing/status = %q / %q", rec.FilingDate, rec.CaseStatus)
	}
	if rec.Parties.Executor.Name != "PAT SMITH" || rec.Parties.Executor.Address != "77 HILL RD" {
		t.Errorf("executor = %+v", rec.Parties.Executor)
	}
	wantEvents := []model.EventRecord{
		{Date: "04/02/2021", Description: "Letters Testamentary issued. A document is available.", HasDocument: true},
		{Date: "05/10/2021", Description: "Hearing scheduled"},
	}
	if diff := cmp.Diff(wantEvents, rec.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	// case 10 + filing 10 + status 10 + party section 15 + decedent 5 + events section 15
	if rec.ExtractionQuality != 65 {
		t.Errorf("quality = %d, want 65 (awards %+v)", rec.ExtractionQuality, rec.Awards)
	}
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "broken" }

func (panickingStrategy) Extract(*dom.Page) Partial { panic("boom") }

func TestExtract_StrategyPanicIsContained(t *testing.T) {
	e := &Extractor{}
	e.Register(panickingStrategy{})
	e.Register(NewTableStrategy(defaultDocOptions()))
	e.logger = newTestExtractor().logger

	rec := e.Extract(mustParse(t, detailPage))
	if rec.CaseNumber != "22E001713-100" {
		t.Errorf("later strategies should still run, got %+v", rec.CaseNumber)
	}
}

func TestPartialStep_RecoversPanic(t *testing.T) {
	p := newPartial("test")
	p.step("explode", func() {
		var tables []dom.Table
		_ = tables[3]
	})
	p.step("fine", func() { p.award(model.FieldCounty, 5) })

	if len(p.Failures) != 1 {
		t.Errorf("failures = %v", p.Failures)
	}
	if len(p.Awards) != 1 {
		t.Errorf("later steps should still run, awards = %v", p.Awards)
	}
}

func TestParseEvents(t *testing.T) {
	events := ParseEvents("\n01/02/2020 Petition filed\n02/03/2020 Bond posted Click here to view\n")
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].HasDocument || !events[1].HasDocument {
		t.Errorf("HasDocument flags wrong: %+v", events)
	}
	if events[1].Description != "Bond posted Click here to view" {
		t.Errorf("description = %q", events[1].Description)
	}
}
