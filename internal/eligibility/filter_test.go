package eligibility

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
}

func newFilter(year int) *Filter {
	return New(model.DefaultEligibilityConfig(), WithClock(fixedClock(year)))
}

const listing = `Search Results
22E001713-100	ESTATE OF JOHN SMITH	Wake
Disposed	Clerk of Superior Court
21CV000001-100 civil matter
Page 1
Wake County
24E000300-100	ESTATE OF NEW CASE
Disposed - Clerk of Superior Court
Filed
Wake County
Notes
23E000200-100	IN THE MATTER OF THE ESTATE OF MARY JONES
Pending
Clerk of Superior Court`

func TestScan_QualifiesOldDisposedEstates(t *testing.T) {
	anchors := []dom.Link{
		{Href: "https://portal.example.gov/case/1", Text: "22E001713-100"},
	}

	got := newFilter(2025).Scan(listing, anchors)

	want := []model.QualifiedCase{{
		CaseNumber:   "22E001713-100",
		DecedentName: "JOHN SMITH",
		Target: model.NavigationTarget{
			Href:     "https://portal.example.gov/case/1",
			Text:     "22E001713-100",
			Resolved: true,
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("qualified mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	got := newFilter(2025).Evaluate(listing)

	want := []model.Verdict{
		{CaseNumber: "22E001713-100", Qualified: true, AgeYears: 3},
		{CaseNumber: "24E000300-100", Reason: model.ReasonTooRecent, AgeYears: 1},
		{CaseNumber: "23E000200-100", Reason: model.ReasonExcluded, AgeYears: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verdicts mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_AgeBoundaryInclusive(t *testing.T) {
	text := "22E001713-100 ESTATE OF JOHN SMITH Disposed Clerk of Superior Court"

	if got := newFilter(2024).Scan(text, nil); len(got) != 1 {
		t.Errorf("case aged exactly 2 years should qualify, got %d", len(got))
	}
	if got := newFilter(2023).Scan(text, nil); len(got) != 0 {
		t.Errorf("case aged 1 year should be rejected, got %d", len(got))
	}
}

func TestScan_DispositionRequiresAllMarkers(t *testing.T) {
	f := newFilter(2030)

	if got := f.Scan("22E001713-100 ESTATE OF JOHN SMITH Disposed", nil); len(got) != 0 {
		t.Error("Disposed alone must not qualify")
	}
	if got := f.Scan("22E001713-100 ESTATE OF JOHN SMITH Clerk of Superior Court", nil); len(got) != 0 {
		t.Error("Clerk of Superior Court alone must not qualify")
	}
}

func TestScan_RequiresEstate(t *testing.T) {
	got := newFilter(2030).Evaluate("22E001713-100 SMITH v JONES Disposed Clerk of Superior Court")
	if len(got) != 1 || got[0].Reason != model.ReasonNotEstate {
		t.Errorf("verdicts = %+v", got)
	}
}

func TestScan_LookaheadWindow(t *testing.T) {
	text := "22E001713-100 ESTATE OF JOHN SMITH\n.\n.\n.\nDisposed\nClerk of Superior Court"

	// Default window is five lines, which stops short of the clerk line
	if got := newFilter(2030).Scan(text, nil); len(got) != 0 {
		t.Errorf("marker outside the window should not count, got %+v", got)
	}

	cfg := model.DefaultEligibilityConfig()
	cfg.LookaheadLines = 6
	if got := New(cfg, WithClock(fixedClock(2030))).Scan(text, nil); len(got) != 1 {
		t.Errorf("wider window should qualify, got %d", len(got))
	}
}

func TestScan_KeepsDuplicates(t *testing.T) {
	line := "22E001713-100 ESTATE OF JOHN SMITH Disposed Clerk of Superior Court"
	got := newFilter(2030).Scan(line+"\n"+line, nil)
	if len(got) != 2 {
		t.Fatalf("expected both occurrences, got %d", len(got))
	}
	if got[0].CaseNumber != got[1].CaseNumber {
		t.Errorf("case numbers differ: %q, %q", got[0].CaseNumber, got[1].CaseNumber)
	}
}

func TestScan_UnresolvedTarget(t *testing.T) {
	got := newFilter(2030).Scan("22E001713-100 ESTATE OF JOHN SMITH Disposed Clerk of Superior Court", []dom.Link{
		{Href: "https://portal.example.gov/other", Text: "21E000001-100"},
	})
	if len(got) != 1 {
		t.Fatalf("expected one case, got %d", len(got))
	}
	if got[0].Target.Resolved || got[0].Target.Href != model.PlaceholderHref {
		t.Errorf("target = %+v, want placeholder", got[0].Target)
	}
}

func TestFindTarget_IgnoresHyphens(t *testing.T) {
	target := findTarget([]dom.Link{{Href: "/c/9", Text: "22E001713100"}}, "22E001713-100")
	if !target.Resolved || target.Href != "/c/9" {
		t.Errorf("target = %+v", target)
	}
}

func TestDecedentName(t *testing.T) {
	tests := []struct {
		window []string
		want   string
	}{
		{[]string{"22E001713-100 ESTATE OF JOHN SMITH Disposed"}, "JOHN SMITH"},
		{[]string{"22E001713-100", "IN THE MATTER OF THE ESTATE OF MARY  ANN JONES"}, "MARY"},
		{[]string{"22E001713-100 Estate of ROBERT KING\tWake"}, "ROBERT KING"},
		{[]string{"22E001713-100 SMITH v JONES"}, UnknownDecedent},
		{[]string{"22E001713-100 Estate of John Smith"}, UnknownDecedent},
	}
	for _, tt := range tests {
		if got := decedentName(tt.window); got != tt.want {
			t.Errorf("decedentName(%q) = %q, want %q", tt.window, got, tt.want)
		}
	}
}
