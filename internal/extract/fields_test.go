package extract

import (
	"testing"

	"github.com/ppiankov/estatescout/internal/dom"
)

func cells(texts ...string) []dom.Cell {
	out := make([]dom.Cell, len(texts))
	for i, t := range texts {
		out[i] = dom.Cell{Text: t}
	}
	return out
}

func TestMatchField_NextCell(t *testing.T) {
	value, ok := MatchField(cells("Case Status:", "Disposed", "County", "Wake"), "status")
	if !ok || value != "Disposed" {
		t.Errorf("MatchField = %q, %v; want Disposed, true", value, ok)
	}
}

func TestMatchField_CaseInsensitiveAnyLabel(t *testing.T) {
	value, ok := MatchField(cells("DATE FILED", "03/01/2020"), filingDateLabels...)
	if !ok || value != "03/01/2020" {
		t.Errorf("MatchField = %q, %v", value, ok)
	}
}

func TestMatchField_InlineValue(t *testing.T) {
	value, ok := MatchField(cells("Case Number: 22E001713-100", "Filing Date"), caseNumberLabels...)
	if !ok || value != "22E001713-100" {
		t.Errorf("MatchField = %q, %v", value, ok)
	}
}

func TestMatchField_LabelInLastCell(t *testing.T) {
	if value, ok := MatchField(cells("Wake", "County"), "county"); ok {
		t.Errorf("expected no match, got %q", value)
	}
}

func TestMatchField_SkipsContainersAndProse(t *testing.T) {
	input := []dom.Cell{
		{Text: "Case Number 22E001713-100 Filing Date 03/01/2020", Container: true},
		{Text: "Case Number"},
		{Text: "wrapper", Container: true},
		{Text: "22E001713-100"},
	}
	value, ok := MatchField(input, caseNumberLabels...)
	if !ok || value != "22E001713-100" {
		t.Errorf("MatchField = %q, %v", value, ok)
	}
}

func TestMatchFieldFunc_ContinuesPastRejectedValue(t *testing.T) {
	input := cells("Case Number", "Filing Date", "Case No.", "22 e001713 -100")
	value, ok := MatchFieldFunc(input, acceptCaseNumber, caseNumberLabels...)
	if !ok || value != "22E001713-100" {
		t.Errorf("MatchFieldFunc = %q, %v", value, ok)
	}
}

func TestNormalizeCaseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"22 E001713 -100", "22E001713-100"},
		{"22e001713-100", "22E001713-100"},
		{"22E001713100", "22E001713-100"},
		{" 19E000042-200 ", "19E000042-200"},
	}
	for _, tt := range tests {
		if got := NormalizeCaseNumber(tt.raw); got != tt.want {
			t.Errorf("NormalizeCaseNumber(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFindCaseNumbers_KeepsOrderAndDuplicates(t *testing.T) {
	got := FindCaseNumbers("22E001713-100 then 19e000042-200 and again 22E001713-100")
	want := []string{"22E001713-100", "19E000042-200", "22E001713-100"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAcceptCounty(t *testing.T) {
	if v, ok := acceptCounty("Wake County"); !ok || v != "Wake" {
		t.Errorf("acceptCounty = %q, %v", v, ok)
	}
	if _, ok := acceptCounty("03/01/2020"); ok {
		t.Error("dates are not counties")
	}
}
