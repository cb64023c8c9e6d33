package classify

import (
	"testing"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		url    string
		expect model.PageKind
	}{
		{
			name:   "case info table",
			html:   `<table><tr><td>Case Number</td><td>22E001713-100</td></tr></table>`,
			url:    "https://portal.example.gov/x",
			expect: model.PageDetail,
		},
		{
			name:   "party table",
			html:   `<table><tr><td>Petitioner</td><td>JANE DOE</td></tr></table>`,
			url:    "https://portal.example.gov/x",
			expect: model.PageDetail,
		},
		{
			name:   "detail url",
			html:   `<p>Loading</p>`,
			url:    "https://portal.example.gov/CaseDetail?id=5",
			expect: model.PageDetail,
		},
		{
			name:   "search results phrase",
			html:   `<p>Search Results</p>`,
			url:    "https://portal.example.gov/search",
			expect: model.PageListing,
		},
		{
			name:   "displaying records",
			html:   `<p>Displaying 1 - 25 of 80 records</p>`,
			url:    "https://portal.example.gov/search",
			expect: model.PageListing,
		},
		{
			name:   "single case number",
			html:   `<p>22E001713-100 ESTATE OF JOHN DOE</p>`,
			url:    "https://portal.example.gov/search",
			expect: model.PageDetail,
		},
		{
			name:   "several case numbers",
			html:   `<p>22E001713-100</p><p>21E000001-200</p>`,
			url:    "https://portal.example.gov/search",
			expect: model.PageListing,
		},
		{
			name:   "nothing recognizable",
			html:   `<p>Welcome to the portal</p>`,
			url:    "https://portal.example.gov/",
			expect: model.PageUnknown,
		},
		{
			name:   "table rule beats listing phrase",
			html:   `<p>Search Results</p><table><tr><td>Register of Actions</td></tr></table>`,
			url:    "https://portal.example.gov/search",
			expect: model.PageDetail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := dom.ParseString(tt.html, tt.url)
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			if got := ClassifyPage(page); got != tt.expect {
				t.Errorf("ClassifyPage = %s, want %s", got, tt.expect)
			}
		})
	}
}

func TestClassifyPage_Nil(t *testing.T) {
	if got := ClassifyPage(nil); got != model.PageUnknown {
		t.Errorf("ClassifyPage(nil) = %s", got)
	}
}
