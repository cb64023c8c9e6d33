// Package classify decides whether a portal page lists cases or shows one
package classify

import (
	"net/url"
	"strings"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/extract"
	"github.com/ppiankov/estatescout/internal/model"
)

var (
	caseInfoMarkers = []string{"case number", "filing date", "case status"}
	partyMarkers    = []string{"party type", "petitioner", "respondent"}
	docketMarkers   = []string{"docket", "register of actions", "filed date", "document"}

	detailPathMarkers = []string{"casedetail", "viewcase", "docket"}
	listingPhrases    = []string{"search results", "cases found", "the search returned"}
)

// Classify labels a page. Rules run in order and the first that fires wins:
// detail-looking tables, then a detail-looking URL path, then listing
// phrases, then a count of case numbers in the text.
func Classify(pageText string, tables []dom.Table, pageURL string) model.PageKind {
	for _, t := range tables {
		if t.Contains(caseInfoMarkers...) || t.Contains(partyMarkers...) || t.Contains(docketMarkers...) {
			return model.PageDetail
		}
	}

	if dom.ContainsAny(urlPath(pageURL), detailPathMarkers...) {
		return model.PageDetail
	}

	lower := strings.ToLower(pageText)
	if dom.ContainsAny(lower, listingPhrases...) ||
		(strings.Contains(lower, "displaying") && strings.Contains(lower, "records")) {
		return model.PageListing
	}

	switch n := len(extract.FindCaseNumbers(pageText)); {
	case n == 1:
		return model.PageDetail
	case n > 1:
		return model.PageListing
	default:
		return model.PageUnknown
	}
}

// ClassifyPage is Classify over a snapshot
func ClassifyPage(page *dom.Page) model.PageKind {
	if page == nil {
		return model.PageUnknown
	}
	return Classify(page.Text, page.Tables, page.URL)
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
