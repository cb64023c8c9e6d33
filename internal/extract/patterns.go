package extract

import (
	"regexp"
	"strings"
)

// Estate case numbers look like 22E001713-100; separators inside are tolerated
var caseNumberPattern = regexp.MustCompile(`(?i)\b(\d{2}[ \t]*E[ \t]*\d{6}[ \t]*-?[ \t]*\d{3})\b`)

// Dates as the portal prints them
var datePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

// Filing date shapes, tried in order
var filingDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Filing Date[:\s]+(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`(?i)Filed[:\s]+(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`(?i)Date Filed[:\s]+(\d{1,2}/\d{1,2}/\d{4})`),
}

// Free-text decedent, e.g. "Estate of JOHN Q PUBLIC, Deceased"
var decedentPattern = regexp.MustCompile(`(ESTATE OF|Estate of)\s+([A-Z][A-Za-z\s,.-]+?)(\n|Deceased|DECEASED|$)`)

var (
	countyLabelPattern  = regexp.MustCompile(`(?i)County[ \t]*:[ \t]*([A-Za-z][A-Za-z ]*)`)
	countySuffixPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?) County\b`)
)

// Lines inside the party section
var (
	sectionNameLine    = regexp.MustCompile(`^[A-Z][A-Z\s,]+$`)
	sectionAddressLine = regexp.MustCompile(`\d+.*[A-Z]`)
)

// Document types recognized in event descriptions, most specific first
var eventDocumentTypes = regexp.MustCompile(`(?i)(Application|Petition|Letters|Inventory|Account|Will|Order|Notice|Affidavit|Bond|Oath)`)

// Href shapes that point at a filed document
var (
	docketLinkPattern   = regexp.MustCompile(`(?i)\.pdf|viewdocument|document`)
	fallbackLinkPattern = regexp.MustCompile(`(?i)\.pdf|document`)
)

// Phrases the events section uses for an attached document
var eventDocumentPhrases = []string{"document is available", "click here to view"}

// Labels the Field Matcher looks for
var (
	caseNumberLabels = []string{"case number", "case #", "case no"}
	filingDateLabels = []string{"filing date", "date filed", "file date"}
	statusLabels     = []string{"case status", "status"}
	countyLabels     = []string{"county"}
	caseTypeLabels   = []string{"case type"}
)

// Markers that select tables
var (
	partyHeaderMarkers = []string{"party type", "party name"}
	partyTableMarkers  = []string{"party type", "party name", "petitioner", "respondent"}
	docketTableMarkers = []string{"register of actions", "docket", "filed date", "document"}
)

// Section headings in the rendered page text
const (
	partySectionHeading   = "Party Information"
	eventSectionHeading   = "Case Events"
	summarySectionHeading = "Case Summary"
)

// NormalizeCaseNumber uppercases a case number, drops inner whitespace and
// restores the hyphen before the three-digit suffix
func NormalizeCaseNumber(raw string) string {
	compact := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if len(compact) == 12 && !strings.Contains(compact, "-") {
		compact = compact[:9] + "-" + compact[9:]
	}
	return compact
}

// FindCaseNumber returns the first normalized case number in text
func FindCaseNumber(text string) (string, bool) {
	m := caseNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return NormalizeCaseNumber(m[1]), true
}

// FindCaseNumbers returns every normalized case number in text, in order
func FindCaseNumbers(text string) []string {
	var numbers []string
	for _, m := range caseNumberPattern.FindAllStringSubmatch(text, -1) {
		numbers = append(numbers, NormalizeCaseNumber(m[1]))
	}
	return numbers
}

func firstDate(text string) string {
	return datePattern.FindString(text)
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// section returns the text between start and the first of ends after it.
// Headings match without regard to case. Without any end the section runs
// to the end of text.
func section(text, start string, ends ...string) (string, bool) {
	loc := headingPattern(start).FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	cut := len(body)
	for _, end := range ends {
		if j := headingPattern(end).FindStringIndex(body); j != nil && j[0] < cut {
			cut = j[0]
		}
	}
	return body[:cut], true
}

func headingPattern(heading string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(heading))
}
