package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/estatescout/internal/dom"
)

// Cells longer than this are layout or prose, never a label
const maxLabelLength = 60

// MatchField finds the first cell whose text contains one of the labels
// (ignoring case) and returns the text of the cell after it. A label cell
// that carries its own value after a colon ("Case Number: 22E...") yields
// that value instead. Cells wrapping nested tables are skipped. ok is
// false when no non-empty value is found.
func MatchField(cells []dom.Cell, labels ...string) (string, bool) {
	return MatchFieldFunc(cells, nonEmpty, labels...)
}

// MatchFieldFunc is MatchField with a validator: label hits whose value
// accept rejects are skipped and the search goes on. The returned value
// is the one accept produced.
func MatchFieldFunc(cells []dom.Cell, accept func(string) (string, bool), labels ...string) (string, bool) {
	for i, cell := range cells {
		if cell.Container || utf8.RuneCountInString(cell.Text) > maxLabelLength {
			continue
		}
		if !containsAny(cell.Text, labels) {
			continue
		}

		if inline := inlineValue(cell.Text); inline != "" {
			if value, ok := accept(inline); ok {
				return value, true
			}
			continue
		}

		next := nextValueCell(cells, i)
		if next < 0 {
			continue
		}
		if value, ok := accept(strings.TrimSpace(cells[next].Text)); ok {
			return value, true
		}
	}
	return "", false
}

func nonEmpty(value string) (string, bool) {
	return value, value != ""
}

func inlineValue(text string) string {
	_, after, found := strings.Cut(text, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

func nextValueCell(cells []dom.Cell, i int) int {
	for j := i + 1; j < len(cells); j++ {
		if !cells[j].Container {
			return j
		}
	}
	return -1
}

// Validators for the table strategy

func acceptCaseNumber(value string) (string, bool) {
	return FindCaseNumber(value)
}

func acceptDate(value string) (string, bool) {
	date := firstDate(value)
	return date, date != ""
}

func acceptCounty(value string) (string, bool) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), " County"))
	if value == "" || strings.ContainsAny(value, "0123456789") {
		return "", false
	}
	return value, true
}
