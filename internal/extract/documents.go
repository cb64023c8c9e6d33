package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/estatescout/internal/dom"
	"github.com/ppiankov/estatescout/internal/model"
)

const portalDateLayout = "1/2/2006"

// DocumentOptions tunes which harvested documents are kept
type DocumentOptions struct {
	PriorityKeywords []string
	SkipKeywords     []string
}

// DocumentOptionsFrom lowercases the configured keyword lists
func DocumentOptionsFrom(cfg model.DocumentConfig) DocumentOptions {
	return DocumentOptions{
		PriorityKeywords: lowerAll(cfg.PriorityKeywords),
		SkipKeywords:     lowerAll(cfg.SkipKeywords),
	}
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

// HarvestDocuments collects document links from the docket table, one per
// row. Rows sharing a link stay separate filings. Only when the page has no
// docket table is every page link that looks like a document used instead.
// Results come back oldest first with the skip list applied.
func HarvestDocuments(docket *dom.Table, links []dom.Link, opts DocumentOptions) []model.DocumentRecord {
	var docs []model.DocumentRecord

	if docket != nil {
		for _, row := range docket.Rows {
			link, ok := firstLink(row.Links, docketLinkPattern)
			if !ok {
				continue
			}
			docs = append(docs, newDocument(link.Href, documentName(link, "Document"), firstDate(row.Text), row.Text))
		}
	} else {
		n := 0
		for _, link := range links {
			if !fallbackLinkPattern.MatchString(link.Href) {
				continue
			}
			n++
			docs = append(docs, newDocument(link.Href, documentName(link, fmt.Sprintf("Document_%d", n)), "", ""))
		}
	}

	return PrioritizeDocuments(SortDocuments(docs), opts)
}

func firstLink(links []dom.Link, pattern *regexp.Regexp) (dom.Link, bool) {
	for _, l := range links {
		if pattern.MatchString(l.Href) {
			return l, true
		}
	}
	return dom.Link{}, false
}

func documentName(link dom.Link, fallback string) string {
	switch {
	case link.Text != "":
		return link.Text
	case link.Title != "":
		return link.Title
	default:
		return fallback
	}
}

// newDocument builds a record; an empty or unreadable date sorts at the epoch
func newDocument(href, name, date, rowText string) model.DocumentRecord {
	doc := model.DocumentRecord{
		URL:     href,
		Name:    name,
		SortKey: model.Epoch,
		RowText: rowText,
	}
	if date == "" {
		return doc
	}
	if t, err := time.Parse(portalDateLayout, date); err == nil {
		d := date
		doc.Date = &d
		doc.SortKey = t
	}
	return doc
}

// SortDocuments orders documents ascending by date. Undated documents sort
// as the epoch; equal keys keep their input order.
func SortDocuments(docs []model.DocumentRecord) []model.DocumentRecord {
	sorted := make([]model.DocumentRecord, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortKey.Before(sorted[j].SortKey)
	})
	return sorted
}

// PrioritizeDocuments drops documents that hit a skip keyword, unless they
// also hit a priority keyword. Name and row text are both checked. When
// nothing survives the full list is returned.
func PrioritizeDocuments(docs []model.DocumentRecord, opts DocumentOptions) []model.DocumentRecord {
	kept := make([]model.DocumentRecord, 0, len(docs))
	for _, doc := range docs {
		haystack := strings.ToLower(doc.Name + " " + doc.RowText)
		important := containsAny(haystack, opts.PriorityKeywords)
		skip := containsAny(haystack, opts.SkipKeywords)
		if important || !skip {
			kept = append(kept, doc)
		}
	}
	if len(kept) == 0 {
		return docs
	}
	return kept
}

// eventDocuments finds the document links the events section points to. A
// link qualifies when its text says a document is available and its row
// mentions the event date.
func eventDocuments(tables []dom.Table, events []model.EventRecord) []model.DocumentRecord {
	var docs []model.DocumentRecord
	for _, event := range events {
		if !event.HasDocument || event.Date == "" {
			continue
		}
		docType := "Document"
		if m := eventDocumentTypes.FindString(event.Description); m != "" {
			docType = m
		}
		for _, table := range tables {
			for _, row := range table.Rows {
				if !strings.Contains(row.Text, event.Date) {
					continue
				}
				for _, link := range row.Links {
					if !containsAny(link.Text, eventDocumentPhrases) {
						continue
					}
					name := fmt.Sprintf("%s_%s.pdf", docType, strings.ReplaceAll(event.Date, "/", "-"))
					docs = append(docs, newDocument(link.Href, name, event.Date, row.Text))
				}
			}
		}
	}
	return docs
}
