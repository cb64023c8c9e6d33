// Package dom converts an HTML document into a read-only snapshot that the
// extraction code queries instead of a live DOM.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a snapshot of one loaded page
type Page struct {
	URL    string
	Text   string  // innerText-like rendering of <body>
	Tables []Table // Document order
	Cells  []Cell  // Every td/th in document order
	Links  []Link  // Every <a> in document order
}

// Table is one <table> with its own rows (rows of nested tables excluded)
type Table struct {
	Index  int // Position in Page.Tables
	Parent int // Index of the enclosing table, -1 at top level
	Text   string
	Rows   []Row
}

// Row is one <tr>
type Row struct {
	Text  string // Cell texts joined by tabs
	Cells []Cell
	Links []Link
}

// Cell is one <td> or <th>
type Cell struct {
	Text      string
	Header    bool // <th>
	Container bool // Holds a nested table
}

// Link is one <a>
type Link struct {
	Href  string // Resolved against the page URL when relative
	Text  string
	Title string
}

var spaceRun = regexp.MustCompile(`\s+`)

// Parse reads an HTML document and builds its snapshot
func Parse(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromDocument(doc, pageURL), nil
}

// ParseString is Parse over an in-memory document
func ParseString(htmlContent string, pageURL string) (*Page, error) {
	return Parse(strings.NewReader(htmlContent), pageURL)
}

// FromDocument builds a snapshot from an already parsed document
func FromDocument(doc *goquery.Document, pageURL string) *Page {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	page := &Page{URL: pageURL}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	page.Text = RenderText(body.Nodes...)

	tables := doc.Find("table")
	positions := make(map[*html.Node]int, tables.Length())
	tables.Each(func(i int, s *goquery.Selection) {
		positions[s.Get(0)] = i
	})

	tables.Each(func(i int, s *goquery.Selection) {
		node := s.Get(0)
		table := Table{
			Index:  i,
			Parent: -1,
			Text:   RenderText(node),
		}
		if outer := s.ParentsFiltered("table").First(); outer.Length() > 0 {
			table.Parent = positions[outer.Get(0)]
		}

		s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.Closest("table").Get(0) != node {
				return
			}
			table.Rows = append(table.Rows, newRow(tr, base))
		})

		page.Tables = append(page.Tables, table)
	})

	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		page.Cells = append(page.Cells, newCell(s))
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		page.Links = append(page.Links, newLink(s, base))
	})

	return page
}

func newRow(tr *goquery.Selection, base *url.URL) Row {
	var row Row
	texts := make([]string, 0, 8)

	tr.ChildrenFiltered("td, th").Each(func(_ int, s *goquery.Selection) {
		cell := newCell(s)
		row.Cells = append(row.Cells, cell)
		texts = append(texts, cell.Text)
	})
	tr.Find("a").Each(func(_ int, s *goquery.Selection) {
		row.Links = append(row.Links, newLink(s, base))
	})

	row.Text = strings.TrimSpace(strings.Join(texts, "\t"))
	return row
}

func newCell(s *goquery.Selection) Cell {
	return Cell{
		Text:      CollapseSpace(RenderText(s.Nodes...)),
		Header:    goquery.NodeName(s) == "th",
		Container: s.Find("table").Length() > 0,
	}
}

func newLink(s *goquery.Selection, base *url.URL) Link {
	href, _ := s.Attr("href")
	title, _ := s.Attr("title")
	return Link{
		Href:  resolveURL(base, strings.TrimSpace(href)),
		Text:  CollapseSpace(RenderText(s.Nodes...)),
		Title: strings.TrimSpace(title),
	}
}

// resolveURL makes href absolute; fragments, scripts and unparsable values are kept verbatim
func resolveURL(base *url.URL, href string) string {
	if base == nil || href == "" || strings.HasPrefix(href, "#") {
		return href
	}
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}

// CollapseSpace trims s and folds every whitespace run into one space
func CollapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// Contains reports whether the table text holds any of the markers, ignoring case
func (t Table) Contains(markers ...string) bool {
	return ContainsAny(t.Text, markers...)
}

// ContainsAny reports whether text holds any of the markers, ignoring case
func ContainsAny(text string, markers ...string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// FindTable returns the innermost table holding any marker; when several
// qualify the first in document order wins. Nil when nothing matches.
func (p *Page) FindTable(markers ...string) *Table {
	candidates := make(map[int]bool)
	for _, t := range p.Tables {
		if t.Contains(markers...) {
			candidates[t.Index] = true
		}
	}

	// Drop every candidate that encloses another candidate
	outer := make(map[int]bool)
	for idx := range candidates {
		for parent := p.Tables[idx].Parent; parent >= 0; parent = p.Tables[parent].Parent {
			if candidates[parent] {
				outer[parent] = true
			}
		}
	}

	for i := range p.Tables {
		if candidates[i] && !outer[i] {
			return &p.Tables[i]
		}
	}
	return nil
}
