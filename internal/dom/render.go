package dom

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Elements that start a new line in rendered text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "caption": true, "dd": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tbody": true,
	"tfoot": true, "thead": true, "tr": true, "ul": true,
}

// Elements whose content never renders
var hiddenElements = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true, "template": true,
}

var (
	inlineSpace = regexp.MustCompile(`[ \f\r\n\v]+`)
	spaceRunes  = regexp.MustCompile(` {2,}`)
	tabPadding  = regexp.MustCompile(` *\t *`)
)

// RenderText renders nodes the way a browser's innerText would, roughly:
// block elements break lines, table cells are separated by tabs, and
// blank lines are dropped.
func RenderText(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		renderNode(&b, n)
	}
	return tidy(b.String())
}

func renderNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(inlineSpace.ReplaceAllString(strings.ReplaceAll(n.Data, "\t", " "), " "))
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if hiddenElements[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c)
	}
	if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
		b.WriteByte('\t')
	}
	if block {
		b.WriteByte('\n')
	}
}

func tidy(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = tabPadding.ReplaceAllString(spaceRunes.ReplaceAllString(line, " "), "\t")
		line = strings.Trim(line, " \t")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
