package scrape

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText approximates the rendered text of an HTML document: text in
// script, style and other non-rendered elements is dropped, whitespace is
// collapsed and block elements start new lines.
func VisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	writeVisible(doc, &b)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func writeVisible(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		writeCollapsed(b, n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isHiddenElement(tag) {
			return
		}
		if isBlockElement(tag) {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeVisible(c, b)
	}
}

// writeCollapsed appends text with runs of whitespace reduced to one space.
func writeCollapsed(b *strings.Builder, text string) {
	space := false
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
}

// isHiddenElement returns true for elements whose content is never rendered as text.
func isHiddenElement(tag string) bool {
	switch tag {
	case "head", "script", "style", "noscript", "template", "iframe", "object", "embed", "svg", "canvas":
		return true
	}
	return false
}

// isBlockElement returns true for elements laid out on their own line.
func isBlockElement(tag string) bool {
	switch tag {
	case "address", "article", "aside", "blockquote", "br", "dd", "details", "div", "dl", "dt",
		"fieldset", "figcaption", "figure", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hr", "li", "main", "nav", "ol", "p", "pre", "section", "summary", "table",
		"tr", "td", "th", "ul":
		return true
	}
	return false
}
