// Package scrape holds the page heuristics of the automation core: challenge
// detection, anime metadata extraction and video location.
//
// Every heuristic works on a Snapshot, an immutable capture of a rendered
// page, so the rules can be tested without a browser and swapped without
// touching the session controller.
package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a point-in-time capture of a rendered page.
type Snapshot struct {
	// URL is the final page URL after redirects.
	URL string

	// Title is the rendered document title.
	Title string

	// HTML is the serialized DOM.
	HTML string

	// BodyText is the rendered body text as the browser lays it out.
	// When empty, the visible text is derived from HTML.
	BodyText string
}

// Text returns the page's rendered text.
func (s Snapshot) Text() string {
	if s.BodyText != "" {
		return s.BodyText
	}
	return VisibleText(s.HTML)
}

// Hostname returns the lower-cased host of the snapshot URL, or "" if the
// URL cannot be parsed.
func (s Snapshot) Hostname() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Document parses the snapshot markup.
func (s Snapshot) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}
	return doc, nil
}

// resolve makes ref absolute against the snapshot URL. It returns "" when
// the result is not an http(s) URL.
func (s Snapshot) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	target, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !target.IsAbs() {
		base, err := url.Parse(s.URL)
		if err != nil || !base.IsAbs() {
			return ""
		}
		target = base.ResolveReference(target)
	}

	if target.Scheme != "http" && target.Scheme != "https" {
		return ""
	}
	return target.String()
}
