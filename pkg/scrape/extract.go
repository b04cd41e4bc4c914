package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/types"
)

// Extractor derives anime metadata from a page snapshot using site rules.
type Extractor struct {
	rules  *Rules
	logger *logging.Logger
}

// NewExtractor creates an extractor. A nil rules value selects DefaultRules.
func NewExtractor(rules *Rules, logger *logging.Logger) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules, logger: logger}
}

// Extract returns the title, episode and poster found on the page. Missing
// data is left nil; Extract never fails for an absent field.
func (e *Extractor) Extract(s Snapshot) types.AnimeInfo {
	info := types.AnimeInfo{URL: s.URL}

	doc, err := s.Document()
	if err != nil {
		// Without a DOM only the page title and URL remain usable.
		e.logger.Warnf("extract %s: %v", s.URL, err)
	}

	chain := e.rules.Lookup(s.Hostname())

	if title, ok := e.title(doc, s, chain); ok {
		info.Title = &title
	}
	if episode, ok := e.episode(doc, s, chain); ok {
		info.Episode = &episode
	}
	if image, ok := e.poster(doc, s); ok {
		info.Image = &image
	}

	rule := "common"
	if len(chain) > 0 && chain[0].Host() != "" {
		rule = chain[0].Host()
	}
	e.logger.Debugf("extract %s: rules=%s title=%q episode=%d", s.URL, rule, info.TitleOr(""), info.EpisodeOr(0))
	return info
}

// title walks the pattern chain and stops at the first non-empty match. The
// match's episode marker is removed; a match that was only an episode marker
// leaves the title unset.
func (e *Extractor) title(doc *goquery.Document, s Snapshot, chain []*SitePattern) (string, bool) {
	for _, p := range chain {
		for _, sel := range p.Title {
			raw := titleCandidate(doc, s, sel)
			if raw == "" {
				continue
			}
			cleaned := p.StripEpisode(raw)
			return cleaned, cleaned != ""
		}
	}
	return "", false
}

func titleCandidate(doc *goquery.Document, s Snapshot, sel string) string {
	if sel == PageTitleSelector {
		return strings.TrimSpace(s.Title)
	}
	if doc == nil {
		return ""
	}
	found := doc.Find(sel)
	if found.Length() == 0 {
		return ""
	}
	if content, ok := found.First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(found.Text())
}

// episode walks the pattern chain, then falls back to the page URL.
func (e *Extractor) episode(doc *goquery.Document, s Snapshot, chain []*SitePattern) (int, bool) {
	for _, p := range chain {
		for _, sel := range p.Episode {
			text := episodeCandidate(doc, s, sel)
			if text == "" {
				continue
			}
			if n, ok := p.EpisodeNumber(text); ok {
				return n, true
			}
		}
	}
	return e.rules.URLEpisode(s.URL)
}

func episodeCandidate(doc *goquery.Document, s Snapshot, sel string) string {
	if sel == PageTitleSelector {
		return s.Title
	}
	if doc == nil {
		return ""
	}
	return doc.Find(sel).Text()
}

func (e *Extractor) poster(doc *goquery.Document, s Snapshot) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, candidate := range e.rules.Poster {
		value, ok := doc.Find(candidate.Selector).First().Attr(candidate.Attr)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if resolved := s.resolve(value); resolved != "" {
			return resolved, true
		}
	}
	return "", false
}
