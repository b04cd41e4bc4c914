package scrape

import (
	"html"

	"github.com/PuerkitoBio/goquery"
	"github.com/entrhq/anistream/pkg/logging"
)

// Locator finds the playable video URL on a page.
type Locator struct {
	rules  *Rules
	logger *logging.Logger
}

// NewLocator creates a locator. A nil rules value selects DefaultRules.
func NewLocator(rules *Rules, logger *logging.Logger) *Locator {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Locator{rules: rules, logger: logger}
}

// Locate returns the first absolute http(s) video URL exposed by a video
// element, or failing that the first stream URL found anywhere in the
// markup. The boolean is false when neither yields a URL.
func (l *Locator) Locate(s Snapshot) (string, bool) {
	if doc, err := s.Document(); err == nil {
		if src, ok := l.fromElements(doc, s); ok {
			l.logger.Debugf("locate %s: element match %s", s.URL, src)
			return src, true
		}
	} else {
		l.logger.Warnf("locate %s: %v", s.URL, err)
	}

	if src, ok := l.fromMarkup(s.HTML); ok {
		l.logger.Debugf("locate %s: markup match %s", s.URL, src)
		return src, true
	}
	return "", false
}

func (l *Locator) fromElements(doc *goquery.Document, s Snapshot) (string, bool) {
	for _, sel := range l.rules.Video.Selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			found = elementSource(el, s)
			return found == ""
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// elementSource reads src from el, or from its child <source> elements.
func elementSource(el *goquery.Selection, s Snapshot) string {
	if src, ok := el.Attr("src"); ok {
		if resolved := s.resolve(src); resolved != "" {
			return resolved
		}
	}

	var found string
	el.ChildrenFiltered("source").EachWithBreak(func(_ int, child *goquery.Selection) bool {
		if src, ok := child.Attr("src"); ok {
			found = s.resolve(src)
		}
		return found == ""
	})
	return found
}

func (l *Locator) fromMarkup(markup string) (string, bool) {
	if l.rules.Video.streamRe == nil {
		return "", false
	}
	match := l.rules.Video.streamRe.FindString(markup)
	if match == "" {
		return "", false
	}
	return html.UnescapeString(match), true
}
