package scrape

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/anistream/pkg/logging"
	"gopkg.in/yaml.v3"
)

//go:embed challenge.yaml
var challengeYAML []byte

// ChallengeMarkers are the structural and textual signatures of a challenge page.
type ChallengeMarkers struct {
	Selectors []string `yaml:"selectors"`
	Texts     []string `yaml:"texts"`
}

var (
	defaultMarkers     ChallengeMarkers
	defaultMarkersOnce sync.Once
)

// DefaultChallengeMarkers returns the markers from the embedded
// challenge.yaml, or the built-in list if it cannot be read.
func DefaultChallengeMarkers() ChallengeMarkers {
	defaultMarkersOnce.Do(func() {
		m, err := ParseChallengeMarkers(challengeYAML)
		if err != nil {
			m = builtinChallengeMarkers()
		}
		defaultMarkers = m
	})
	return defaultMarkers
}

// ParseChallengeMarkers decodes a YAML marker list. Empty lists are an error.
func ParseChallengeMarkers(data []byte) (ChallengeMarkers, error) {
	var m ChallengeMarkers
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ChallengeMarkers{}, fmt.Errorf("failed to parse challenge markers: %w", err)
	}
	if len(m.Selectors) == 0 && len(m.Texts) == 0 {
		return ChallengeMarkers{}, fmt.Errorf("challenge markers are empty")
	}
	return m, nil
}

func builtinChallengeMarkers() ChallengeMarkers {
	return ChallengeMarkers{
		Selectors: []string{
			"#cf-challenge-running",
			".cf-browser-verification",
			".cf-im-under-attack",
			`iframe[src*="cloudflare"]`,
		},
		Texts: []string{
			"Checking your browser",
			"Please wait while we verify",
			"Just a moment",
			"Please turn JavaScript on",
			"Please enable Cookies",
			"Please stand by, while we are checking your browser",
		},
	}
}

// Detector decides whether a snapshot is an anti-bot challenge page.
// Detection is heuristic; anything it cannot evaluate counts as no challenge.
type Detector struct {
	markers ChallengeMarkers
	logger  *logging.Logger
}

// NewDetector creates a detector. A nil logger discards output.
func NewDetector(markers ChallengeMarkers, logger *logging.Logger) *Detector {
	return &Detector{markers: markers, logger: logger}
}

// Detect reports whether the snapshot is a challenge page.
func (d *Detector) Detect(s Snapshot) bool {
	return len(d.Matches(s)) > 0
}

// Matches returns every marker the snapshot matched, selectors first.
func (d *Detector) Matches(s Snapshot) []string {
	var matched []string

	if doc, err := s.Document(); err != nil {
		d.logger.Debugf("challenge structural check skipped for %s: %v", s.URL, err)
	} else {
		for _, sel := range d.markers.Selectors {
			if doc.Find(sel).Length() > 0 {
				matched = append(matched, sel)
			}
		}
	}

	text := s.Text()
	for _, phrase := range d.markers.Texts {
		if strings.Contains(text, phrase) {
			matched = append(matched, phrase)
		}
	}

	return matched
}
