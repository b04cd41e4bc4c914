package scrape

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

//go:embed sites.yaml
var sitesYAML []byte

// PageTitleSelector is the pseudo-selector for the rendered document title.
const PageTitleSelector = "title"

// SitePattern is the ordered extraction rule set for one site.
type SitePattern struct {
	Aliases      []string `yaml:"aliases"`
	Title        []string `yaml:"title"`
	Episode      []string `yaml:"episode"`
	EpisodeRegex string   `yaml:"episode_regex"`

	host      string
	episodeRe *regexp.Regexp
	globs     []glob.Glob
}

// Host returns the hostname the pattern is registered for, "" for common.
func (p *SitePattern) Host() string {
	return p.host
}

// EpisodeNumber applies the episode regex to text and returns the first
// capture group as a positive integer.
func (p *SitePattern) EpisodeNumber(text string) (int, bool) {
	return firstNumber(p.episodeRe, text)
}

// StripEpisode removes every episode-number match from title and tidies the
// remaining whitespace. Applying it to its own output is a no-op.
func (p *SitePattern) StripEpisode(title string) string {
	return cleanTitle(p.episodeRe.ReplaceAllString(title, " "))
}

func (p *SitePattern) compile(host string) error {
	p.host = host
	if p.EpisodeRegex == "" {
		return fmt.Errorf("site %q: episode_regex is required", host)
	}
	re, err := regexp.Compile(p.EpisodeRegex)
	if err != nil {
		return fmt.Errorf("site %q: invalid episode_regex: %w", host, err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("site %q: episode_regex needs a capture group", host)
	}
	p.episodeRe = re

	p.globs = p.globs[:0]
	for _, alias := range p.Aliases {
		g, err := glob.Compile(strings.ToLower(alias), '.')
		if err != nil {
			return fmt.Errorf("site %q: invalid alias %q: %w", host, alias, err)
		}
		p.globs = append(p.globs, g)
	}
	return nil
}

func (p *SitePattern) matchesAlias(host string) bool {
	for _, g := range p.globs {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// AttrSelector locates a URL held in an attribute of the first match of Selector.
type AttrSelector struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"`
}

// VideoRules configures the media locator.
type VideoRules struct {
	Selectors   []string `yaml:"selectors"`
	StreamRegex string   `yaml:"stream_regex"`

	streamRe *regexp.Regexp
}

// Rules is the complete rule data for the extractor and locator.
type Rules struct {
	Common          SitePattern             `yaml:"common"`
	Sites           map[string]*SitePattern `yaml:"sites"`
	URLEpisodeRegex string                  `yaml:"url_episode_regex"`
	Poster          []AttrSelector          `yaml:"poster"`
	Video           VideoRules              `yaml:"video"`

	urlEpisodeRe *regexp.Regexp
	hosts        []string
}

// ParseRules decodes and compiles YAML rule data.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse site rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) compile() error {
	if len(r.Common.Title) == 0 || len(r.Common.Episode) == 0 {
		return fmt.Errorf("common pattern needs title and episode selectors")
	}
	if err := r.Common.compile(""); err != nil {
		return err
	}

	r.hosts = r.hosts[:0]
	for host, p := range r.Sites {
		if p == nil {
			return fmt.Errorf("site %q has no rules", host)
		}
		if err := p.compile(strings.ToLower(host)); err != nil {
			return err
		}
		r.hosts = append(r.hosts, host)
	}
	sort.Strings(r.hosts)

	re, err := regexp.Compile(r.URLEpisodeRegex)
	if err != nil {
		return fmt.Errorf("invalid url_episode_regex: %w", err)
	}
	r.urlEpisodeRe = re

	r.Video.streamRe, err = regexp.Compile(r.Video.StreamRegex)
	if err != nil {
		return fmt.Errorf("invalid video stream_regex: %w", err)
	}
	return nil
}

// Lookup returns the pattern chain for host: the site's own pattern followed
// by common, or common alone when the host is unmapped. Exact hostnames are
// checked before aliases.
func (r *Rules) Lookup(host string) []*SitePattern {
	host = strings.ToLower(host)

	if p, ok := r.Sites[host]; ok {
		return []*SitePattern{p, &r.Common}
	}
	for _, h := range r.hosts {
		if p := r.Sites[h]; p.matchesAlias(host) {
			return []*SitePattern{p, &r.Common}
		}
	}
	return []*SitePattern{&r.Common}
}

// Hosts returns the mapped hostnames in sorted order.
func (r *Rules) Hosts() []string {
	return append([]string(nil), r.hosts...)
}

// URLEpisode extracts an episode number from a URL such as ".../episode-7".
func (r *Rules) URLEpisode(pageURL string) (int, bool) {
	return firstNumber(r.urlEpisodeRe, pageURL)
}

var (
	defaultRules     *Rules
	defaultRulesOnce sync.Once
)

// DefaultRules returns the rules compiled from the embedded sites.yaml.
// It panics if the embedded data is invalid.
func DefaultRules() *Rules {
	defaultRulesOnce.Do(func() {
		r, err := ParseRules(sitesYAML)
		if err != nil {
			panic(fmt.Sprintf("scrape: embedded sites.yaml: %v", err))
		}
		defaultRules = r
	})
	return defaultRules
}

func firstNumber(re *regexp.Regexp, text string) (int, bool) {
	if re == nil {
		return 0, false
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

var spaceRun = regexp.MustCompile(`\s+`)

// cleanTitle collapses whitespace and trims separator debris left behind
// after an episode marker is removed.
func cleanTitle(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.Trim(s, " -|:")
}
