package scrape

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/anistream/pkg/logging"
)

func page(url, title, body string) Snapshot {
	return Snapshot{
		URL:   url,
		Title: title,
		HTML:  "<html><head><title>" + title + "</title></head><body>" + body + "</body></html>",
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		snapshot    Snapshot
		wantTitle   string
		wantEpisode int
		wantImage   string
	}{
		{
			name:        "site selectors",
			snapshot:    page("https://animepahe.ru/play/one-piece/abc", "ignored", `<div class="anime-title">One Piece</div><div class="episode-title">Episode 1071</div>`),
			wantTitle:   "One Piece",
			wantEpisode: 1071,
		},
		{
			name:        "episode number stripped from page title",
			snapshot:    page("https://example.com/watch", "Demon Slayer Episode 12", ""),
			wantTitle:   "Demon Slayer",
			wantEpisode: 12,
		},
		{
			name:        "episode from url fallback",
			snapshot:    page("https://example.com/watch/demon-slayer-episode-7", "Demon Slayer", ""),
			wantTitle:   "Demon Slayer",
			wantEpisode: 7,
		},
		{
			name:        "url fallback with underscore",
			snapshot:    page("https://example.com/watch/EPISODE_21", "", ""),
			wantEpisode: 21,
		},
		{
			name:        "dom match beats url",
			snapshot:    page("https://example.com/watch/show-episode-9", "Show", `<span class="episode-number">Episode 3</span>`),
			wantTitle:   "Show",
			wantEpisode: 3,
		},
		{
			name:        "first title match wins even when only an episode marker",
			snapshot:    page("https://example.com/watch", "Frieren", `<div class="anime-title">Episode 12</div><span class="episode-number">Episode 12</span>`),
			wantEpisode: 12,
		},
		{
			name:      "og title content attribute",
			snapshot:  page("https://example.com/", "", `<meta property="og:title" content="Frieren">`),
			wantTitle: "Frieren",
		},
		{
			name:        "contains selector",
			snapshot:    page("https://example.com/", "", `<span>Now playing Episode 5</span>`),
			wantEpisode: 5,
		},
		{
			name:      "og image",
			snapshot:  page("https://example.com/", "Bleach", `<meta property="og:image" content="https://img.example.com/bleach.jpg"><div class="poster"><img src="/other.jpg"></div>`),
			wantTitle: "Bleach",
			wantImage: "https://img.example.com/bleach.jpg",
		},
		{
			name:      "relative poster resolved",
			snapshot:  page("https://gogoanime.cl/category/bleach", "Bleach", `<div class="anime-poster"><img src="/covers/bleach.png"></div>`),
			wantTitle: "Bleach",
			wantImage: "https://gogoanime.cl/covers/bleach.png",
		},
		{
			name:        "site falls back to common selectors",
			snapshot:    page("https://animepahe.ru/play/x", "Mob Psycho", `<div class="episode-number">Episode 4</div>`),
			wantTitle:   "Mob Psycho",
			wantEpisode: 4,
		},
		{
			name:        "hianime",
			snapshot:    page("https://hianime.to/watch/jjk", "Watch", `<h2 class="anime-name">Jujutsu Kaisen</h2><div class="episode-info">You are watching Episode 24</div>`),
			wantTitle:   "Jujutsu Kaisen",
			wantEpisode: 24,
		},
		{
			name:        "gogoanime",
			snapshot:    page("https://gogoanime.cl/naruto-episode-2", "x", `<div class="anime_info_body_bg"><h1>Naruto</h1></div><div class="episode_page"><ul><li class="active"><a>Episode 2</a></li></ul></div>`),
			wantTitle:   "Naruto",
			wantEpisode: 2,
		},
	}

	extractor := NewExtractor(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := extractor.Extract(tt.snapshot)

			assert.Equal(t, tt.snapshot.URL, info.URL)
			assert.Equal(t, tt.wantTitle, info.TitleOr(""))
			assert.Equal(t, tt.wantEpisode, info.EpisodeOr(0))
			assert.Equal(t, tt.wantImage, info.ImageOr(""))
		})
	}
}

func TestExtractMissingFieldsAreNil(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	for _, s := range []Snapshot{
		{URL: "https://example.com/"},
		{URL: "not a url", HTML: "<<<>>>"},
		page("https://example.com/", "", "<p>nothing here</p>"),
	} {
		info := extractor.Extract(s)
		assert.Nil(t, info.Title)
		assert.Nil(t, info.Episode)
		assert.Nil(t, info.Image)
		assert.Equal(t, s.URL, info.URL)
	}
}

func TestExtractSitePatternPrecedence(t *testing.T) {
	body := `<h1 class="title">Common Title</h1>`
	extractor := NewExtractor(nil, nil)

	mapped := extractor.Extract(page("https://animepahe.ru/anime/x/1", "Site Title", body))
	assert.Equal(t, "Site Title", mapped.TitleOr(""), "site selectors run before common ones")

	unmapped := extractor.Extract(page("https://example.com/anime/x/1", "Site Title", body))
	assert.Equal(t, "Common Title", unmapped.TitleOr(""))
}

func TestExtractUnmappedHostIgnoresSiteSelectors(t *testing.T) {
	info := NewExtractor(nil, nil).Extract(page("https://example.com/", "", `<div class="anime-name">Hidden</div><div class="episode-info">Episode 8</div>`))

	assert.Nil(t, info.Title)
	assert.Nil(t, info.Episode)
}

func TestStripEpisodeIdempotent(t *testing.T) {
	common := &DefaultRules().Common

	for _, title := range []string{
		"Demon Slayer Episode 12",
		"Demon Slayer - Episode 12",
		"episode 3 | Chainsaw Man",
		"Re:Zero",
		"  Spy  x   Family  ",
		"Episode 1 Episode 2 Mashle",
	} {
		once := common.StripEpisode(title)
		assert.Equal(t, once, common.StripEpisode(once), "title %q", title)
		assert.NotContains(t, once, "pisode")
	}

	assert.Equal(t, "Re:Zero", common.StripEpisode("Re:Zero"))
	assert.Equal(t, "Spy x Family", common.StripEpisode("  Spy  x   Family  "))
}

func TestEpisodeRegex(t *testing.T) {
	rules := DefaultRules()

	n, ok := rules.Common.EpisodeNumber("Demon Slayer Episode 12")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = rules.Common.EpisodeNumber("EPISODE12")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = rules.Common.EpisodeNumber("Demon Slayer")
	assert.False(t, ok)

	n, ok = rules.URLEpisode("https://example.com/anime/demon-slayer/episode-7")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = rules.URLEpisode("https://example.com/anime/demon-slayer/ep7")
	assert.False(t, ok)
}

func TestExtractLogsRuleSet(t *testing.T) {
	var buf bytes.Buffer
	extractor := NewExtractor(nil, logging.New("extract", &buf))

	extractor.Extract(page("https://animepahe.ru/play/x", "Mob Psycho", ""))
	assert.Contains(t, buf.String(), "rules=animepahe.ru")

	buf.Reset()
	extractor.Extract(page("https://example.com/watch", "Mob Psycho", ""))
	assert.Contains(t, buf.String(), "rules=common")
}
