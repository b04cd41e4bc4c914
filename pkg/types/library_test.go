package types

import (
	"testing"
	"time"
)

func TestNewAnimeInfo(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		episode     int
		image       string
		wantTitle   bool
		wantEpisode bool
		wantImage   bool
	}{
		{name: "all fields", title: "Naruto", episode: 12, image: "https://img/p.jpg", wantTitle: true, wantEpisode: true, wantImage: true},
		{name: "empty title", title: "", episode: 1, wantEpisode: true},
		{name: "zero episode", title: "Naruto", episode: 0, wantTitle: true},
		{name: "nothing", title: "", episode: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewAnimeInfo(tt.title, tt.episode, "https://example.com", tt.image)
			if (info.Title != nil) != tt.wantTitle {
				t.Errorf("title presence = %v, want %v", info.Title != nil, tt.wantTitle)
			}
			if (info.Episode != nil) != tt.wantEpisode {
				t.Errorf("episode presence = %v, want %v", info.Episode != nil, tt.wantEpisode)
			}
			if (info.Image != nil) != tt.wantImage {
				t.Errorf("image presence = %v, want %v", info.Image != nil, tt.wantImage)
			}
			if info.URL != "https://example.com" {
				t.Errorf("url = %q", info.URL)
			}
		})
	}
}

func TestNewHistoryEntry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entry, ok := NewHistoryEntry(NewAnimeInfo("Jujutsu Kaisen: Season 2", 5, "https://hianime.to/watch/jjk-episode-5", "https://img/jjk.jpg"), now)
	if !ok {
		t.Fatal("expected entry")
	}
	if entry.AnimeID != "jujutsu-kaisen-season-2" {
		t.Errorf("anime id = %q", entry.AnimeID)
	}
	if entry.Episode != 5 {
		t.Errorf("episode = %d", entry.Episode)
	}
	if entry.Thumbnail != "https://img/jjk.jpg" {
		t.Errorf("thumbnail = %q", entry.Thumbnail)
	}
	if entry.Key() != "jujutsu-kaisen-season-2#5" {
		t.Errorf("key = %q", entry.Key())
	}
	if !entry.WatchedAt.Equal(now) {
		t.Errorf("watchedAt = %v", entry.WatchedAt)
	}

	if _, ok := NewHistoryEntry(NewAnimeInfo("", 5, "https://x", ""), now); ok {
		t.Error("expected no entry without a title")
	}
}

func TestHistoryEntryKeySameEpisode(t *testing.T) {
	now := time.Now()
	a, _ := NewHistoryEntry(NewAnimeInfo("One Piece", 1000, "https://a", ""), now)
	b, _ := NewHistoryEntry(NewAnimeInfo("One  Piece!", 1000, "https://b", ""), now.Add(time.Hour))

	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestNewHistoryEntryNonLatinTitles(t *testing.T) {
	now := time.Now()

	a, ok := NewHistoryEntry(NewAnimeInfo("進撃の巨人", 1, "https://a", ""), now)
	if !ok {
		t.Fatal("expected entry for a Japanese title")
	}
	b, ok := NewHistoryEntry(NewAnimeInfo("鬼滅の刃", 1, "https://b", ""), now)
	if !ok {
		t.Fatal("expected entry for a second Japanese title")
	}
	if a.AnimeID != "進撃の巨人" {
		t.Errorf("anime id = %q", a.AnimeID)
	}
	if a.Key() == b.Key() {
		t.Errorf("different series share key %q", a.Key())
	}

	c, ok := NewHistoryEntry(NewAnimeInfo("나 혼자만 레벨업", 3, "https://c", ""), now)
	if !ok || c.AnimeID != "나-혼자만-레벨업" {
		t.Errorf("korean title: ok=%v id=%q", ok, c.AnimeID)
	}
}

func TestNewHistoryEntryWithoutKeyableTitle(t *testing.T) {
	if entry, ok := NewHistoryEntry(NewAnimeInfo("!!! ★ ???", 2, "https://x", ""), time.Now()); ok {
		t.Errorf("expected no entry, got key %q", entry.Key())
	}
}
