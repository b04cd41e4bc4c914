package types

import (
	"errors"
	"testing"
	"time"
)

func TestEventType(t *testing.T) {
	tests := []struct {
		eventType EventType
		name      string
		expected  string
	}{
		{name: "challenge_encountered", eventType: EventTypeChallengeEncountered, expected: "challenge_encountered"},
		{name: "challenge_resolved", eventType: EventTypeChallengeResolved, expected: "challenge_resolved"},
		{name: "challenge_timeout", eventType: EventTypeChallengeTimeout, expected: "challenge_timeout"},
		{name: "anime_detected", eventType: EventTypeAnimeDetected, expected: "anime_detected"},
		{name: "page_error", eventType: EventTypePageError, expected: "page_error"},
		{name: "session_launched", eventType: EventTypeSessionLaunched, expected: "session_launched"},
		{name: "session_lost", eventType: EventTypeSessionLost, expected: "session_lost"},
		{name: "download_started", eventType: EventTypeDownloadStarted, expected: "download_started"},
		{name: "download_completed", eventType: EventTypeDownloadCompleted, expected: "download_completed"},
		{name: "download_failed", eventType: EventTypeDownloadFailed, expected: "download_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, string(tt.eventType))
			}
		})
	}
}

func TestNewChallengeEvents(t *testing.T) {
	before := time.Now()

	tests := []struct {
		event    *Event
		name     string
		expected EventType
	}{
		{name: "encountered", event: NewChallengeEncounteredEvent("page-1", "https://example.com"), expected: EventTypeChallengeEncountered},
		{name: "resolved", event: NewChallengeResolvedEvent("page-1", "https://example.com"), expected: EventTypeChallengeResolved},
		{name: "timeout", event: NewChallengeTimeoutEvent("page-1", "https://example.com"), expected: EventTypeChallengeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type != tt.expected {
				t.Errorf("expected type %q, got %q", tt.expected, tt.event.Type)
			}
			if tt.event.PageID != "page-1" {
				t.Errorf("expected page id page-1, got %q", tt.event.PageID)
			}
			if tt.event.URL != "https://example.com" {
				t.Errorf("expected url, got %q", tt.event.URL)
			}
			if tt.event.Timestamp.Before(before) {
				t.Error("expected timestamp to be set")
			}
			if !tt.event.IsChallengeEvent() {
				t.Error("expected IsChallengeEvent to be true")
			}
			if tt.event.IsDownloadEvent() {
				t.Error("expected IsDownloadEvent to be false")
			}
		})
	}
}

func TestNewAnimeDetectedEvent(t *testing.T) {
	info := NewAnimeInfo("Frieren", 3, "https://hianime.to/watch/frieren-episode-3", "")

	event := NewAnimeDetectedEvent(info)

	if event.Type != EventTypeAnimeDetected {
		t.Errorf("expected type %q, got %q", EventTypeAnimeDetected, event.Type)
	}
	if event.Anime == nil {
		t.Fatal("expected anime info")
	}
	if event.URL != info.URL {
		t.Errorf("expected url %q, got %q", info.URL, event.URL)
	}
	if event.Anime.TitleOr("") != "Frieren" {
		t.Errorf("expected title Frieren, got %q", event.Anime.TitleOr(""))
	}
}

func TestNewPageErrorEvent(t *testing.T) {
	err := errors.New("navigation failed")

	event := NewPageErrorEvent("https://example.com", err)

	if event.Type != EventTypePageError {
		t.Errorf("expected type %q, got %q", EventTypePageError, event.Type)
	}
	if !errors.Is(event.Error, err) {
		t.Errorf("expected error %v, got %v", err, event.Error)
	}
}

func TestDownloadEvents(t *testing.T) {
	started := NewDownloadStartedEvent("https://cdn.example.com/ep1.mp4", "/tmp/ep1.mp4")
	if !started.IsDownloadEvent() {
		t.Error("expected started to be a download event")
	}
	if started.Download.Path != "/tmp/ep1.mp4" {
		t.Errorf("unexpected path %q", started.Download.Path)
	}

	completed := NewDownloadCompletedEvent("https://cdn.example.com/ep1.mp4", "/tmp/ep1.mp4", 2048)
	if completed.Download.Bytes != 2048 {
		t.Errorf("expected 2048 bytes, got %d", completed.Download.Bytes)
	}

	failed := NewDownloadFailedEvent("https://cdn.example.com/ep1.mp4", errors.New("boom"))
	if failed.Error == nil {
		t.Error("expected error on failed event")
	}
	if failed.IsChallengeEvent() {
		t.Error("download event should not be a challenge event")
	}
}
