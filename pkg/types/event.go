package types

import "time"

// EventType defines the type of event emitted by the automation core.
type EventType string

const (
	EventTypeChallengeEncountered EventType = "challenge_encountered" // EventTypeChallengeEncountered indicates a navigation is suspended on a bot-challenge page.
	EventTypeChallengeResolved    EventType = "challenge_resolved"    // EventTypeChallengeResolved indicates the operator finished a challenge and the navigation resumed.
	EventTypeChallengeTimeout     EventType = "challenge_timeout"     // EventTypeChallengeTimeout indicates a challenge wait expired before the operator signalled.
	EventTypeAnimeDetected        EventType = "anime_detected"        // EventTypeAnimeDetected indicates structured anime data was extracted from a page.
	EventTypePageError            EventType = "page_error"            // EventTypePageError indicates a page-level operation failed and degraded to a not-found result.
	EventTypeSessionLaunched      EventType = "session_launched"      // EventTypeSessionLaunched indicates a new automation browser process was started.
	EventTypeSessionLost          EventType = "session_lost"          // EventTypeSessionLost indicates the automation browser disconnected.
	EventTypeDownloadStarted      EventType = "download_started"      // EventTypeDownloadStarted indicates a media download began streaming.
	EventTypeDownloadCompleted    EventType = "download_completed"    // EventTypeDownloadCompleted indicates a media download was fully written.
	EventTypeDownloadFailed       EventType = "download_failed"       // EventTypeDownloadFailed indicates a media download failed and its partial file was discarded.
)

// Event represents a signal sent from the automation core to the UI shell.
type Event struct {
	// Anime is the extraction result (for anime detected events).
	Anime *AnimeInfo

	// Download describes a download (for download events).
	Download *DownloadInfo

	// Error contains error information for error events.
	Error error

	// Type indicates the kind of event.
	Type EventType

	// PageID identifies the page the event belongs to, if any.
	PageID string

	// URL is the page or resource URL the event refers to.
	URL string

	// Timestamp is when the event was created.
	Timestamp time.Time
}

// DownloadInfo contains information about a media download.
type DownloadInfo struct {
	// SourceURL is the media resource being fetched.
	SourceURL string

	// Path is the destination file on disk.
	Path string

	// Bytes is the number of bytes written so far.
	Bytes int64
}

func newEvent(eventType EventType) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// NewChallengeEncounteredEvent creates a challenge encountered event.
func NewChallengeEncounteredEvent(pageID, url string) *Event {
	e := newEvent(EventTypeChallengeEncountered)
	e.PageID = pageID
	e.URL = url
	return e
}

// NewChallengeResolvedEvent creates a challenge resolved event.
func NewChallengeResolvedEvent(pageID, url string) *Event {
	e := newEvent(EventTypeChallengeResolved)
	e.PageID = pageID
	e.URL = url
	return e
}

// NewChallengeTimeoutEvent creates a challenge timeout event.
func NewChallengeTimeoutEvent(pageID, url string) *Event {
	e := newEvent(EventTypeChallengeTimeout)
	e.PageID = pageID
	e.URL = url
	return e
}

// NewAnimeDetectedEvent creates an anime detected event.
func NewAnimeDetectedEvent(info AnimeInfo) *Event {
	e := newEvent(EventTypeAnimeDetected)
	e.Anime = &info
	e.URL = info.URL
	return e
}

// NewPageErrorEvent creates a page error event.
func NewPageErrorEvent(url string, err error) *Event {
	e := newEvent(EventTypePageError)
	e.URL = url
	e.Error = err
	return e
}

// NewSessionLaunchedEvent creates a session launched event.
func NewSessionLaunchedEvent() *Event {
	return newEvent(EventTypeSessionLaunched)
}

// NewSessionLostEvent creates a session lost event.
func NewSessionLostEvent() *Event {
	return newEvent(EventTypeSessionLost)
}

// NewDownloadStartedEvent creates a download started event.
func NewDownloadStartedEvent(sourceURL, path string) *Event {
	e := newEvent(EventTypeDownloadStarted)
	e.URL = sourceURL
	e.Download = &DownloadInfo{SourceURL: sourceURL, Path: path}
	return e
}

// NewDownloadCompletedEvent creates a download completed event.
func NewDownloadCompletedEvent(sourceURL, path string, bytes int64) *Event {
	e := newEvent(EventTypeDownloadCompleted)
	e.URL = sourceURL
	e.Download = &DownloadInfo{SourceURL: sourceURL, Path: path, Bytes: bytes}
	return e
}

// NewDownloadFailedEvent creates a download failed event.
func NewDownloadFailedEvent(sourceURL string, err error) *Event {
	e := newEvent(EventTypeDownloadFailed)
	e.URL = sourceURL
	e.Error = err
	e.Download = &DownloadInfo{SourceURL: sourceURL}
	return e
}

// IsChallengeEvent returns true for the challenge lifecycle events.
func (e *Event) IsChallengeEvent() bool {
	switch e.Type {
	case EventTypeChallengeEncountered, EventTypeChallengeResolved, EventTypeChallengeTimeout:
		return true
	}
	return false
}

// IsDownloadEvent returns true for download lifecycle events.
func (e *Event) IsDownloadEvent() bool {
	switch e.Type {
	case EventTypeDownloadStarted, EventTypeDownloadCompleted, EventTypeDownloadFailed:
		return true
	}
	return false
}
