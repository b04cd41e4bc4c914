package types

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Source is a streaming site registered by the user. Owned by the UI shell;
// the automation core only reads it.
type Source struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Favicon    string    `json:"favicon,omitempty"`
	AutoDetect bool      `json:"autoDetect"`
	AdBlock    bool      `json:"adBlock"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryEntry records a watched episode. Entries are keyed by AnimeID and
// Episode; the shell replaces an existing entry with the same key.
type HistoryEntry struct {
	AnimeID   string    `json:"animeId"`
	Title     string    `json:"title"`
	Episode   int       `json:"episodeId"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	WatchedAt time.Time `json:"watchedAt"`
}

// Key returns the identity used to de-duplicate history entries.
func (h HistoryEntry) Key() string {
	return fmt.Sprintf("%s#%d", h.AnimeID, h.Episode)
}

// NewHistoryEntry converts an extraction result into a history entry.
// Returns false when the result has no title or the title has no letters
// or digits to key on.
func NewHistoryEntry(info AnimeInfo, watchedAt time.Time) (HistoryEntry, bool) {
	if !info.HasTitle() {
		return HistoryEntry{}, false
	}
	id := slugify(*info.Title)
	if id == "" {
		return HistoryEntry{}, false
	}
	return HistoryEntry{
		AnimeID:   id,
		Title:     *info.Title,
		Episode:   info.EpisodeOr(0),
		URL:       info.URL,
		Thumbnail: info.ImageOr(""),
		WatchedAt: watchedAt,
	}, true
}

// slugify lowercases s and collapses every run of characters that are
// neither letters nor digits, in any script, into a single hyphen.
func slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		isAlnum := unicode.IsLetter(r) || unicode.IsDigit(r)
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
