package types

// AnimeInfo is the structured result of extracting anime metadata from a page.
// Absent fields are nil; a nil field is a valid outcome, not an error.
type AnimeInfo struct {
	Title   *string `json:"title"`
	Episode *int    `json:"episode"`
	URL     string  `json:"url"`
	Image   *string `json:"image"`
}

// NewAnimeInfo builds an AnimeInfo, mapping empty strings and non-positive
// episode numbers to nil.
func NewAnimeInfo(title string, episode int, url string, image string) AnimeInfo {
	info := AnimeInfo{URL: url}
	if title != "" {
		info.Title = &title
	}
	if episode > 0 {
		info.Episode = &episode
	}
	if image != "" {
		info.Image = &image
	}
	return info
}

// TitleOr returns the title or the fallback when absent.
func (a AnimeInfo) TitleOr(fallback string) string {
	if a.Title == nil {
		return fallback
	}
	return *a.Title
}

// EpisodeOr returns the episode number or the fallback when absent.
func (a AnimeInfo) EpisodeOr(fallback int) int {
	if a.Episode == nil {
		return fallback
	}
	return *a.Episode
}

// ImageOr returns the poster image URL or the fallback when absent.
func (a AnimeInfo) ImageOr(fallback string) string {
	if a.Image == nil {
		return fallback
	}
	return *a.Image
}

// HasTitle reports whether a title was detected.
func (a AnimeInfo) HasTitle() bool {
	return a.Title != nil && *a.Title != ""
}
