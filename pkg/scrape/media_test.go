package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     string
		found    bool
	}{
		{
			name: "dom match beats markup scan",
			snapshot: page("https://example.com/watch", "",
				`<script>var backup = "https://mirror.example/ep.m3u8";</script><video src="https://cdn.example/ep.mp4"></video>`),
			want:  "https://cdn.example/ep.mp4",
			found: true,
		},
		{
			name:     "video source child",
			snapshot: page("https://example.com/watch", "", `<video><source src="https://cdn.example/ep1.m3u8" type="application/x-mpegURL"></video>`),
			want:     "https://cdn.example/ep1.m3u8",
			found:    true,
		},
		{
			name:     "selector order",
			snapshot: page("https://example.com/watch", "", `<div class="video-js"><source src="https://b.example/second.mp4"></div><video><source src="https://a.example/first.mp4"></video>`),
			want:     "https://a.example/first.mp4",
			found:    true,
		},
		{
			name:     "relative src resolved against page url",
			snapshot: page("https://example.com/watch/1", "", `<div class="player"><video><source src="/media/ep1.mp4"></video></div>`),
			want:     "https://example.com/media/ep1.mp4",
			found:    true,
		},
		{
			name:     "blob src falls back to markup",
			snapshot: page("https://example.com/watch", "", `<video src="blob:https://example.com/5c1e"></video><script>load("https://cdn.example/hls/master.m3u8?token=abc")</script>`),
			want:     "https://cdn.example/hls/master.m3u8",
			found:    true,
		},
		{
			name:     "markup entities decoded",
			snapshot: page("https://example.com/watch", "", `<a data-src="https://cdn.example/a&amp;b/ep.mp4">x</a>`),
			want:     "https://cdn.example/a&b/ep.mp4",
			found:    true,
		},
		{
			name:     "nothing found",
			snapshot: page("https://example.com/watch", "", `<iframe src="https://player.example/embed/1"></iframe>`),
			found:    false,
		},
		{
			name:     "empty page",
			snapshot: Snapshot{URL: "https://example.com/"},
			found:    false,
		},
	}

	locator := NewLocator(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := locator.Locate(tt.snapshot)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
