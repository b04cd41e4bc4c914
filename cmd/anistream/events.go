package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/anistream/pkg/service"
	"github.com/entrhq/anistream/pkg/types"
)

// console prints core events and turns operator input into challenge
// resolutions.
type console struct {
	mu   sync.Mutex
	out  io.Writer
	json bool
}

func newConsole(out io.Writer, jsonOutput bool) *console {
	return &console{out: out, json: jsonOutput}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) handle(e *types.Event) {
	switch e.Type {
	case types.EventTypeChallengeEncountered:
		box := challengeBoxStyle.Render(fmt.Sprintf(
			"%s\n%s\n%s",
			warnStyle.Render("Bot check on "+e.URL),
			"Solve it in the browser window, then press Enter.",
			mutedStyle.Render("page "+e.PageID),
		))
		c.printf("%s\n", box)

	case types.EventTypeChallengeResolved:
		c.printf("%s\n", okStyle.Render("Challenge cleared, resuming "+e.URL))

	case types.EventTypeChallengeTimeout:
		c.printf("%s\n", errorStyle.Render("Gave up waiting for the challenge on "+e.URL))

	case types.EventTypeAnimeDetected:
		c.detected(e)

	case types.EventTypePageError:
		c.printf("%s %v\n", errorStyle.Render("✗ "+e.URL), e.Error)

	case types.EventTypeSessionLost:
		c.printf("%s\n", warnStyle.Render("Browser closed; it will be relaunched on the next command."))

	case types.EventTypeDownloadCompleted:
		c.printf("%s %s (%d bytes)\n", okStyle.Render("✓ saved"), e.Download.Path, e.Download.Bytes)

	case types.EventTypeDownloadFailed:
		c.printf("%s %v\n", errorStyle.Render("✗ download failed"), e.Error)
	}
}

func (c *console) detected(e *types.Event) {
	if e.Anime == nil {
		return
	}
	entry, ok := types.NewHistoryEntry(*e.Anime, e.Timestamp)
	if !ok {
		return
	}

	if c.json {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		c.printf("%s\n", data)
		return
	}
	c.printf("%s %s\n", okStyle.Render("Detected"), formatInfo(*e.Anime))
}

// formatInfo renders an extraction result on one line.
func formatInfo(info types.AnimeInfo) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(info.TitleOr("(unknown title)")))
	if ep := info.EpisodeOr(0); ep > 0 {
		b.WriteString(fmt.Sprintf(" · episode %d", ep))
	}
	if img := info.ImageOr(""); img != "" {
		b.WriteString(mutedStyle.Render(" · " + img))
	}
	return b.String()
}

// readResolutions resolves challenges from operator input until in closes.
// An empty line resolves the only pending challenge; a page id resolves
// that page.
func (c *console) readResolutions(in io.Reader, svc *service.Service) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		pending := svc.PendingChallenges()
		if len(pending) == 0 {
			continue
		}

		if id == "" && len(pending) > 1 {
			var ids []string
			for _, p := range pending {
				ids = append(ids, fmt.Sprintf("%s (%s, waiting %s)", p.PageID, p.URL, time.Since(p.Since).Round(time.Second)))
			}
			c.printf("%s\n  %s\n", warnStyle.Render("Several challenges are pending; type the page id:"), strings.Join(ids, "\n  "))
			continue
		}

		if !svc.ResolveChallenge(id) {
			c.printf("%s\n", errorStyle.Render("No pending challenge for "+id))
		}
	}
}
