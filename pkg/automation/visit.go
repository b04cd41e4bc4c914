package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/anistream/pkg/scrape"
)

// VisitOptions tune a single Visit.
type VisitOptions struct {
	// AdBlock routes the page's requests through the request filter.
	AdBlock bool
}

// Visit opens a page, navigates to url and waits out a bot challenge if one
// is shown, then calls fn with the settled page and its snapshot.
//
// A challenge suspends the visit until the waiter releases it. The page is
// then reloaded and checked once more; a challenge that is still present is
// logged and the visit proceeds with whatever the page shows.
func (c *Controller) Visit(ctx context.Context, url string, opts VisitOptions, fn func(Page, scrape.Snapshot) error) error {
	err := c.WithPage(ctx, func(page Page) error {
		if opts.AdBlock {
			if err := c.opts.Filter.Install(page); err != nil {
				c.logger.Warnf("request filter not installed for %s: %v", url, err)
			}
		}

		if err := c.navigate(page, url, page.Goto); err != nil {
			return err
		}

		snap, err := page.Snapshot()
		if err != nil {
			return fmt.Errorf("failed to capture page: %w", err)
		}

		if c.opts.Detector.Detect(snap) {
			snap, err = c.clearChallenge(ctx, page, snap)
			if err != nil {
				return err
			}
		}

		if fn == nil {
			return nil
		}
		return fn(page, snap)
	})
	return wrapOp("visit", url, err)
}

// clearChallenge blocks until the challenge on page is resolved, reloads the
// page and returns the fresh snapshot.
func (c *Controller) clearChallenge(ctx context.Context, page Page, snap scrape.Snapshot) (scrape.Snapshot, error) {
	c.metrics.recordChallenge(outcomeDetected)
	c.logger.Infof("challenge detected on %s (page %s)", snap.URL, page.ID())

	if c.waiter == nil {
		c.metrics.recordChallenge(outcomeFailed)
		return snap, fmt.Errorf("challenge on %s and no waiter configured", snap.URL)
	}
	if err := c.waiter.Await(ctx, page.ID(), snap.URL); err != nil {
		c.metrics.recordChallenge(outcomeFailed)
		return snap, err
	}

	if err := c.navigate(page, snap.URL, func(string, time.Duration) error {
		return page.Reload(c.opts.NavigationTimeout)
	}); err != nil {
		c.metrics.recordChallenge(outcomeFailed)
		return snap, err
	}

	fresh, err := page.Snapshot()
	if err != nil {
		c.metrics.recordChallenge(outcomeFailed)
		return snap, fmt.Errorf("failed to capture page after challenge: %w", err)
	}

	if c.opts.Detector.Detect(fresh) {
		c.metrics.recordChallenge(outcomePersisted)
		c.logger.Warnf("challenge still present on %s after resume; continuing", fresh.URL)
	} else {
		c.metrics.recordChallenge(outcomeResolved)
	}
	return fresh, nil
}

func (c *Controller) navigate(page Page, url string, load func(string, time.Duration) error) error {
	start := time.Now()
	err := load(url, c.opts.NavigationTimeout)
	c.metrics.observeNavigation(time.Since(start))
	if err != nil {
		c.logger.Warnf("navigation to %s failed: %v", url, err)
		return err
	}
	c.logger.Debugf("page %s loaded %s in %s", page.ID(), url, time.Since(start).Round(time.Millisecond))
	return nil
}
