// Package automation owns the controlled browser: launching and supervising
// it, handing out isolated pages and running the navigation pipeline that
// waits out bot challenges.
package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/anistream/pkg/config"
	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/scrape"
	"github.com/entrhq/anistream/pkg/types"
)

// ChallengeWaiter suspends an operation until its challenge is cleared.
type ChallengeWaiter interface {
	Await(ctx context.Context, pageID, url string) error
}

// ChallengeDetector reports whether a snapshot is a challenge page.
type ChallengeDetector interface {
	Detect(s scrape.Snapshot) bool
}

// EventEmitter receives session lifecycle events.
type EventEmitter func(event *types.Event)

// Window is the browser window size.
type Window struct {
	Width  int
	Height int
}

// Options configure a Controller.
type Options struct {
	Headless          bool
	UserAgent         string
	Channel           string
	Window            Window
	NavigationTimeout time.Duration

	Logger    *logging.Logger
	Metrics   *Metrics
	EmitEvent EventEmitter
	Detector  ChallengeDetector
	Filter    *RequestFilter
}

// OptionsFromConfig maps the automation config section onto Options.
func OptionsFromConfig(s config.AutomationSettings) Options {
	return Options{
		Headless:          s.Headless,
		UserAgent:         s.UserAgent,
		Channel:           s.BrowserChannel,
		Window:            Window{Width: s.WindowWidth, Height: s.WindowHeight},
		NavigationTimeout: s.NavigationTimeout,
	}
}

// Controller owns at most one live browser and hands out one page per
// operation. The browser is launched lazily and replaced after it dies.
type Controller struct {
	driver  Driver
	waiter  ChallengeWaiter
	opts    Options
	logger  *logging.Logger
	metrics *Metrics
	emit    EventEmitter

	mu      sync.Mutex
	browser Browser
	closed  bool
}

// NewController creates a controller. No browser is started until the first
// operation needs one.
func NewController(driver Driver, waiter ChallengeWaiter, opts Options) *Controller {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = config.DefaultNavigationTimeout
	}
	if opts.Detector == nil {
		opts.Detector = scrape.NewDetector(scrape.DefaultChallengeMarkers(), opts.Logger)
	}
	if opts.Filter == nil {
		opts.Filter = DefaultRequestFilter(opts.Metrics, opts.Logger)
	}

	emit := opts.EmitEvent
	if emit == nil {
		emit = func(*types.Event) {}
	}

	return &Controller{
		driver:  driver,
		waiter:  waiter,
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		emit:    emit,
	}
}

// EnsureSession returns the live browser, launching one if there is none or
// the previous one disconnected. A failed launch is retried once.
func (c *Controller) EnsureSession(ctx context.Context) (Browser, error) {
	c.mu.Lock()
	if stale := c.browser; stale != nil && !stale.IsConnected() {
		// Close may wait on the stale handle's disconnect callback, which
		// takes c.mu.
		c.browser = nil
		c.mu.Unlock()
		c.logger.Warnf("discarding disconnected browser")
		_ = stale.Close()
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	if c.browser != nil && c.browser.IsConnected() {
		return c.browser, nil
	}
	c.browser = nil
	c.closed = false

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, wrapOp("launch", "", err)
		}

		browser, err := c.driver.Launch(LaunchOptions{
			Headless: c.opts.Headless,
			Channel:  c.opts.Channel,
			Args:     launchArgs(c.opts.Window.Width, c.opts.Window.Height),
		})
		c.metrics.recordLaunch(err)
		if err != nil {
			lastErr = err
			c.logger.Errorf("browser launch attempt %d failed: %v", attempt, err)
			continue
		}

		c.browser = browser
		browser.OnDisconnected(func() { c.handleDisconnect(browser) })
		c.logger.Infof("browser launched (headless=%t)", c.opts.Headless)
		c.emit(types.NewSessionLaunchedEvent())
		return browser, nil
	}

	return nil, wrapOp("launch", "", fmt.Errorf("%w: %w", ErrLaunch, lastErr))
}

// handleDisconnect drops the cached handle if it still refers to browser.
func (c *Controller) handleDisconnect(browser Browser) {
	c.mu.Lock()
	if c.browser != browser {
		c.mu.Unlock()
		return
	}
	c.browser = nil
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	c.logger.Warnf("browser disconnected")
	c.metrics.recordSessionLost()
	c.emit(types.NewSessionLostEvent())
}

// IsAlive reports whether a connected browser is currently held.
func (c *Controller) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.browser != nil && c.browser.IsConnected()
}

// Teardown closes the browser and the driver. It is safe to call with no
// session and more than once.
func (c *Controller) Teardown() error {
	c.mu.Lock()
	browser := c.browser
	c.browser = nil
	c.closed = true
	c.mu.Unlock()

	var errs []error
	if browser != nil {
		if err := browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if err := c.driver.Stop(); err != nil {
		errs = append(errs, err)
	}
	if browser != nil {
		c.logger.Infof("browser closed")
	}
	return errors.Join(errs...)
}

// WithPage runs fn with a fresh page and closes the page afterwards, also
// when fn fails or ctx is cancelled. Cancelling ctx closes the page
// immediately so that blocked page calls return.
func (c *Controller) WithPage(ctx context.Context, fn func(Page) error) error {
	browser, err := c.EnsureSession(ctx)
	if err != nil {
		return err
	}

	page, err := browser.NewPage(PageOptions{
		UserAgent:         c.opts.UserAgent,
		IgnoreHTTPSErrors: true,
		InitScripts:       []string{stealthScript},
	})
	if err != nil {
		return wrapOp("open page", "", c.sessionError(browser, err))
	}
	c.metrics.recordPageOpened()

	stop := context.AfterFunc(ctx, func() { _ = page.Close() })
	defer func() {
		stop()
		if err := page.Close(); err != nil {
			c.logger.Debugf("page %s close: %v", page.ID(), err)
		}
	}()

	if err := fn(page); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return c.sessionError(browser, err)
	}
	return nil
}

// sessionError marks err as a lost session when browser died under it.
func (c *Controller) sessionError(browser Browser, err error) error {
	if errors.Is(err, ErrSessionLost) || browser.IsConnected() {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSessionLost, err)
}
