package automation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/scrape"
)

const bodyTextScript = `() => document.body ? document.body.innerText : ''`

// PlaywrightDriver launches Chromium through Playwright.
type PlaywrightDriver struct {
	mu         sync.Mutex
	playwright *playwright.Playwright
	install    bool
	logger     *logging.Logger
}

// NewPlaywrightDriver creates a driver. When install is true the Playwright
// driver and Chromium are downloaded on first launch if missing.
func NewPlaywrightDriver(install bool, logger *logging.Logger) *PlaywrightDriver {
	return &PlaywrightDriver{install: install, logger: logger}
}

func (d *PlaywrightDriver) start() (*playwright.Playwright, error) {
	if d.playwright != nil {
		return d.playwright, nil
	}

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   d.logger.Writer(),
		Stderr:   d.logger.Writer(),
	}
	if d.install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	d.playwright = pw
	return pw, nil
}

// Launch starts a Chromium process.
func (d *PlaywrightDriver) Launch(opts LaunchOptions) (Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pw, err := d.start()
	if err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.Channel != "" {
		launchOpts.Channel = playwright.String(opts.Channel)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return &pwBrowser{browser: browser, logger: d.logger}, nil
}

// Stop shuts the Playwright driver down.
func (d *PlaywrightDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.playwright == nil {
		return nil
	}
	err := d.playwright.Stop()
	d.playwright = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type pwBrowser struct {
	browser playwright.Browser
	logger  *logging.Logger
}

func (b *pwBrowser) NewPage(opts PageOptions) (Page, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
		NoViewport:        playwright.Bool(true),
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}

	bctx, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create context: %w", err))
	}

	for _, script := range opts.InitScripts {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			_ = bctx.Close()
			return nil, classify(fmt.Errorf("failed to add init script: %w", err))
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, classify(fmt.Errorf("failed to create page: %w", err))
	}

	return &pwPage{
		id:        uuid.New().String(),
		context:   bctx,
		page:      page,
		userAgent: opts.UserAgent,
		logger:    b.logger,
	}, nil
}

func (b *pwBrowser) OnDisconnected(fn func()) {
	b.browser.OnDisconnected(func(playwright.Browser) { fn() })
}

func (b *pwBrowser) IsConnected() bool {
	return b.browser.IsConnected()
}

func (b *pwBrowser) Close() error {
	return b.browser.Close()
}

type pwPage struct {
	id        string
	context   playwright.BrowserContext
	page      playwright.Page
	userAgent string
	logger    *logging.Logger
	closeOnce sync.Once
	closeErr  error
}

func (p *pwPage) ID() string { return p.id }

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return classify(fmt.Errorf("navigation failed: %w", err))
	}
	return nil
}

func (p *pwPage) Reload(timeout time.Duration) error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return classify(fmt.Errorf("reload failed: %w", err))
	}
	return nil
}

func (p *pwPage) Snapshot() (scrape.Snapshot, error) {
	html, err := p.page.Content()
	if err != nil {
		return scrape.Snapshot{}, classify(fmt.Errorf("failed to read page content: %w", err))
	}

	snap := scrape.Snapshot{URL: p.page.URL(), HTML: html}

	if title, err := p.page.Title(); err == nil {
		snap.Title = title
	}

	// The rendered text is preferred; on failure Snapshot.Text renders the markup.
	if v, err := p.page.Evaluate(bodyTextScript); err == nil {
		if text, ok := v.(string); ok {
			snap.BodyText = text
		}
	} else {
		p.logger.Debugf("body text unavailable for %s: %v", snap.URL, err)
	}

	return snap, nil
}

func (p *pwPage) Route(decide func(RequestInfo) bool) error {
	return p.page.Route("**/*", func(route playwright.Route) {
		req := route.Request()
		info := RequestInfo{
			URL:          req.URL(),
			ResourceType: req.ResourceType(),
			ContentType:  req.Headers()["content-type"],
		}
		if decide(info) {
			if err := route.Abort(); err != nil {
				p.logger.Debugf("abort %s: %v", info.URL, err)
			}
			return
		}
		if err := route.Continue(); err != nil {
			p.logger.Debugf("continue %s: %v", info.URL, err)
		}
	})
}

func (p *pwPage) Cookies() ([]Cookie, error) {
	cookies, err := p.context.Cookies(p.page.URL())
	if err != nil {
		return nil, classify(fmt.Errorf("failed to read cookies: %w", err))
	}
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return out, nil
}

func (p *pwPage) UserAgent() string { return p.userAgent }

func (p *pwPage) Close() error {
	p.closeOnce.Do(func() {
		// Closing the context closes the page with it.
		if err := p.context.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
			p.closeErr = err
		}
	})
	return p.closeErr
}

// classify maps Playwright failures onto the package sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrNavigationTimeout, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%w: %w", ErrSessionLost, err)
	default:
		return err
	}
}
