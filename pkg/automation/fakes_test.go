package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/anistream/pkg/scrape"
)

const challengeHTML = `<html><head><title>Just a moment...</title></head>
<body><div id="cf-challenge-running"></div><p>Checking your browser before accessing the site.</p></body></html>`

const episodeHTML = `<html><head><title>Frieren Episode 5 - AnimePahe</title></head>
<body><h1 class="anime-title">Frieren</h1><video><source src="https://cdn.example.com/ep5.m3u8"></video></body></html>`

// fakePage serves snapshots in order; the last one repeats.
type fakePage struct {
	mu        sync.Mutex
	id        string
	snapshots []scrape.Snapshot
	served    int
	gotoErr   error
	gotoHook  func()
	visited   []string
	reloads   int
	routed    func(RequestInfo) bool
	routeErr  error
	cookies   []Cookie
	userAgent string
	closes    int
}

func newFakePage(id string, snapshots ...scrape.Snapshot) *fakePage {
	return &fakePage{id: id, snapshots: snapshots}
}

func (p *fakePage) ID() string { return p.id }

func (p *fakePage) Goto(url string, timeout time.Duration) error {
	p.mu.Lock()
	p.visited = append(p.visited, url)
	hook, err := p.gotoHook, p.gotoErr
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (p *fakePage) Reload(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads++
	return nil
}

func (p *fakePage) Snapshot() (scrape.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.snapshots) == 0 {
		return scrape.Snapshot{}, errors.New("no content")
	}
	i := p.served
	if i >= len(p.snapshots) {
		i = len(p.snapshots) - 1
	}
	p.served++
	return p.snapshots[i], nil
}

func (p *fakePage) Route(decide func(RequestInfo) bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.routeErr != nil {
		return p.routeErr
	}
	p.routed = decide
	return nil
}

func (p *fakePage) Cookies() ([]Cookie, error) { return p.cookies, nil }

func (p *fakePage) UserAgent() string { return p.userAgent }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func (p *fakePage) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *fakePage) reloadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

type fakeBrowser struct {
	mu        sync.Mutex
	connected bool
	handlers  []func()
	pages     []*fakePage
	newPage   func() *fakePage
	pageErr   error
	pageOpts  []PageOptions
	closed    int
	closeHook func()
}

func (b *fakeBrowser) NewPage(opts PageOptions) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	b.pageOpts = append(b.pageOpts, opts)
	var p *fakePage
	if b.newPage != nil {
		p = b.newPage()
	} else {
		p = newFakePage(fmt.Sprintf("page-%d", len(b.pages)+1), scrape.Snapshot{URL: "about:blank"})
	}
	p.userAgent = opts.UserAgent
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) OnDisconnected(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

func (b *fakeBrowser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	b.closed++
	hook := b.closeHook
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	b.disconnect()
	return nil
}

// disconnect simulates the process going away.
func (b *fakeBrowser) disconnect() {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return
	}
	b.connected = false
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

type fakeDriver struct {
	mu         sync.Mutex
	launchErrs []error
	launches   []LaunchOptions
	browsers   []*fakeBrowser
	newPage    func() *fakePage
	stops      int
}

func (d *fakeDriver) Launch(opts LaunchOptions) (Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launches = append(d.launches, opts)
	if len(d.launchErrs) > 0 {
		err := d.launchErrs[0]
		d.launchErrs = d.launchErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	b := &fakeBrowser{connected: true, newPage: d.newPage}
	d.browsers = append(d.browsers, b)
	return b, nil
}

func (d *fakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDriver) launchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.launches)
}

func (d *fakeDriver) lastBrowser() *fakeBrowser {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.browsers) == 0 {
		return nil
	}
	return d.browsers[len(d.browsers)-1]
}

// fakeWaiter records awaits and either returns err or blocks on release.
type fakeWaiter struct {
	mu      sync.Mutex
	calls   []string
	err     error
	release chan struct{}
}

func (w *fakeWaiter) Await(ctx context.Context, pageID, url string) error {
	w.mu.Lock()
	w.calls = append(w.calls, pageID+" "+url)
	release, err := w.release, w.err
	w.mu.Unlock()
	if err != nil {
		return err
	}
	if release == nil {
		return nil
	}
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *fakeWaiter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}
