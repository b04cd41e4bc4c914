package automation

import (
	"time"

	"github.com/entrhq/anistream/pkg/scrape"
)

// Driver starts browser processes.
type Driver interface {
	// Launch starts a new browser process.
	Launch(opts LaunchOptions) (Browser, error)

	// Stop releases the driver. Launch may start it again.
	Stop() error
}

// Browser is one running browser process.
type Browser interface {
	// NewPage opens a page in a fresh, isolated browser context.
	NewPage(opts PageOptions) (Page, error)

	// OnDisconnected registers fn to run when the process goes away.
	OnDisconnected(fn func())

	// IsConnected reports whether the process is still reachable.
	IsConnected() bool

	// Close shuts the process down.
	Close() error
}

// Page is a single tab owned by one operation.
//
// Goto and Reload wait for network idle up to timeout and return an error
// wrapping ErrNavigationTimeout when the page does not settle, or
// ErrSessionLost when the browser went away.
type Page interface {
	// ID uniquely identifies the page for challenge signalling.
	ID() string

	Goto(url string, timeout time.Duration) error
	Reload(timeout time.Duration) error

	// Snapshot captures the current URL, title, markup and rendered text.
	Snapshot() (scrape.Snapshot, error)

	// Route sends every outgoing request through decide; requests for which
	// it returns true are aborted.
	Route(decide func(RequestInfo) bool) error

	// Cookies returns the cookies visible to the current page URL.
	Cookies() ([]Cookie, error)

	// UserAgent returns the user agent the page presents.
	UserAgent() string

	// Close closes the page and its context. Safe to call more than once.
	Close() error
}

// RequestInfo describes an intercepted request.
type RequestInfo struct {
	URL          string
	ResourceType string
	ContentType  string
}

// Cookie is a browser cookie handed to out-of-browser requests.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// LaunchOptions configure a browser process.
type LaunchOptions struct {
	Headless bool
	Channel  string
	Args     []string
}

// PageOptions configure the context a page lives in.
type PageOptions struct {
	UserAgent         string
	IgnoreHTTPSErrors bool
	InitScripts       []string
}
