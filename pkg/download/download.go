// Package download streams located media files to disk.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/types"
)

// ErrDownloadFailed is returned for every download that did not produce a file.
var ErrDownloadFailed = errors.New("download failed")

const fallbackFilename = "episode.mp4"

var unsafeFilenameChars = regexp.MustCompile(`[^\w\s.-]`)

// SanitizeFilename drops every character outside letters, digits,
// underscore, whitespace, dot and hyphen.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(name, ""))
}

// EventEmitter receives download lifecycle events.
type EventEmitter func(event *types.Event)

// Options configure a Downloader.
type Options struct {
	// Dir is created on first download if missing.
	Dir string

	// RateLimit caps throughput in bytes per second; 0 is unlimited.
	RateLimit int64

	// Progress receives a progress bar when non-nil.
	Progress io.Writer

	Client    *http.Client
	Logger    *logging.Logger
	EmitEvent EventEmitter
}

// Request describes one file to fetch. Referer, UserAgent and Cookies carry
// the browser page's identity so the media host accepts the request.
type Request struct {
	URL       string
	Filename  string
	Referer   string
	UserAgent string
	Cookies   []*http.Cookie
}

// Result reports a finished download.
type Result struct {
	Path  string
	Bytes int64
}

// Downloader writes media into a directory.
type Downloader struct {
	opts   Options
	client *http.Client
	logger *logging.Logger
	emit   EventEmitter
}

// New creates a Downloader.
func New(opts Options) *Downloader {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	emit := opts.EmitEvent
	if emit == nil {
		emit = func(*types.Event) {}
	}
	return &Downloader{opts: opts, client: client, logger: opts.Logger, emit: emit}
}

// Download fetches req.URL into the target directory. The file only appears
// under its final name once fully written; a failed transfer leaves nothing
// behind.
func (d *Downloader) Download(ctx context.Context, req Request) (Result, error) {
	target, err := d.targetPath(req)
	if err != nil {
		return d.fail(req.URL, err)
	}

	d.emit(types.NewDownloadStartedEvent(req.URL, target))
	d.logger.Infof("downloading %s to %s", req.URL, target)
	start := time.Now()

	n, err := d.fetch(ctx, req, target)
	if err != nil {
		return d.fail(req.URL, err)
	}

	d.logger.Infof("downloaded %d bytes to %s in %s", n, target, time.Since(start).Round(time.Millisecond))
	d.emit(types.NewDownloadCompletedEvent(req.URL, target, n))
	return Result{Path: target, Bytes: n}, nil
}

func (d *Downloader) fail(src string, err error) (Result, error) {
	err = fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	d.logger.Errorf("download of %s failed: %v", src, err)
	d.emit(types.NewDownloadFailedEvent(src, err))
	return Result{}, err
}

func (d *Downloader) targetPath(req Request) (string, error) {
	name := SanitizeFilename(req.Filename)
	if name == "" || name == "." || name == ".." {
		name = filenameFromURL(req.URL)
	}

	dir := d.opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallbackFilename
	}
	name := SanitizeFilename(path.Base(u.Path))
	if name == "" || name == "." || name == ".." {
		return fallbackFilename
	}
	return name
}

func (d *Downloader) fetch(ctx context.Context, req Request, target string) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid download request: %w", err)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}
	for _, c := range req.Cookies {
		httpReq.AddCookie(c)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server returned %s", resp.Status)
	}

	partial := target + ".part"
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(d.sink(f, resp.ContentLength, filepath.Base(target)), d.source(ctx, resp.Body))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		err = fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err == nil {
		err = os.Rename(partial, target)
	}
	if err != nil {
		_ = os.Remove(partial)
		return 0, err
	}
	return n, nil
}

func (d *Downloader) source(ctx context.Context, body io.Reader) io.Reader {
	if d.opts.RateLimit <= 0 {
		return body
	}
	burst := int(d.opts.RateLimit)
	return &limitedReader{
		ctx:     ctx,
		r:       body,
		limiter: rate.NewLimiter(rate.Limit(d.opts.RateLimit), burst),
	}
}

func (d *Downloader) sink(f io.Writer, size int64, name string) io.Writer {
	if d.opts.Progress == nil {
		return f
	}
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(d.opts.Progress),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return io.MultiWriter(f, bar)
}

// limitedReader paces reads through a token bucket sized in bytes.
type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if burst := l.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
