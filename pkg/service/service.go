// Package service exposes the inbound commands of the automation core:
// browsing, extraction, video location, downloads and challenge
// resolution.
//
// Page-level failures degrade to a not-found result plus a page_error
// event. Only a browser that cannot be launched is returned as an error,
// since it blocks every command.
package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/entrhq/anistream/pkg/automation"
	"github.com/entrhq/anistream/pkg/challenge"
	"github.com/entrhq/anistream/pkg/download"
	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/scrape"
	"github.com/entrhq/anistream/pkg/types"
)

// EventEmitter receives every outbound signal of the core.
type EventEmitter func(event *types.Event)

// BrowseOptions mirror the per-call browsing switches of the shell.
type BrowseOptions struct {
	AdBlock    bool
	AutoDetect bool
}

// Service runs the inbound commands against one automation controller.
type Service struct {
	controller *automation.Controller
	challenges *challenge.Manager
	extractor  *scrape.Extractor
	locator    *scrape.Locator
	downloader *download.Downloader
	emit       EventEmitter
	logger     *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExtractor overrides the content extractor.
func WithExtractor(e *scrape.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithLocator overrides the media locator.
func WithLocator(l *scrape.Locator) Option {
	return func(s *Service) { s.locator = l }
}

// WithDownloader sets the downloader used by DownloadEpisode.
func WithDownloader(d *download.Downloader) Option {
	return func(s *Service) { s.downloader = d }
}

// WithEventEmitter sets the sink for anime_detected and page_error events.
func WithEventEmitter(emit EventEmitter) Option {
	return func(s *Service) { s.emit = emit }
}

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. challenges must be the waiter the controller
// suspends on, so that ResolveChallenge reaches pending visits.
func New(controller *automation.Controller, challenges *challenge.Manager, opts ...Option) *Service {
	s := &Service{
		controller: controller,
		challenges: challenges,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.extractor == nil {
		s.extractor = scrape.NewExtractor(nil, s.logger)
	}
	if s.locator == nil {
		s.locator = scrape.NewLocator(nil, s.logger)
	}
	if s.downloader == nil {
		s.downloader = download.New(download.Options{Logger: s.logger})
	}
	if s.emit == nil {
		s.emit = func(*types.Event) {}
	}
	return s
}

// Browse opens url and, with AutoDetect, emits anime_detected when the page
// yields a title. It reports whether the page loaded.
func (s *Service) Browse(ctx context.Context, url string, opts BrowseOptions) (bool, error) {
	err := s.controller.Visit(ctx, url, automation.VisitOptions{AdBlock: opts.AdBlock}, func(_ automation.Page, snap scrape.Snapshot) error {
		if !opts.AutoDetect {
			return nil
		}
		info := s.extractor.Extract(snap)
		if info.HasTitle() {
			s.logger.Infof("detected %q episode %d on %s", *info.Title, info.EpisodeOr(0), info.URL)
			s.emit(types.NewAnimeDetectedEvent(info))
		}
		return nil
	})
	if err != nil {
		return false, s.degrade(url, err)
	}
	return true, nil
}

// BrowseSource browses a registered source with its own switches.
func (s *Service) BrowseSource(ctx context.Context, src types.Source) (bool, error) {
	return s.Browse(ctx, src.URL, BrowseOptions{AdBlock: src.AdBlock, AutoDetect: src.AutoDetect})
}

// ExtractInfo loads url and returns what the extractor finds. Absent fields
// are nil; a page that cannot be loaded returns nil.
func (s *Service) ExtractInfo(ctx context.Context, url string) (*types.AnimeInfo, error) {
	var info *types.AnimeInfo
	err := s.controller.Visit(ctx, url, automation.VisitOptions{}, func(_ automation.Page, snap scrape.Snapshot) error {
		result := s.extractor.Extract(snap)
		info = &result
		return nil
	})
	if err != nil {
		return nil, s.degrade(url, err)
	}
	return info, nil
}

// LocateVideo loads url and returns the first streamable media URL on it.
func (s *Service) LocateVideo(ctx context.Context, url string) (string, bool, error) {
	var (
		video string
		found bool
	)
	err := s.controller.Visit(ctx, url, automation.VisitOptions{}, func(_ automation.Page, snap scrape.Snapshot) error {
		video, found = s.locator.Locate(snap)
		return nil
	})
	if err != nil {
		return "", false, s.degrade(url, err)
	}
	return video, found, nil
}

// DownloadEpisode locates the video on url and saves it as filename in the
// download directory. The request reuses the page's user agent and cookies.
func (s *Service) DownloadEpisode(ctx context.Context, url, filename string) (bool, error) {
	var (
		req   download.Request
		found bool
	)
	err := s.controller.Visit(ctx, url, automation.VisitOptions{}, func(page automation.Page, snap scrape.Snapshot) error {
		video, ok := s.locator.Locate(snap)
		if !ok {
			return nil
		}
		found = true
		req = download.Request{
			URL:       video,
			Filename:  filename,
			Referer:   snap.URL,
			UserAgent: page.UserAgent(),
		}
		cookies, err := page.Cookies()
		if err != nil {
			s.logger.Warnf("cookies unavailable for %s: %v", snap.URL, err)
			return nil
		}
		req.Cookies = httpCookies(cookies)
		return nil
	})
	if err != nil {
		return false, s.degrade(url, err)
	}
	if !found {
		s.logger.Infof("no video found on %s", url)
		return false, nil
	}

	if _, err := s.downloader.Download(ctx, req); err != nil {
		return false, nil
	}
	return true, nil
}

// ResolveChallenge releases the challenge wait of pageID. An empty pageID
// releases the only pending challenge. Returns false when nothing matched.
func (s *Service) ResolveChallenge(pageID string) bool {
	return s.challenges.Resolve(pageID)
}

// PendingChallenges lists the visits waiting on the operator.
func (s *Service) PendingChallenges() []challenge.PendingChallenge {
	return s.challenges.Pending()
}

// Close shuts the browser down.
func (s *Service) Close() error {
	return s.controller.Teardown()
}

// degrade swallows page-level failures. Launch failures are returned.
func (s *Service) degrade(url string, err error) error {
	if automation.IsLaunchError(err) {
		s.logger.Errorf("browser unavailable: %v", err)
		return err
	}
	if errors.Is(err, context.Canceled) {
		s.logger.Infof("operation on %s cancelled", url)
	} else {
		s.logger.Warnf("operation on %s failed: %v", url, err)
	}
	s.emit(types.NewPageErrorEvent(url, err))
	return nil
}

func httpCookies(in []automation.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return out
}
