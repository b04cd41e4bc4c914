package automation

import (
	"mime"
	"strings"

	"github.com/entrhq/anistream/pkg/logging"
)

// DefaultAdDomains are URL substrings of ad and tracking requests.
var DefaultAdDomains = []string{
	"googlesyndication.com",
	"adservice.google.com",
	"doubleclick.net",
	"googleadservices.com",
	"adnxs.com",
	"taboola.com",
	"outbrain.com",
	"exoclick.com",
	"mgid.com",
	"popads.net",
	"advertising.com",
	"popunder",
	"banner",
}

// DefaultAdContentTypes are image types blocked when declared on image requests.
var DefaultAdContentTypes = []string{
	"image/gif",
	"image/jpeg",
	"image/png",
}

// RequestFilter decides which page requests to abort.
type RequestFilter struct {
	domains      []string
	contentTypes map[string]struct{}
	metrics      *Metrics
	logger       *logging.Logger
}

// NewRequestFilter creates a filter over the given denylist and image
// content types. Matching is case-insensitive.
func NewRequestFilter(domains, contentTypes []string, metrics *Metrics, logger *logging.Logger) *RequestFilter {
	f := &RequestFilter{
		domains:      make([]string, 0, len(domains)),
		contentTypes: make(map[string]struct{}, len(contentTypes)),
		metrics:      metrics,
		logger:       logger,
	}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			f.domains = append(f.domains, d)
		}
	}
	for _, ct := range contentTypes {
		f.contentTypes[strings.ToLower(strings.TrimSpace(ct))] = struct{}{}
	}
	return f
}

// DefaultRequestFilter creates a filter with the built-in lists.
func DefaultRequestFilter(metrics *Metrics, logger *logging.Logger) *RequestFilter {
	return NewRequestFilter(DefaultAdDomains, DefaultAdContentTypes, metrics, logger)
}

// ShouldBlock reports whether req targets a denylisted domain, or is an
// image request declaring an ad image content type.
func (f *RequestFilter) ShouldBlock(req RequestInfo) bool {
	target := strings.ToLower(req.URL)
	for _, d := range f.domains {
		if strings.Contains(target, d) {
			return true
		}
	}

	if req.ResourceType != "image" || req.ContentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(req.ContentType))
	}
	_, blocked := f.contentTypes[mediaType]
	return blocked
}

// Install routes every request of page through the filter.
func (f *RequestFilter) Install(page Page) error {
	return page.Route(func(req RequestInfo) bool {
		if !f.ShouldBlock(req) {
			return false
		}
		f.metrics.recordBlocked(req.ResourceType)
		f.logger.Debugf("blocked %s %s", req.ResourceType, req.URL)
		return true
	})
}
