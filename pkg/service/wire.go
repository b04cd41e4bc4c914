package service

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entrhq/anistream/pkg/automation"
	"github.com/entrhq/anistream/pkg/challenge"
	"github.com/entrhq/anistream/pkg/config"
	"github.com/entrhq/anistream/pkg/download"
	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/scrape"
	"github.com/entrhq/anistream/pkg/types"
)

// Deps are the process-level collaborators of Build.
type Deps struct {
	// Driver starts browsers; a Playwright driver when nil.
	Driver automation.Driver

	// EmitEvent receives every event of every component.
	EmitEvent EventEmitter

	// Registerer receives the automation metrics; none are recorded when nil.
	Registerer prometheus.Registerer

	// Progress receives download progress bars when non-nil.
	Progress io.Writer

	Logger *logging.Logger
}

// Build assembles a Service from the automation, browsing and downloads
// configuration sections of m.
func Build(m *config.Manager, deps Deps) *Service {
	logger := deps.Logger
	emit := deps.EmitEvent
	if emit == nil {
		emit = func(*types.Event) {}
	}

	settings := config.AutomationOf(m).Snapshot()
	dir, rateLimit := config.DownloadsOf(m).Settings()

	var metrics *automation.Metrics
	if deps.Registerer != nil {
		metrics = automation.NewMetrics(deps.Registerer)
	}

	driver := deps.Driver
	if driver == nil {
		driver = automation.NewPlaywrightDriver(true, logger.With("playwright"))
	}

	challenges := challenge.NewManager(settings.ChallengeTimeout, challenge.EventEmitter(emit), logger.With("challenge"))

	opts := automation.OptionsFromConfig(settings)
	opts.Logger = logger.With("automation")
	opts.Metrics = metrics
	opts.EmitEvent = automation.EventEmitter(emit)
	opts.Detector = scrape.NewDetector(scrape.DefaultChallengeMarkers(), logger.With("detector"))
	controller := automation.NewController(driver, challenges, opts)

	downloader := download.New(download.Options{
		Dir:       dir,
		RateLimit: rateLimit,
		Progress:  deps.Progress,
		Logger:    logger.With("download"),
		EmitEvent: download.EventEmitter(emit),
	})

	rules := scrape.DefaultRules()
	return New(controller, challenges,
		WithExtractor(scrape.NewExtractor(rules, logger.With("extract"))),
		WithLocator(scrape.NewLocator(rules, logger.With("locate"))),
		WithDownloader(downloader),
		WithEventEmitter(emit),
		WithLogger(logger),
	)
}
