package automation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the automation counters. A nil *Metrics records nothing.
type Metrics struct {
	Launches           prometheus.Counter
	LaunchFailures     prometheus.Counter
	SessionsLost       prometheus.Counter
	PagesOpened        prometheus.Counter
	Challenges         *prometheus.CounterVec
	RequestsBlocked    *prometheus.CounterVec
	NavigationDuration prometheus.Histogram
}

// NewMetrics creates the automation metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Launches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "browser_launches_total",
			Help:      "Automation browser processes started.",
		}),
		LaunchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "browser_launch_failures_total",
			Help:      "Failed automation browser launch attempts.",
		}),
		SessionsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "sessions_lost_total",
			Help:      "Automation browser disconnects.",
		}),
		PagesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "pages_opened_total",
			Help:      "Pages opened for automation operations.",
		}),
		Challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "challenges_total",
			Help:      "Bot challenges by outcome.",
		}, []string{"outcome"}),
		RequestsBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "requests_blocked_total",
			Help:      "Requests aborted by the request filter, by resource type.",
		}, []string{"resource_type"}),
		NavigationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "anistream",
			Subsystem: "automation",
			Name:      "navigation_duration_seconds",
			Help:      "Time for a page to settle after navigation.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Launches,
			m.LaunchFailures,
			m.SessionsLost,
			m.PagesOpened,
			m.Challenges,
			m.RequestsBlocked,
			m.NavigationDuration,
		)
	}
	return m
}

func (m *Metrics) recordLaunch(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LaunchFailures.Inc()
		return
	}
	m.Launches.Inc()
}

func (m *Metrics) recordSessionLost() {
	if m == nil {
		return
	}
	m.SessionsLost.Inc()
}

func (m *Metrics) recordPageOpened() {
	if m == nil {
		return
	}
	m.PagesOpened.Inc()
}

// challenge outcomes
const (
	outcomeDetected  = "detected"
	outcomeResolved  = "resolved"
	outcomeFailed    = "failed"
	outcomePersisted = "persisted"
)

func (m *Metrics) recordChallenge(outcome string) {
	if m == nil {
		return
	}
	m.Challenges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordBlocked(resourceType string) {
	if m == nil {
		return
	}
	if resourceType == "" {
		resourceType = "other"
	}
	m.RequestsBlocked.WithLabelValues(resourceType).Inc()
}

func (m *Metrics) observeNavigation(d time.Duration) {
	if m == nil {
		return
	}
	m.NavigationDuration.Observe(d.Seconds())
}
