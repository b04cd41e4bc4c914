// Package challenge suspends page operations that hit an anti-bot challenge
// until a human signals that it has been solved.
//
// Each page has at most one pending wait. A wait ends exactly once: by
// Resolve, by context cancellation or by the configured timeout.
package challenge

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/types"
)

var (
	// ErrTimeout is returned by Await when nobody resolved the challenge in time.
	ErrTimeout = errors.New("challenge wait timed out")

	// ErrAlreadyPending is returned by Await when the page already has a pending wait.
	ErrAlreadyPending = errors.New("challenge already pending for page")
)

// EventEmitter is a function type for emitting events
type EventEmitter func(event *types.Event)

// Manager tracks pending challenge waits keyed by page ID.
type Manager struct {
	timeout   time.Duration
	pending   map[string]*pendingChallenge
	mu        sync.Mutex
	emitEvent EventEmitter
	logger    *logging.Logger
}

// pendingChallenge tracks a page waiting for the operator
type pendingChallenge struct {
	pageID    string
	url       string
	since     time.Time
	resolved  chan struct{}
	closeOnce sync.Once
}

// PendingChallenge describes an outstanding wait, for display.
type PendingChallenge struct {
	PageID string
	URL    string
	Since  time.Time
}

// NewManager creates a challenge manager. A zero timeout waits without
// bound. emitEvent and logger may be nil.
func NewManager(timeout time.Duration, emitEvent EventEmitter, logger *logging.Logger) *Manager {
	if emitEvent == nil {
		emitEvent = func(*types.Event) {}
	}
	return &Manager{
		timeout:   timeout,
		pending:   make(map[string]*pendingChallenge),
		emitEvent: emitEvent,
		logger:    logger,
	}
}

// SetTimeout changes the timeout applied to waits that start afterwards.
func (m *Manager) SetTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
}

// Await registers a challenge for pageID, emits a challenge encountered
// event and blocks until the challenge is resolved, ctx is done or the
// timeout expires. It returns nil only when the challenge was resolved.
func (m *Manager) Await(ctx context.Context, pageID, url string) error {
	pc, timeout, err := m.setupPending(pageID, url)
	if err != nil {
		return err
	}

	m.logger.Infof("challenge pending on page %s (%s)", pageID, url)
	m.emitEvent(types.NewChallengeEncounteredEvent(pageID, url))

	return m.waitForResolve(ctx, pc, timeout)
}

// Resolve ends the pending wait for pageID and reports whether one existed.
// An empty pageID resolves the only pending wait, and does nothing when
// zero or several waits are pending. Calls that match nothing are no-ops
// and are not remembered for later challenges.
func (m *Manager) Resolve(pageID string) bool {
	m.mu.Lock()
	if pageID == "" {
		if len(m.pending) != 1 {
			m.mu.Unlock()
			return false
		}
		for id := range m.pending {
			pageID = id
		}
	}

	pc, ok := m.pending[pageID]
	if ok {
		delete(m.pending, pageID)
	}
	m.mu.Unlock()

	if !ok {
		m.logger.Debugf("resolve for page %q ignored: no pending challenge", pageID)
		return false
	}

	pc.closeOnce.Do(func() {
		close(pc.resolved)
	})
	return true
}

// Pending lists outstanding waits, oldest first.
func (m *Manager) Pending() []PendingChallenge {
	m.mu.Lock()
	out := make([]PendingChallenge, 0, len(m.pending))
	for _, pc := range m.pending {
		out = append(out, PendingChallenge{PageID: pc.pageID, URL: pc.url, Since: pc.since})
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Since.Equal(out[j].Since) {
			return out[i].PageID < out[j].PageID
		}
		return out[i].Since.Before(out[j].Since)
	})
	return out
}

// IsPending reports whether pageID has an outstanding wait.
func (m *Manager) IsPending(pageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[pageID]
	return ok
}

// setupPending stores the pending wait and snapshots the timeout.
func (m *Manager) setupPending(pageID, url string) (*pendingChallenge, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[pageID]; exists {
		return nil, 0, ErrAlreadyPending
	}

	pc := &pendingChallenge{
		pageID:   pageID,
		url:      url,
		since:    time.Now(),
		resolved: make(chan struct{}),
	}
	m.pending[pageID] = pc
	return pc, m.timeout, nil
}
