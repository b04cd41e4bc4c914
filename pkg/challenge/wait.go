package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/anistream/pkg/types"
)

// waitForResolve blocks until pc is resolved, ctx is done or timeout
// passes. A zero timeout never fires.
func (m *Manager) waitForResolve(ctx context.Context, pc *pendingChallenge, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-pc.resolved:
		return m.resumed(pc)

	case <-ctx.Done():
		if !m.abandon(pc) {
			return m.resumed(pc)
		}
		m.logger.Infof("challenge wait on page %s cancelled: %v", pc.pageID, ctx.Err())
		return ctx.Err()

	case <-expired:
		if !m.abandon(pc) {
			return m.resumed(pc)
		}
		m.logger.Warnf("challenge wait on page %s timed out after %s", pc.pageID, timeout)
		m.emitEvent(types.NewChallengeTimeoutEvent(pc.pageID, pc.url))
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// abandon removes pc if it is still pending. It returns false when Resolve
// claimed it first, in which case the wait counts as resolved.
func (m *Manager) abandon(pc *pendingChallenge) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.pending[pc.pageID]; ok && current == pc {
		delete(m.pending, pc.pageID)
		return true
	}
	return false
}

func (m *Manager) resumed(pc *pendingChallenge) error {
	m.logger.Infof("challenge on page %s resolved", pc.pageID)
	m.emitEvent(types.NewChallengeResolvedEvent(pc.pageID, pc.url))
	return nil
}
