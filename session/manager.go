// Package session holds the single active transfer session of the sender.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

var (
	// ErrInvalidSessionRequest is a caller error: empty file set, or a session already exists.
	ErrInvalidSessionRequest = errors.New("invalid session request")
	// ErrLinkIssuanceFailed means the issuer could not create a link. No state changed.
	ErrLinkIssuanceFailed = errors.New("link issuance failed")
	// ErrWatchFailed means liveness polling could not start. The session was rolled back
	// and its link revoked.
	ErrWatchFailed = errors.New("liveness watch failed")
)

// LinkIssuer creates the ephemeral transfer link for a file set.
type LinkIssuer interface {
	IssueLink(ctx context.Context, files []types.RegisteredFile) (types.IssuedLink, error)
}

// Revoker is implemented by issuers that can drop a link locally when a session is cancelled.
type Revoker interface {
	Revoke(id string)
}

// Watcher is told when a session becomes present and when it is cancelled.
type Watcher interface {
	Watch(sessionID string) error
	StopSession(sessionID string)
}

type Manager struct {
	issuer  LinkIssuer
	watcher Watcher
	now     func() time.Time

	mu       sync.Mutex
	current  *types.TransferSession
	creating bool
}

func NewManager(issuer LinkIssuer) *Manager {
	return &Manager{issuer: issuer, now: time.Now}
}

// SetWatcher attaches the liveness watcher. Call before the first CreateSession.
func (m *Manager) SetWatcher(w Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watcher = w
}

// CreateSession issues a link for files. The session keeps its own copy of files.
func (m *Manager) CreateSession(ctx context.Context, files []types.RegisteredFile) (types.TransferSession, error) {
	if len(files) == 0 {
		return types.TransferSession{}, fmt.Errorf("%w: no files registered", ErrInvalidSessionRequest)
	}
	m.mu.Lock()
	if m.current != nil || m.creating {
		m.mu.Unlock()
		return types.TransferSession{}, fmt.Errorf("%w: a session is already active", ErrInvalidSessionRequest)
	}
	m.creating = true
	m.mu.Unlock()

	snapshot := slices.Clone(files)
	link, err := m.issuer.IssueLink(ctx, snapshot)

	m.mu.Lock()
	if err != nil {
		m.creating = false
		m.mu.Unlock()
		return types.TransferSession{}, fmt.Errorf("%w: %v", ErrLinkIssuanceFailed, err)
	}
	sess := &types.TransferSession{
		ID:        link.ID,
		Payload:   link.Payload,
		Files:     snapshot,
		CreatedAt: m.now(),
	}
	m.current = sess
	watcher := m.watcher
	m.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] Created session %s with %d files", sess.ID, len(sess.Files))
	if watcher == nil {
		m.mu.Lock()
		m.creating = false
		m.mu.Unlock()
		return copySession(sess), nil
	}

	// creating stays set until Watch returned, so no second session can race this one
	// for the poller.
	watchErr := watcher.Watch(sess.ID)

	m.mu.Lock()
	owned := m.current == sess
	if watchErr != nil && owned {
		m.current = nil
	}
	cancelled := !owned && !sess.Consumed
	result := copySession(sess)
	m.mu.Unlock()

	if watchErr == nil && cancelled {
		// CancelSession ran before Watch started polling and found nothing to stop.
		watcher.StopSession(sess.ID)
	}
	m.mu.Lock()
	m.creating = false
	m.mu.Unlock()

	switch {
	case watchErr != nil:
		if owned {
			m.revoke(sess.ID)
		}
		tool.DefaultLogger.Errorf("[Session] Failed to watch session %s: %v", sess.ID, watchErr)
		return types.TransferSession{}, fmt.Errorf("%w: session %s: %v", ErrWatchFailed, sess.ID, watchErr)
	case cancelled:
		return types.TransferSession{}, fmt.Errorf("%w: session %s was cancelled while starting", ErrInvalidSessionRequest, sess.ID)
	}
	return result, nil
}

// CancelSession drops the current session and stops its liveness polling. No-op when absent.
func (m *Manager) CancelSession() {
	m.mu.Lock()
	sess := m.current
	m.current = nil
	watcher := m.watcher
	m.mu.Unlock()

	if sess == nil {
		return
	}
	if watcher != nil {
		watcher.StopSession(sess.ID)
	}
	m.revoke(sess.ID)
	tool.DefaultLogger.Infof("[Session] Cancelled session %s", sess.ID)
}

func (m *Manager) revoke(id string) {
	if r, ok := m.issuer.(Revoker); ok {
		r.Revoke(id)
	}
}

// Consume marks the session with id consumed and clears it.
// It returns false if id is not the current session.
func (m *Manager) Consume(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.ID != id {
		return false
	}
	m.current.Consumed = true
	m.current = nil
	tool.DefaultLogger.Infof("[Session] Session %s consumed", id)
	return true
}

// Current returns a copy of the active session.
func (m *Manager) Current() (types.TransferSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return types.TransferSession{}, false
	}
	return copySession(m.current), true
}

func copySession(s *types.TransferSession) types.TransferSession {
	c := *s
	c.Files = slices.Clone(s.Files)
	return c
}
