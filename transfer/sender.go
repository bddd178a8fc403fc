// Package transfer runs the sending side: it keeps the intake queue fed from drop events,
// issues one share session at a time and resets everything once the link was used.
package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/moyoez/qrsend/intake"
	"github.com/moyoez/qrsend/liveness"
	"github.com/moyoez/qrsend/session"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

var (
	ErrAlreadyStarted = errors.New("sender already started")
	ErrClosed         = errors.New("sender closed")
)

type Options struct {
	Resolver intake.MetadataResolver
	Issuer   session.LinkIssuer
	Checker  liveness.ConsumedChecker
	Source   intake.DropSource
	// Interval between liveness checks, liveness.DefaultInterval when zero.
	Interval time.Duration
	// Notify receives lifecycle notifications. Optional.
	Notify func(*types.Notification)
	// ResetHooks run after a consumed session was torn down.
	ResetHooks []func(types.TransferSession)
}

// Sender owns the intake queue, the session manager and the liveness poller.
type Sender struct {
	queue   *intake.Queue
	manager *session.Manager
	poller  *liveness.Poller
	issuer  session.LinkIssuer
	source  intake.DropSource
	notify  func(*types.Notification)
	hooks   []func(types.TransferSession)

	mu        sync.Mutex
	parent    context.Context
	cancelSub context.CancelFunc
	subDone   chan struct{}
	started   bool
	closed    bool
}

func New(opts Options) *Sender {
	s := &Sender{
		queue:   intake.NewQueue(opts.Resolver),
		manager: session.NewManager(opts.Issuer),
		issuer:  opts.Issuer,
		source:  opts.Source,
		notify:  opts.Notify,
		hooks:   opts.ResetHooks,
	}
	s.poller = liveness.NewPoller(opts.Checker, opts.Interval, s.handleConsumed)
	s.manager.SetWatcher(s.poller)
	return s
}

// Start subscribes to the drop source. Without a source it only marks the sender started.
func (s *Sender) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.parent = ctx
	s.subscribeLocked()
	return nil
}

// Close stops polling, drops the active session and unsubscribes. It waits for the
// subscription goroutine to exit.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.manager.CancelSession()
	s.poller.Stop()
	s.unsubscribeLocked()
	tool.DefaultLogger.Debugf("[Sender] Closed")
}

func (s *Sender) subscribeLocked() {
	if s.source == nil || s.parent == nil {
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	done := make(chan struct{})
	s.cancelSub = cancel
	s.subDone = done
	go func() {
		defer close(done)
		s.queue.Consume(ctx, s.source, s.onBatch)
	}()
}

func (s *Sender) unsubscribeLocked() {
	if s.cancelSub == nil {
		return
	}
	s.cancelSub()
	<-s.subDone
	s.cancelSub = nil
	s.subDone = nil
}

func (s *Sender) onBatch(added []types.RegisteredFile) {
	tool.DefaultLogger.Infof("[Sender] Registered %d dropped files", len(added))
	s.publish(&types.Notification{
		Type:  types.NotifyTypeFilesRegistered,
		Title: "Files Registered",
		Data:  map[string]any{"files": added, "total": s.queue.Len()},
	})
}

func (s *Sender) publish(n *types.Notification) {
	if s.notify != nil {
		s.notify(n)
	}
}

func (s *Sender) Register(ctx context.Context, paths []string) ([]types.RegisteredFile, error) {
	added, err := s.queue.Register(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.onBatch(added)
	}
	return added, nil
}

func (s *Sender) Remove(path string) { s.queue.Remove(path) }

func (s *Sender) Clear() { s.queue.Clear() }

func (s *Sender) Files() []types.RegisteredFile { return s.queue.Files() }

// CreateSession issues a link for the files registered right now. It is serialized with
// the consumed reset, so the files of a consumed session are never shared twice.
func (s *Sender) CreateSession(ctx context.Context) (types.TransferSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.TransferSession{}, ErrClosed
	}
	sess, err := s.manager.CreateSession(ctx, s.queue.Files())
	if err != nil {
		return types.TransferSession{}, err
	}
	s.publish(sessionNotification(types.NotifyTypeSessionCreated, "Share Link Ready", sess))
	return sess, nil
}

// CancelSession ends the active session without a reset. Registered files stay.
func (s *Sender) CancelSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.manager.Current()
	if !ok {
		return false
	}
	s.manager.CancelSession()
	s.publish(sessionNotification(types.NotifyTypeSessionCancelled, "Share Cancelled", sess))
	return true
}

func (s *Sender) Session() (types.TransferSession, bool) { return s.manager.Current() }

func (s *Sender) State() liveness.State { return s.poller.State() }

func (s *Sender) Status() types.SenderStatus {
	status := types.SenderStatus{
		State: s.poller.State().String(),
		Files: s.queue.Files(),
	}
	if sess, ok := s.manager.Current(); ok {
		status.Session = &sess
	}
	return status
}

// handleConsumed runs on the poller goroutine. Consuming the session and resetting happen
// under s.mu as one step.
func (s *Sender) handleConsumed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	sess, ok := s.manager.Current()
	if !ok || sess.ID != id || !s.manager.Consume(id) {
		tool.DefaultLogger.Debugf("[Sender] Ignoring consumed report for stale session %s", id)
		return
	}
	sess.Consumed = true
	s.resetLocked(sess)
}

// resetLocked tears down every session-scoped resource: the drop subscription is
// re-created, the queue emptied and the share link revoked.
func (s *Sender) resetLocked(sess types.TransferSession) {
	s.unsubscribeLocked()
	s.queue.Clear()
	s.subscribeLocked()

	if r, ok := s.issuer.(session.Revoker); ok {
		r.Revoke(sess.ID)
	}
	for _, hook := range s.hooks {
		hook(sess)
	}
	tool.DefaultLogger.Infof("[Sender] Session %s consumed, reset complete", sess.ID)
	s.publish(sessionNotification(types.NotifyTypeSessionConsumed, "Files Received", sess))
}

func sessionNotification(eventType, title string, sess types.TransferSession) *types.Notification {
	return &types.Notification{
		Type:  eventType,
		Title: title,
		Data: map[string]any{
			"sessionId": sess.ID,
			"payload":   sess.Payload,
			"files":     sess.Files,
		},
	}
}
