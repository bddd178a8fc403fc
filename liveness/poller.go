// Package liveness polls an issued link until it is consumed or the session is cancelled.
package liveness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moyoez/qrsend/tool"
)

// DefaultInterval is the delay between two consumption checks.
const DefaultInterval = 500 * time.Millisecond

var (
	// ErrLivenessCheckFailed wraps checker errors. It is logged and never returned to callers.
	ErrLivenessCheckFailed = errors.New("liveness check failed")
	// ErrAlreadyPolling is returned by Watch while another session is polled.
	ErrAlreadyPolling = errors.New("a session is already being polled")
)

type State int

const (
	Idle State = iota
	Polling
	Consumed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Consumed:
		return "consumed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConsumedChecker asks whether the link of a session has been used.
type ConsumedChecker interface {
	CheckConsumed(ctx context.Context, sessionID string) (bool, error)
}

// Poller checks one session at a time. Checks are strictly sequential: the next one is
// scheduled only after the previous returned.
type Poller struct {
	checker    ConsumedChecker
	interval   time.Duration
	onConsumed func(sessionID string)

	mu        sync.Mutex
	state     State
	sessionID string
	gen       uint64
	cancel    context.CancelFunc
}

// NewPoller creates an idle poller. onConsumed runs on the polling goroutine after the
// poller entered Consumed. interval <= 0 means DefaultInterval.
func NewPoller(checker ConsumedChecker, interval time.Duration, onConsumed func(sessionID string)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		checker:    checker,
		interval:   interval,
		onConsumed: onConsumed,
	}
}

// Watch starts polling sessionID.
func (p *Poller) Watch(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Polling {
		return fmt.Errorf("%w: %s", ErrAlreadyPolling, p.sessionID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.gen++
	p.state = Polling
	p.sessionID = sessionID
	p.cancel = cancel
	go p.run(ctx, p.gen, sessionID)
	tool.DefaultLogger.Debugf("[Liveness] Polling session %s every %v", sessionID, p.interval)
	return nil
}

// Stop cancels polling. Once it returns no new check is started, and the result of a
// check already in flight is discarded. No-op unless polling.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// StopSession is Stop restricted to sessionID. It leaves the poller alone when it is
// polling another session.
func (p *Poller) StopSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionID != sessionID {
		return
	}
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.state != Polling {
		return
	}
	p.gen++
	p.state = Cancelled
	p.cancel()
	p.cancel = nil
	tool.DefaultLogger.Debugf("[Liveness] Stopped polling session %s", p.sessionID)
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SessionID returns the session polled last.
func (p *Poller) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

func (p *Poller) live(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen && p.state == Polling
}

func (p *Poller) run(ctx context.Context, gen uint64, sessionID string) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if !p.live(gen) {
			return
		}

		consumed, err := p.checker.CheckConsumed(ctx, sessionID)
		if !p.live(gen) {
			return // stale response
		}
		if err != nil {
			tool.DefaultLogger.Warnf("[Liveness] %v", fmt.Errorf("%w for session %s: %v", ErrLivenessCheckFailed, sessionID, err))
			timer.Reset(p.interval)
			continue
		}
		if !consumed {
			timer.Reset(p.interval)
			continue
		}

		if !p.finish(gen) {
			return
		}
		tool.DefaultLogger.Infof("[Liveness] Session %s consumed", sessionID)
		if p.onConsumed != nil {
			p.onConsumed(sessionID)
		}
		return
	}
}

// finish moves a live generation to Consumed.
func (p *Poller) finish(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.state != Polling {
		return false
	}
	p.state = Consumed
	p.cancel()
	p.cancel = nil
	return true
}
