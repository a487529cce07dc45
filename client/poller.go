package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

// DefaultPollInterval is the reconciliation cadence. Push events shortcut
// the common case; the poll is the convergence mechanism of record.
const DefaultPollInterval = 3 * time.Second

// ParticipantView is this participant's best-known snapshot of the session.
// It is reconciled against the server, never trusted as source of truth.
type ParticipantView struct {
	Status           types.SessionStatus
	PeerConnected    bool
	TransferredBytes int64
	ProgressPercent  float64
}

// Hooks are the one-shot side effects the poller fires on state edges. Each
// fires at most once per poller instance regardless of how often, or in what
// order, the triggering observation arrives.
type Hooks struct {
	OnPeerConnected   func()
	OnTransferStarted func()
	OnProgress        func(transferredBytes int64, percent float64)
	OnCompleted       func(snap types.SessionSnapshot)
	OnCancelled       func(status types.SessionStatus)
}

// Poller is the client-side reconciliation state machine for one session.
// One instance per active session; discarded on terminal transition. All
// side effects are edge-triggered: re-applying the same observation is a
// no-op, which is what makes the concurrent push listener safe without a
// lock between the two.
type Poller struct {
	fetch    func(ctx context.Context) (types.SessionSnapshot, error)
	interval time.Duration
	hooks    Hooks

	mu      sync.Mutex
	view    ParticipantView
	nextSeq uint64
	applied uint64

	nudge chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewPoller creates a poller over an injected fetch function. The view
// starts idle; Run drives it.
func NewPoller(fetch func(ctx context.Context) (types.SessionSnapshot, error), interval time.Duration, hooks Hooks) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		hooks:    hooks,
		nudge:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Run polls until the session reaches a terminal state or ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		case <-p.nudge:
			p.pollOnce(ctx)
		}
	}
}

// Nudge requests an immediate out-of-band poll. Used by the push listener:
// an event is only a hint that the authoritative state is worth re-reading.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Done is closed once a terminal state has been observed and its side
// effects have run.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// View returns the current local view.
func (p *Poller) View() ParticipantView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

func (p *Poller) pollOnce(ctx context.Context) {
	p.mu.Lock()
	p.nextSeq++
	seq := p.nextSeq
	p.mu.Unlock()

	snap, err := p.fetch(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionExpired) {
			// The session is gone for good; converge to a terminal view.
			p.applyTerminal(types.StatusExpired)
			return
		}
		// Transient poll failure: skip this tick, try again next tick.
		tool.DefaultLogger.Debugf("[Poller] Poll failed, will retry: %v", err)
		return
	}
	p.Apply(seq, snap)
}

// Apply reconciles one observed snapshot into the local view. seq is the
// fetch sequence the snapshot belongs to; a response that lost the race to a
// newer one is discarded so displayed progress never regresses.
func (p *Poller) Apply(seq uint64, snap types.SessionSnapshot) {
	type effect func()
	var effects []effect

	p.mu.Lock()
	if seq < p.applied {
		p.mu.Unlock()
		return
	}
	p.applied = seq

	if p.view.Status.Terminal() {
		p.mu.Unlock()
		return
	}

	if snap.PeerConnected && !p.view.PeerConnected {
		p.view.PeerConnected = true
		if p.hooks.OnPeerConnected != nil {
			effects = append(effects, p.hooks.OnPeerConnected)
		}
	}
	if snap.Status == types.StatusTransferring && p.view.Status != types.StatusTransferring {
		p.view.Status = types.StatusTransferring
		if p.hooks.OnTransferStarted != nil {
			effects = append(effects, p.hooks.OnTransferStarted)
		}
	}
	if snap.TransferredBytes > p.view.TransferredBytes && p.view.ProgressPercent < 100 {
		p.view.TransferredBytes = snap.TransferredBytes
		p.view.ProgressPercent = snap.ProgressPercent
		if p.hooks.OnProgress != nil {
			bytes, percent := snap.TransferredBytes, snap.ProgressPercent
			effects = append(effects, func() { p.hooks.OnProgress(bytes, percent) })
		}
	}

	var terminal types.SessionStatus
	if snap.Status.Terminal() {
		terminal = snap.Status
		p.view.Status = snap.Status
	}
	p.mu.Unlock()

	for _, fire := range effects {
		fire()
	}

	switch {
	case terminal == types.StatusCompleted:
		if p.hooks.OnCompleted != nil {
			p.hooks.OnCompleted(snap)
		}
		p.stop()
	case terminal != "":
		if p.hooks.OnCancelled != nil {
			p.hooks.OnCancelled(terminal)
		}
		p.stop()
	}
}

// ApplyProgress folds a transfer_progress push hint into the view through
// the same monotonic guard the poll path uses. Hints never advance the
// sequence: a later authoritative poll always wins.
func (p *Poller) ApplyProgress(transferredBytes int64, percent float64) {
	p.mu.Lock()
	if p.view.Status.Terminal() || transferredBytes <= p.view.TransferredBytes || p.view.ProgressPercent >= 100 {
		p.mu.Unlock()
		return
	}
	p.view.TransferredBytes = transferredBytes
	p.view.ProgressPercent = percent
	hook := p.hooks.OnProgress
	p.mu.Unlock()

	if hook != nil {
		hook(transferredBytes, percent)
	}
}

func (p *Poller) applyTerminal(status types.SessionStatus) {
	p.mu.Lock()
	if p.view.Status.Terminal() {
		p.mu.Unlock()
		return
	}
	p.view.Status = status
	p.mu.Unlock()

	if p.hooks.OnCancelled != nil {
		p.hooks.OnCancelled(status)
	}
	p.stop()
}

// stop halts polling and resets the view to idle; a new session starts a
// fresh machine instance.
func (p *Poller) stop() {
	p.once.Do(func() {
		close(p.done)
	})
}
