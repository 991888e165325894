package core

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentRenders is the default limit for parallel document renders.
const DefaultMaxConcurrentRenders = 4

// DefaultRenderWaitTime is how long a render waits for a slot before it is
// turned away.
const DefaultRenderWaitTime = 30 * time.Second

// OperationGate admits a bounded number of store operations at a time.
//
// A session holds a one-slot gate with no wait, so an import or export that
// overlaps another one on the same store is refused with
// ErrOperationInProgress. The service holds a wider gate that queues
// document renders for up to the configured wait and then refuses them with
// ErrTooManyRenders.
type OperationGate struct {
	slots chan struct{}
	wait  time.Duration
	busy  error

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewOperationGate returns a gate with the given number of slots. Enter
// waits up to wait for a slot; a non-positive wait refuses immediately.
// busy is the error returned when no slot could be had.
func NewOperationGate(slots int, wait time.Duration, busy error) *OperationGate {
	if slots <= 0 {
		slots = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &OperationGate{
		slots: make(chan struct{}, slots),
		wait:  wait,
		busy:  busy,
		idle:  idle,
	}
}

// newRenderGate bounds document renders across all sessions.
func newRenderGate(slots int, wait time.Duration) *OperationGate {
	if slots <= 0 {
		slots = DefaultMaxConcurrentRenders
	}
	if wait <= 0 {
		wait = DefaultRenderWaitTime
	}
	return NewOperationGate(slots, wait, ErrTooManyRenders)
}

// newSessionGate makes import and export on one store mutually exclusive.
func newSessionGate() *OperationGate {
	return NewOperationGate(1, 0, ErrOperationInProgress)
}

// Enter claims a slot. The returned release func gives it back and is safe
// to call more than once. A cancelled ctx is reported as ctx.Err(), not as
// the gate's busy error.
func (g *OperationGate) Enter(ctx context.Context) (release func(), err error) {
	if err := g.claim(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.active == 0 {
		g.idle = make(chan struct{})
	}
	g.active++
	g.mu.Unlock()

	var once sync.Once
	return func() { once.Do(g.leave) }, nil
}

func (g *OperationGate) claim(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case g.slots <- struct{}{}:
		return nil
	default:
	}
	if g.wait <= 0 {
		return g.busy
	}

	timer := time.NewTimer(g.wait)
	defer timer.Stop()
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return g.busy
	}
}

func (g *OperationGate) leave() {
	g.mu.Lock()
	g.active--
	if g.active == 0 {
		close(g.idle)
	}
	g.mu.Unlock()
	<-g.slots
}

// Drain blocks until no operation holds a slot or ctx is done. Shutdown
// uses it so in-flight exports can finish.
func (g *OperationGate) Drain(ctx context.Context) error {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GateStatus is a snapshot of a gate's state, reported by /healthz.
type GateStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current gate state.
func (g *OperationGate) Status() GateStatus {
	g.mu.Lock()
	active := g.active
	g.mu.Unlock()

	return GateStatus{
		Active:        active,
		Available:     cap(g.slots) - active,
		MaxConcurrent: cap(g.slots),
	}
}
