// Package confirm implements a type-to-confirm gate for destructive
// operations.
//
// A caller installs a Request describing the action and the exact word the
// human must re-type, then waits for the outcome. The event side feeds typed
// input and terminal confirm/cancel signals into the gate. Confirmation
// requires byte-exact equality with the expected word; every cancellation
// path resolves false. The gate holds at most one pending request.
package confirm

import (
	"errors"
	"sync"
)

// ErrConfirmationPending is returned by Begin while a prior request is
// still unresolved.
var ErrConfirmationPending = errors.New("a confirmation is already pending")

// ErrConfirmationRejected marks a destructive action the human declined.
// The gate itself never returns it; API callers use it to map a false
// outcome to a response.
var ErrConfirmationRejected = errors.New("confirmation rejected")

// Request describes one confirmation prompt. It has no identity of its own
// and lives only for the duration of a single gate cycle.
type Request struct {
	Title             string `json:"title"`
	Message           string `json:"message"`
	Details           string `json:"details,omitempty"`
	ConfirmWord       string `json:"confirmWord"`
	ConfirmButtonText string `json:"confirmButtonText"`
}

// Pending is an installed, not yet settled confirmation request.
type Pending struct {
	req     Request
	input   string // guarded by the owning gate's mu
	outcome chan bool
}

// Wait blocks until the request is settled and returns the outcome: true
// only when the exact confirm word was typed and confirmed. There is no
// timeout; a pending request stays pending until a terminal user action.
func (p *Pending) Wait() bool {
	return <-p.outcome
}

// Gate is a single-slot confirmation prompt shared by all destructive
// flows. The zero value is ready to use.
type Gate struct {
	mu      sync.Mutex
	pending *Pending
}

// New returns an empty gate.
func New() *Gate {
	return &Gate{}
}

// Begin installs req as the pending request. The slot is installed
// synchronously: once Begin returns, Type/Confirm/Cancel act on this
// request. Returns ErrConfirmationPending while another request is
// outstanding. The typed input always starts empty; nothing leaks from a
// previous cycle.
func (g *Gate) Begin(req Request) (*Pending, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		return nil, ErrConfirmationPending
	}

	p := &Pending{req: req, outcome: make(chan bool, 1)}
	g.pending = p
	return p, nil
}

// Request installs req and waits for its outcome. This is the blocking form
// of Begin + Wait for callers that have nothing to do in between.
func (g *Gate) Request(req Request) (bool, error) {
	p, err := g.Begin(req)
	if err != nil {
		return false, err
	}
	return p.Wait(), nil
}

// Current returns the pending request, if any.
func (g *Gate) Current() (Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return Request{}, false
	}
	return g.pending.req, true
}

// Type records the current typed input. Ignored when nothing is pending.
func (g *Gate) Type(input string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		g.pending.input = input
	}
}

// ConfirmEnabled reports whether the typed input matches the confirm word
// exactly. The confirm control stays disabled until this holds, and
// re-disables the moment the input diverges again.
func (g *Gate) ConfirmEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.pending != nil && g.pending.input == g.pending.req.ConfirmWord
}

// Confirm settles the pending request with true, but only when the typed
// input matches the confirm word; otherwise it is a no-op, mirroring a
// disabled control. Reports whether the request was settled.
func (g *Gate) Confirm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.pending.input != g.pending.req.ConfirmWord {
		return false
	}
	g.settle(true)
	return true
}

// Cancel settles the pending request with false regardless of the typed
// input. Explicit cancel, backdrop dismissal, and escape all route here.
// Reports whether there was a request to cancel.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return false
	}
	g.settle(false)
	return true
}

// settle resolves the pending request and clears the slot. Callers must
// hold g.mu.
func (g *Gate) settle(outcome bool) {
	g.pending.outcome <- outcome
	g.pending = nil
}
