package service

import (
	"context"
	"sync"
)

// SelectionTracker remembers the latest cohort load per dashboard view. Starting a new
// load for a view cancels the previous one so a slow response can never be applied to
// a selection the user has already left.
type SelectionTracker struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]*SelectionTicket
}

// SelectionTicket identifies one load attempt.
type SelectionTicket struct {
	key    string
	seq    uint64
	cancel context.CancelFunc
}

// NewSelectionTracker constructs an empty tracker.
func NewSelectionTracker() *SelectionTracker {
	return &SelectionTracker{inflight: make(map[string]*SelectionTicket)}
}

// Begin registers a new load for key and supersedes any load still running for it.
func (t *SelectionTracker) Begin(ctx context.Context, key string) (context.Context, *SelectionTicket) {
	loadCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	ticket := &SelectionTicket{key: key, seq: t.seq, cancel: cancel}
	if prev, ok := t.inflight[key]; ok {
		prev.cancel()
	}
	t.inflight[key] = ticket
	return loadCtx, ticket
}

// Current reports whether ticket is still the newest load for its key.
func (t *SelectionTracker) Current(ticket *SelectionTicket) bool {
	if ticket == nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, ok := t.inflight[ticket.key]
	return ok && latest.seq == ticket.seq
}

// Done releases the ticket.
func (t *SelectionTracker) Done(ticket *SelectionTicket) {
	if ticket == nil {
		return
	}
	ticket.cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if latest, ok := t.inflight[ticket.key]; ok && latest.seq == ticket.seq {
		delete(t.inflight, ticket.key)
	}
}
