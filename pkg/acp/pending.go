package acp

import (
	"encoding/json"
	"sync"
)

// callResult is the single value written to a pending call: either the raw
// result payload or a failure.
type callResult struct {
	result json.RawMessage
	err    error
}

// pendingCall tracks one outstanding locally-issued request. The channel is
// buffered so the resolver never blocks on a caller that already gave up.
type pendingCall struct {
	id uint64
	ch chan callResult
}

// callTable owns the id counter and the set of outstanding calls. Ids are
// assigned monotonically starting at 0 and never reused for the lifetime of
// the connection.
type callTable struct {
	mu     sync.Mutex
	nextID uint64
	calls  map[uint64]*pendingCall
	closed bool
}

func newCallTable() *callTable {
	return &callTable{
		calls: make(map[uint64]*pendingCall),
	}
}

// register allocates the next id and an entry for it. After cancelAll the
// table stays closed and register returns a call already resolved with the
// teardown error, so late senders fail instead of hanging.
func (t *callTable) register() *pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	call := &pendingCall{
		id: t.nextID,
		ch: make(chan callResult, 1),
	}
	t.nextID++

	if t.closed {
		call.ch <- callResult{err: ErrConnectionClosed}

		return call
	}

	t.calls[call.id] = call

	return call
}

// resolve delivers the result for id and removes the entry. It reports false
// for an unknown or already-resolved id; a late or duplicate response is a
// no-op, never a crash.
func (t *callTable) resolve(id uint64, res callResult) bool {
	t.mu.Lock()
	call, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}

	call.ch <- res

	return true
}

// remove drops an entry whose caller gave up waiting. The id is not reused.
func (t *callTable) remove(id uint64) {
	t.mu.Lock()
	delete(t.calls, id)
	t.mu.Unlock()
}

// cancelAll force-fails every unresolved entry and closes the table. It is
// idempotent; only the first call delivers failures.
func (t *callTable) cancelAll(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true

	for id, call := range t.calls {
		call.ch <- callResult{err: err}
		delete(t.calls, id)
	}
}
