package acp

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func TestCallTableAssignsMonotonicIDs(t *testing.T) {
	table := newCallTable()

	for want := uint64(0); want < 5; want++ {
		call := table.register()
		if call.id != want {
			t.Fatalf("id = %d, want %d", call.id, want)
		}
	}
}

func TestCallTableResolvesExactlyOnce(t *testing.T) {
	table := newCallTable()
	call := table.register()

	if !table.resolve(call.id, callResult{result: json.RawMessage(`"first"`)}) {
		t.Fatal("first resolve reported no-op")
	}
	if table.resolve(call.id, callResult{result: json.RawMessage(`"second"`)}) {
		t.Fatal("duplicate resolve was not a no-op")
	}

	res := <-call.ch
	if string(res.result) != `"first"` {
		t.Errorf("result = %s, want %q", res.result, "first")
	}

	select {
	case res := <-call.ch:
		t.Fatalf("unexpected second result: %+v", res)
	default:
	}
}

func TestCallTableUnknownIDIsNoOp(t *testing.T) {
	table := newCallTable()

	if table.resolve(999, callResult{}) {
		t.Fatal("resolving an unknown id reported success")
	}
}

func TestCallTableCancelAllFailsEveryCall(t *testing.T) {
	table := newCallTable()

	calls := make([]*pendingCall, 3)
	for i := range calls {
		calls[i] = table.register()
	}

	table.cancelAll(ErrConnectionClosed)

	for i, call := range calls {
		res := <-call.ch
		if !errors.Is(res.err, ErrConnectionClosed) {
			t.Errorf("call %d err = %v, want ErrConnectionClosed", i, res.err)
		}
	}

	// Second cancel must not deliver anything twice.
	table.cancelAll(ErrConnectionClosed)
	for i, call := range calls {
		select {
		case res := <-call.ch:
			t.Errorf("call %d received a second result: %+v", i, res)
		default:
		}
	}
}

func TestCallTableRegisterAfterCloseFailsFast(t *testing.T) {
	table := newCallTable()
	table.cancelAll(ErrConnectionClosed)

	call := table.register()
	res := <-call.ch
	if !errors.Is(res.err, ErrConnectionClosed) {
		t.Errorf("err = %v, want ErrConnectionClosed", res.err)
	}
}

func TestCallTableConcurrentRegisterIsolation(t *testing.T) {
	table := newCallTable()

	const workers = 32
	ids := make(chan uint64, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- table.register().id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, workers)
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Errorf("got %d distinct ids, want %d", len(seen), workers)
	}
}
