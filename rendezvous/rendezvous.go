// Package rendezvous implements the per-id, single-shot,
// one-producer/one-consumer form-data handoff of spec §4.5: a job or
// step publishes a formRequest event and suspends on Wait(id) until a
// caller supplies data via Provide(id, data), either directly (pull
// mode) or through a registered callback the engine invokes on the
// caller's behalf (callback mode).
package rendezvous

import "sync"

// Table is a guarded map of one-shot channels, one per rendezvous id.
// A Provide that arrives before the matching Wait is buffered and
// handed to the first Wait call for that id; a second Provide for an
// already-fulfilled id is ignored (spec §4.5's invariants).
type Table struct {
	mu      sync.Mutex
	pending map[string]chan map[string]interface{}
	values  map[string]map[string]interface{}
}

// NewTable builds an empty rendezvous table.
func NewTable() *Table {
	return &Table{
		pending: make(map[string]chan map[string]interface{}),
		values:  make(map[string]map[string]interface{}),
	}
}

// channelFor returns the channel for id, creating it if this is the
// first party (producer or consumer) to touch that id. Must be called
// with mu held.
func (t *Table) channelFor(id string) chan map[string]interface{} {
	ch, ok := t.pending[id]
	if !ok {
		ch = make(chan map[string]interface{}, 1)
		t.pending[id] = ch
	}
	return ch
}

// Provide fulfills the rendezvous for id with data. If a value has
// already been delivered for id, the call is a no-op (spec §4.5: "a
// second provideFormData with the same id is ignored").
func (t *Table) Provide(id string, data map[string]interface{}) {
	t.mu.Lock()
	if _, already := t.values[id]; already {
		t.mu.Unlock()
		return
	}
	ch := t.channelFor(id)
	select {
	case ch <- data:
		t.values[id] = data
	default:
		// A value is already queued (Provide raced Provide); keep the first.
	}
	t.mu.Unlock()
}

// Wait blocks until id is fulfilled and returns its data, or returns
// immediately if it was fulfilled before Wait was called ("a late wait
// on an already-delivered id immediately returns the stored value",
// spec §9).
func (t *Table) Wait(id string) map[string]interface{} {
	t.mu.Lock()
	if v, ok := t.values[id]; ok {
		t.mu.Unlock()
		return v
	}
	ch := t.channelFor(id)
	t.mu.Unlock()

	data := <-ch
	// Make it available to any later, redundant Wait(id) callers too.
	t.mu.Lock()
	if _, ok := t.values[id]; !ok {
		t.values[id] = data
	}
	t.mu.Unlock()
	return data
}
