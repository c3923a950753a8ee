package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfgraph/engine/types"
)

type collector struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	want   int
}

func newCollector(want int) *collector {
	return &collector{done: make(chan struct{}), want: want}
}

func (c *collector) Handle(ctx context.Context, event Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	n := len(c.events)
	c.mu.Unlock()
	if n == c.want {
		close(c.done)
	}
	return nil
}

func (c *collector) waitFor(t *testing.T, timeout time.Duration) []Event {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for handler to receive events")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestPublishDeliversToSubscribedHandler(t *testing.T) {
	bus := NewEventBus()
	c := newCollector(1)
	bus.Subscribe(TypeScriptResult, c)

	bus.Publish(context.Background(), Event{
		Type:   TypeScriptResult,
		Result: types.ShellOutput("s1", "hello"),
	})

	got := c.waitFor(t, time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].Result.ScriptID)
	assert.Equal(t, "hello", got[0].Result.Output)
}

func TestPublishFansOutToEveryHandler(t *testing.T) {
	bus := NewEventBus()
	a := newCollector(1)
	b := newCollector(1)
	bus.Subscribe(TypeScriptResult, a)
	bus.Subscribe(TypeScriptResult, b)

	bus.Publish(context.Background(), Event{Type: TypeScriptResult, Result: types.StepBoundary("s1")})

	a.waitFor(t, time.Second)
	b.waitFor(t, time.Second)
}

func TestPublishIgnoresUnsubscribedTypes(t *testing.T) {
	bus := NewEventBus()
	c := newCollector(1)
	bus.Subscribe(TypeExecutionDone, c)

	bus.Publish(context.Background(), Event{Type: TypeScriptResult, Result: types.StepBoundary("s1")})

	select {
	case <-c.done:
		t.Fatal("handler for a different event type should not have been called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishCarriesExecutionFailedError(t *testing.T) {
	bus := NewEventBus()
	c := newCollector(1)
	bus.Subscribe(TypeExecutionFailed, c)

	bus.Publish(context.Background(), Event{Type: TypeExecutionFailed, Err: types.ErrCommandFailed})

	got := c.waitFor(t, time.Second)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, types.ErrCommandFailed)
}

func TestHandlerFuncAdapter(t *testing.T) {
	bus := NewEventBus()
	seen := make(chan Event, 1)
	bus.Subscribe(TypeExecutionDone, EventHandlerFunc(func(ctx context.Context, event Event) error {
		seen <- event
		return nil
	}))

	bus.Publish(context.Background(), Event{Type: TypeExecutionDone, WorkflowID: "wf-1"})

	select {
	case event := <-seen:
		assert.Equal(t, "wf-1", event.WorkflowID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler func to receive event")
	}
}
