// Package events provides the Result Event Bus: a secondary,
// subscriber-based fan-out of scheduler result events for observers
// (logging, metrics) that want to watch execution without consuming the
// primary (snapshot, event) channel execute() returns (SPEC_FULL §2).
package events

import (
	"context"
	"sync"

	"github.com/wfgraph/engine/types"
)

// EventType names one of the notifications the bus carries.
type EventType string

const (
	// TypeScriptResult fires once per result event the scheduler
	// delivers on the primary stream, carrying the same event.
	TypeScriptResult EventType = "script_result"
	// TypeExecutionDone fires once, after the last node in a run
	// finishes without error.
	TypeExecutionDone EventType = "execution_done"
	// TypeExecutionFailed fires once, when a run terminates on a
	// script executor's error.
	TypeExecutionFailed EventType = "execution_failed"
)

// Event is a notification published to the bus. Result is populated for
// TypeScriptResult; Err is populated for TypeExecutionFailed.
type Event struct {
	Type       EventType
	WorkflowID string
	Result     types.ResultEvent
	Err        error
}

// EventHandler receives events a caller subscribed to.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// EventHandlerFunc is a function adapter for EventHandler.
type EventHandlerFunc func(ctx context.Context, event Event) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// EventBus fans a published event out to every handler subscribed to
// its type. Safe for concurrent use.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewEventBus builds an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]EventHandler)}
}

// Subscribe registers handler for eventType.
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// Publish dispatches event to every handler subscribed to its type,
// each in its own goroutine so a slow or misbehaving observer never
// blocks the scheduler that published it. Handler errors are the
// handler's own concern to log; Publish does not report them.
func (eb *EventBus) Publish(ctx context.Context, event Event) {
	eb.mu.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[event.Type]...)
	eb.mu.RUnlock()

	for _, h := range handlers {
		go func(h EventHandler) {
			_ = h.Handle(ctx, event)
		}(h)
	}
}
