// Package executor implements the Script Executor Interface of spec
// §4.3: a uniform contract every script kind (shell, template,
// javascript) satisfies, each yielding a lazy sequence of result events
// that the scheduler consumes exactly once.
package executor

import (
	"context"
	"sync"

	"github.com/wfgraph/engine/cache"
	"github.com/wfgraph/engine/repository"
	"github.com/wfgraph/engine/types"
)

// RunOptions carries the read-only resources spec §4.3's "Shared
// resources" note says all executors share: the working directory, an
// optional repository-source handle plus the sub-path it should
// resolve against, the merged environment, and the form-data map
// currently available to the running job/step.
type RunOptions struct {
	WorkDir     string
	Environment map[string]string
	Repository  repository.Source
	RepoPath    string
	FormData    map[string]interface{}
	Cache       cache.Cache
}

// Result is one element of an executor's lazy sequence: either a result
// event, or — as the final element before the channel closes — a
// terminating error. A Result with a non-nil Err carries no event.
type Result struct {
	Event types.ResultEvent
	Err   error
}

// Executor runs one script kind and streams its result events. Run
// must return promptly after ctx is canceled, interrupting whatever
// underlying operation is in flight (process kill, HTTP abort, JS
// interrupt), and must close its returned channel exactly once — after
// either a terminal error or successful completion.
type Executor interface {
	Kind() types.ScriptKind
	Run(ctx context.Context, script types.Script, opts RunOptions) <-chan Result
}

// Registry maps script kinds to their executor, the collaborator the
// scheduler consults per spec §4.3/§4.4. Safe for concurrent use: a
// caller may Register a replacement executor while a run is in flight,
// mirroring the teacher's mutex-guarded RegisterAction.
type Registry struct {
	mu     sync.RWMutex
	byKind map[types.ScriptKind]Executor
}

// NewRegistry builds a Registry from a set of executors, keyed by their
// own Kind().
func NewRegistry(executors ...Executor) *Registry {
	r := &Registry{byKind: make(map[types.ScriptKind]Executor, len(executors))}
	for _, e := range executors {
		r.byKind[e.Kind()] = e
	}
	return r
}

// Register adds or replaces the executor for its own Kind().
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[e.Kind()] = e
}

// Lookup returns the executor for kind, or UnsupportedScriptType.
func (r *Registry) Lookup(kind types.ScriptKind) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byKind[kind]
	if !ok {
		return nil, types.UnsupportedScriptType(string(kind))
	}
	return e, nil
}

// emit is a small helper for executors: sends a successful event,
// returning false if ctx was canceled first.
func emit(ctx context.Context, out chan<- Result, event types.ResultEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- Result{Event: event}:
		return true
	}
}

// fail sends the terminal error and returns; callers must return right
// after calling fail, since the channel is about to be closed by their
// deferred close(out). Once ctx is canceled it still hands the error to
// a consumer already waiting on out, but does not block for one.
func fail(ctx context.Context, out chan<- Result, err error) {
	select {
	case out <- Result{Err: err}:
	case <-ctx.Done():
		select {
		case out <- Result{Err: err}:
		default:
		}
	}
}
