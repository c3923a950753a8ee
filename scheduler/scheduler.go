// Package scheduler implements the Scheduler of spec §4.4: it walks a
// dag.Graph to completion, running every ready node concurrently while
// serializing all result events through a single output sequence, per
// the worker-pool shape grounded on
// specialistvlad-burstgridgo/internal/dag/executor.go (per-node
// pending-parent counters, cancel-on-first-error)
// combined with the teacher's context-checked-at-every-boundary style.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"

	"github.com/wfgraph/engine/aggregator"
	"github.com/wfgraph/engine/cache"
	"github.com/wfgraph/engine/dag"
	"github.com/wfgraph/engine/events"
	"github.com/wfgraph/engine/executor"
	"github.com/wfgraph/engine/expand"
	"github.com/wfgraph/engine/rendezvous"
	"github.com/wfgraph/engine/repository"
	"github.com/wfgraph/engine/snapshot"
	"github.com/wfgraph/engine/types"
)

// FormCallback is the callback-mode surface of spec §4.5: given the
// formRequest event the scheduler is about to emit, it returns the
// form-data map to use, possibly after an asynchronous wait of its own.
type FormCallback func(ctx context.Context, event types.ResultEvent) (map[string]interface{}, error)

// Options configures a Scheduler run.
type Options struct {
	Registry     *executor.Registry
	Rendezvous   *rendezvous.Table
	Repository   repository.Source
	Cache        cache.Cache
	WorkDir      string
	Environment  map[string]string
	FormData     map[string]interface{}
	FormCallback FormCallback
	Events       *events.EventBus
}

// Output is one element of the scheduler's outer lazy sequence: a
// workflow snapshot paired with the event that produced it, or —
// terminally — an error (spec §4.4, §6).
type Output struct {
	Snapshot *snapshot.Snapshot
	Event    types.ResultEvent
	Err      error
}

// Scheduler runs the jobs of one dag.Graph to completion.
type Scheduler struct {
	graph *dag.Graph
	opts  Options
}

// New builds a Scheduler over graph.
func New(graph *dag.Graph, opts Options) *Scheduler {
	return &Scheduler{graph: graph, opts: opts}
}

// msg is the internal unit node workers send to the coordinator: either
// a plain result event, or a terminal done signal (err nil on success).
type msg struct {
	node     *dag.Node
	event    types.ResultEvent
	done     bool
	starting bool
	err      error
	scriptID string
}

// Run starts the scheduler and returns its output channel, closed once
// every reachable node has finished or the run has failed and all
// in-flight node tasks have observed cancellation.
func (s *Scheduler) Run(ctx context.Context) <-chan Output {
	out := make(chan Output)
	if s.graph == nil || s.graph.Root == nil || s.graph.Root.ID != dag.RootID {
		go func() {
			defer close(out)
			out <- Output{Err: types.ErrNotRootNode}
		}()
		return out
	}
	go s.run(ctx, out)
	return out
}

func (s *Scheduler) run(ctx context.Context, out chan<- Output) {
	defer close(out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	nodes := s.graph.Nodes()
	pending := make(map[string]int, len(nodes))
	for _, n := range nodes {
		pending[n.ID] = len(n.Parents)
	}

	msgCh := make(chan msg)
	// A node task's done message reaches the coordinator before its exit
	// signal, so its children are launched before running can drop to zero.
	exited := make(chan struct{})
	running := 0

	launch := func(n *dag.Node) {
		running++
		go func() {
			s.runNode(ctx, n, msgCh)
			exited <- struct{}{}
		}()
	}

	for _, n := range nodes {
		if pending[n.ID] == 0 {
			launch(n)
		}
	}

	failed := false
	for running > 0 {
		var m msg
		select {
		case <-exited:
			running--
			continue
		case m = <-msgCh:
		}
		if m.starting {
			s.deliverStart(ctx, out, m.node.Job, m.scriptID)
			continue
		}

		if !m.done {
			s.deliver(ctx, out, m.node.Job, m.event)
			continue
		}

		if m.err != nil {
			if !failed {
				failed = true
				if m.scriptID != "" {
					aggregator.Fail(m.node.Job, m.scriptID, time.Now())
				}
				out <- Output{Snapshot: snapshot.Project(s.graph), Err: m.err}
				if s.opts.Events != nil {
					s.opts.Events.Publish(ctx, events.Event{Type: events.TypeExecutionFailed, Err: m.err})
				}
				cancel()
			}
			continue
		}

		if failed {
			continue
		}
		for _, child := range m.node.Children {
			pending[child.ID]--
			if pending[child.ID] == 0 {
				launch(child)
			}
		}
	}

	if !failed && s.opts.Events != nil {
		s.opts.Events.Publish(ctx, events.Event{Type: events.TypeExecutionDone})
	}
}

// deliver applies event to job's owning slot, projects a fresh
// snapshot, and forwards the (snapshot, event) pair to the caller and,
// if configured, the ambient event bus (spec §4.6, SPEC_FULL §2).
func (s *Scheduler) deliver(ctx context.Context, out chan<- Output, job *types.Job, event types.ResultEvent) {
	aggregator.Apply(job, event, time.Now())
	snap := snapshot.Project(s.graph)

	select {
	case out <- Output{Snapshot: snap, Event: event}:
	case <-ctx.Done():
		return
	}

	if s.opts.Events != nil {
		s.opts.Events.Publish(ctx, events.Event{Type: events.TypeScriptResult, Result: event})
	}
}

// deliverStart marks scriptID's owning slot on job as running before its
// executor is invoked and forwards the resulting snapshot, so a script
// that emits nothing before its terminal stepBoundary is still observed
// running in the stream (spec §4.4).
func (s *Scheduler) deliverStart(ctx context.Context, out chan<- Output, job *types.Job, scriptID string) {
	aggregator.Start(job, scriptID, time.Now())
	snap := snapshot.Project(s.graph)

	select {
	case out <- Output{Snapshot: snap}:
	case <-ctx.Done():
	}
}

// runNode executes one node's expanded script sequence in order and
// reports every event plus a final done signal to msgCh (spec §4.4's
// "Per-node execution").
func (s *Scheduler) runNode(ctx context.Context, node *dag.Node, msgCh chan<- msg) {
	job := node.Job
	formData := cloneFormData(s.opts.FormData)

	if job.Form != nil {
		id := fmt.Sprintf("job_%s_%s", job.ID, uuid.NewString())
		data, err := s.requestForm(ctx, node, msgCh, types.FormRequest(job.ID, id, job.Form), job.Form)
		if err != nil {
			msgCh <- msg{node: node, done: true, err: err}
			return
		}
		mergeInto(formData, data)
	}

	env := mergeStrings(s.opts.Environment, job.Environment)

	for _, unit := range expand.Job(job) {
		stepFormData := formData

		if unit.Owner.Kind == expand.OwnerStepMain {
			if step := job.StepByID(unit.Owner.StepID); step != nil && step.Form != nil {
				id := fmt.Sprintf("step_%s_%s", step.ID, uuid.NewString())
				data, err := s.requestForm(ctx, node, msgCh, types.FormRequest(step.Script.ID, id, step.Form), step.Form)
				if err != nil {
					msgCh <- msg{node: node, done: true, err: err, scriptID: unit.Script.ID}
					return
				}
				stepFormData = cloneFormData(formData)
				mergeInto(stepFormData, data)
			}
		}

		exec, err := s.opts.Registry.Lookup(unit.Script.Kind)
		if err != nil {
			msgCh <- msg{node: node, done: true, err: err, scriptID: unit.Script.ID}
			return
		}

		runOpts := executor.RunOptions{
			WorkDir:     s.opts.WorkDir,
			Environment: env,
			Repository:  s.opts.Repository,
			Cache:       s.opts.Cache,
			FormData:    stepFormData,
		}

		select {
		case msgCh <- msg{node: node, starting: true, scriptID: unit.Script.ID}:
		case <-ctx.Done():
			return
		}

		ch := exec.Run(ctx, unit.Script, runOpts)
		var stepErr error
		for res := range ch {
			if res.Err != nil {
				stepErr = res.Err
				continue
			}
			select {
			case msgCh <- msg{node: node, event: res.Event}:
			case <-ctx.Done():
				return
			}
		}
		if stepErr != nil {
			msgCh <- msg{node: node, done: true, err: stepErr, scriptID: unit.Script.ID}
			return
		}

		select {
		case msgCh <- msg{node: node, event: types.StepBoundary(unit.Script.ID)}:
		case <-ctx.Done():
			return
		}
	}

	msgCh <- msg{node: node, done: true}
}

// requestForm publishes a formRequest event and blocks until the form
// data is available, via the configured callback or the pull-mode
// rendezvous table (spec §4.5), then validates the result against
// schema when one was given (SPEC_FULL §6).
func (s *Scheduler) requestForm(ctx context.Context, node *dag.Node, msgCh chan<- msg, event types.ResultEvent, schema *jsonschema.Schema) (map[string]interface{}, error) {
	select {
	case msgCh <- msg{node: node, event: event}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	data, err := s.awaitForm(ctx, event)
	if err != nil {
		return nil, err
	}
	if err := validateFormData(schema, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Scheduler) awaitForm(ctx context.Context, event types.ResultEvent) (map[string]interface{}, error) {
	if s.opts.FormCallback != nil {
		return s.opts.FormCallback(ctx, event)
	}

	dataCh := make(chan map[string]interface{}, 1)
	go func() {
		dataCh <- s.opts.Rendezvous.Wait(event.RendezvousID)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-dataCh:
		return data, nil
	}
}

func validateFormData(schema *jsonschema.Schema, data map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return types.ExecutionFailed(fmt.Sprintf("invalid form schema: %v", err))
	}
	if err := resolved.Validate(data); err != nil {
		return types.ExecutionFailed(fmt.Sprintf("form data failed validation: %v", err))
	}
	return nil
}

func cloneFormData(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func mergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
