// Package engine provides the top-level facade of SPEC_FULL §6: one
// operation to run a workflow to completion as a lazy (snapshot, event)
// sequence, plus the form-rendezvous and lookup operations that flank
// it. Grounded on workflow/engine.go's WorkflowEngine — constructor
// validation, RegisterAction-style registration, sync.RWMutex-guarded
// state, SubscribeEvent delegation to the event bus — generalized from
// registering named task actions to registering script executors by
// kind and running the graph/job model instead of the node/transition
// one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/songzhibin97/gkit/generator"

	"github.com/wfgraph/engine/cache"
	"github.com/wfgraph/engine/dag"
	"github.com/wfgraph/engine/events"
	"github.com/wfgraph/engine/executor"
	"github.com/wfgraph/engine/rendezvous"
	"github.com/wfgraph/engine/repository"
	"github.com/wfgraph/engine/rules"
	"github.com/wfgraph/engine/scheduler"
	"github.com/wfgraph/engine/types"
)

// FormCallback is re-exported for callers configuring Options without
// importing the scheduler package directly.
type FormCallback = scheduler.FormCallback

// Output is one element of Execute's outer lazy sequence.
type Output = scheduler.Output

// Options configures a new Engine. Registry, WorkDir, and Environment
// are shared read-only resources per spec §5; FormCallback switches the
// engine into callback mode (spec §4.5) — leave nil for pull mode.
type Options struct {
	Registry     *executor.Registry
	Repository   repository.Source
	Cache        cache.Cache
	WorkDir      string
	Environment  map[string]string
	FormData     map[string]interface{}
	FormCallback FormCallback
	Events       *events.EventBus
	Validator    rules.Validator
	IDGenerator  generator.Generator
}

// Engine runs declarative workflow documents to completion. Each
// Execute call builds a fresh graph and status from scratch — the core
// carries no state across runs (spec §9's persistence non-goal).
type Engine struct {
	mu           sync.RWMutex
	opts         Options
	rendezvous   *rendezvous.Table
	graph        *dag.Graph
	formData     map[string]map[string]interface{}
	running      bool
}

// New builds an Engine, filling in defaults for the resources every
// Execute call will need. A nil Registry defaults to the three built-in executors
// (shell, template, javascript); a nil Validator defaults to
// rules.NewExprValidator(); a nil IDGenerator defaults to a Snowflake
// generator seeded at construction time, mirroring
// examples/main.go's generator.NewSnowflake(time.Now(), 1) call.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		opts.Registry = executor.NewRegistry(
			&executor.ShellExecutor{},
			&executor.TemplateExecutor{},
			&executor.JSExecutor{},
		)
	}
	if opts.Validator == nil {
		opts.Validator = rules.NewExprValidator()
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = generator.NewSnowflake(time.Now(), 1)
	}

	return &Engine{
		opts:       opts,
		rendezvous: rendezvous.NewTable(),
		formData:   make(map[string]map[string]interface{}),
	}, nil
}

// RegisterExecutor adds or replaces the executor for a script kind,
// effective for any Execute call started afterward.
func (e *Engine) RegisterExecutor(ex executor.Executor) {
	e.opts.Registry.Register(ex)
}

// SubscribeEvent forwards to the configured ambient event bus, if any.
func (e *Engine) SubscribeEvent(eventType events.EventType, handler events.EventHandler) {
	if e.opts.Events != nil {
		e.opts.Events.Subscribe(eventType, handler)
	}
}

var errAlreadyRunning = errors.New("engine: a workflow is already executing")

// Execute builds wf's graph and runs it to completion, returning the
// output sequence spec §6's execute() describes. Build errors (§4.1,
// §7) are returned directly and no output channel is produced — the
// propagation policy of spec §7 that DAG-build errors abort execute()
// before any event is emitted.
func (e *Engine) Execute(ctx context.Context, wf *types.Workflow) (<-chan Output, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, errAlreadyRunning
	}

	idGen := func() string {
		id, err := e.opts.IDGenerator.NextID()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("job-%d", id)
	}

	graph, err := dag.Build(wf, dag.BuildOptions{
		ValidateCondition: e.opts.Validator.Validate,
		NewID:             idGen,
	})
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}

	e.graph = graph
	e.formData = make(map[string]map[string]interface{})
	e.running = true
	e.mu.Unlock()

	sched := scheduler.New(graph, scheduler.Options{
		Registry:     e.opts.Registry,
		Rendezvous:   e.rendezvous,
		Repository:   e.opts.Repository,
		Cache:        e.opts.Cache,
		WorkDir:      e.opts.WorkDir,
		Environment:  mergeEnv(e.opts.Environment, wf.Environment),
		FormData:     e.opts.FormData,
		FormCallback: e.wrapCallback(),
		Events:       e.opts.Events,
	})

	raw := sched.Run(ctx)
	out := make(chan Output)
	go func() {
		defer close(out)
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()
		for o := range raw {
			out <- o
		}
	}()

	return out, nil
}

// ProvideFormData fulfills a pending or future formRequest in pull mode
// (spec §4.5). A second call for the same id is ignored, per the
// rendezvous table's own invariant.
func (e *Engine) ProvideFormData(id string, data map[string]interface{}) {
	e.rendezvous.Provide(id, data)
	e.recordFormData(id, data)
}

// WaitForFormData blocks until id is fulfilled, or ctx is canceled.
func (e *Engine) WaitForFormData(ctx context.Context, id string) (map[string]interface{}, error) {
	dataCh := make(chan map[string]interface{}, 1)
	go func() { dataCh <- e.rendezvous.Wait(id) }()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-dataCh:
		e.recordFormData(id, data)
		return data, nil
	}
}

func (e *Engine) wrapCallback() FormCallback {
	if e.opts.FormCallback == nil {
		return nil
	}
	return func(ctx context.Context, event types.ResultEvent) (map[string]interface{}, error) {
		data, err := e.opts.FormCallback(ctx, event)
		if err != nil {
			return nil, err
		}
		e.recordFormData(event.RendezvousID, data)
		return data, nil
	}
}

func (e *Engine) recordFormData(id string, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.formData[id]; !exists {
		e.formData[id] = data
	}
}

// mergeEnv layers a workflow document's own `environment` map over the
// ambient one an Options caller configured; each job's own environment
// layers over this result in turn, inside the scheduler.
func mergeEnv(ambient, workflow map[string]string) map[string]string {
	out := make(map[string]string, len(ambient)+len(workflow))
	for k, v := range ambient {
		out[k] = v
	}
	for k, v := range workflow {
		out[k] = v
	}
	return out
}
