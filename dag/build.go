package dag

import (
	"fmt"

	"github.com/wfgraph/engine/types"
)

// BuildOptions configures Build. ValidateCondition, when non-nil, is
// called once per step's stored `if` expression to catch syntax errors
// at build time — the expression is never evaluated afterward (spec §9,
// the Condition Validator of SPEC_FULL §2). NewID, when a job has no
// id, generates one; lifecycle events are used with the ids they carry.
type BuildOptions struct {
	ValidateCondition func(expr string) error
	NewID             func() string
}

// Build turns a job list into the (root, tail) graph of spec §4.1:
// synthetic root/tail nodes, one node per job, `needs` edges, dangling
// nodes wired to tail, workflow-level setup/teardown promoted into
// root/tail's steps, and a cycle check over everything except root/tail.
func Build(wf *types.Workflow, opts BuildOptions) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*Node)}

	root := newNode(RootID, &types.Job{ID: RootID})
	tail := newNode(TailID, &types.Job{ID: TailID})
	g.nodes[RootID] = root
	g.nodes[TailID] = tail
	g.Root = root
	g.Tail = tail

	for _, job := range wf.Jobs {
		id := job.ID
		if id == "" {
			if opts.NewID == nil {
				return nil, fmt.Errorf("job has no id and no id generator was configured")
			}
			id = opts.NewID()
			job.ID = id
		}
		if _, exists := g.nodes[id]; exists {
			return nil, types.DuplicateNode(id)
		}
		g.nodes[id] = newNode(id, job)
		g.jobIDs = append(g.jobIDs, id)
	}

	for _, job := range wf.Jobs {
		node := g.nodes[job.ID]
		for _, dep := range job.Needs {
			depNode, ok := g.nodes[dep]
			if !ok || depNode == root || depNode == tail {
				return nil, types.MissingDependency(job.ID, dep)
			}
			addEdge(depNode, node)
		}
		if len(job.Needs) == 0 {
			addEdge(root, node)
		}
	}

	for _, job := range wf.Jobs {
		node := g.nodes[job.ID]
		if len(node.Children) == 0 {
			addEdge(node, tail)
		}
	}

	if len(root.Children) == 0 {
		addEdge(root, tail)
	}

	for _, le := range wf.LifecycleOn(types.OnSetup) {
		root.Job.Steps = append(root.Job.Steps, types.NewStep(le.ID, le.Script))
	}
	for _, le := range wf.LifecycleOn(types.OnTeardown) {
		tail.Job.Steps = append(tail.Job.Steps, types.NewStep(le.ID, le.Script))
	}

	if opts.ValidateCondition != nil {
		for _, job := range wf.Jobs {
			for _, step := range job.Steps {
				if step.If == "" {
					continue
				}
				if err := opts.ValidateCondition(step.If); err != nil {
					return nil, fmt.Errorf("%w: step %s condition %q: %v", types.ErrParsingFailed, step.ID, step.If, err)
				}
			}
		}
	}

	if err := checkCycles(g); err != nil {
		return nil, err
	}

	return g, nil
}
