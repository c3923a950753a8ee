package dag

import (
	"errors"
	"testing"

	"github.com/wfgraph/engine/types"
)

func job(id string, needs ...string) *types.Job {
	return &types.Job{ID: id, Needs: needs}
}

func TestBuildLinear(t *testing.T) {
	wf := &types.Workflow{Jobs: []*types.Job{job("a"), job("b", "a")}}
	g, err := Build(wf, BuildOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := g.NodeByID("a")
	b := g.NodeByID("b")
	if _, ok := a.Children["b"]; !ok {
		t.Fatalf("expected edge a->b")
	}
	if _, ok := g.Root.Children["a"]; !ok {
		t.Fatalf("expected edge root->a")
	}
	if _, ok := b.Children[TailID]; !ok {
		t.Fatalf("expected edge b->tail")
	}
}

func TestBuildParallelJoin(t *testing.T) {
	wf := &types.Workflow{Jobs: []*types.Job{job("job1"), job("job2"), job("job3", "job1", "job2")}}
	g, err := Build(wf, BuildOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j3 := g.NodeByID("job3")
	if len(j3.Parents) != 2 {
		t.Fatalf("expected job3 to have 2 parents, got %d", len(j3.Parents))
	}
}

func TestBuildEmptyWorkflow(t *testing.T) {
	wf := &types.Workflow{}
	g, err := Build(wf, BuildOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := g.Root.Children[TailID]; !ok {
		t.Fatalf("expected root->tail edge for empty workflow")
	}
}

func TestBuildDuplicateNode(t *testing.T) {
	wf := &types.Workflow{Jobs: []*types.Job{job("a"), job("a")}}
	_, err := Build(wf, BuildOptions{})
	if !errors.Is(err, types.ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestBuildMissingDependency(t *testing.T) {
	wf := &types.Workflow{Jobs: []*types.Job{job("a", "ghost")}}
	_, err := Build(wf, BuildOptions{})
	if !errors.Is(err, types.ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
}

func TestBuildCycleRejected(t *testing.T) {
	wf := &types.Workflow{Jobs: []*types.Job{job("a", "c"), job("b", "a"), job("c", "b")}}
	_, err := Build(wf, BuildOptions{})
	if !errors.Is(err, types.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	path, ok := types.CyclePath(err)
	if !ok {
		t.Fatalf("expected a cycle path to be extractable")
	}
	seen := map[string]bool{}
	for _, id := range path {
		seen[id] = true
	}
	for _, id := range []string{"a", "b", "c"} {
		if !seen[id] {
			t.Fatalf("expected cycle path to contain %s, got %v", id, path)
		}
	}
}

func TestBuildPromotesSetupTeardown(t *testing.T) {
	wf := &types.Workflow{
		Jobs: []*types.Job{job("a")},
		Lifecycle: []*types.LifecycleEvent{
			types.NewLifecycleEvent("l1", types.OnSetup, types.Script{ID: "s1", Kind: types.ScriptShell, Command: "echo 1"}),
			types.NewLifecycleEvent("l2", types.OnTeardown, types.Script{ID: "s2", Kind: types.ScriptShell, Command: "echo 2"}),
		},
	}
	g, err := Build(wf, BuildOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Root.Job.Steps) != 1 || g.Root.Job.Steps[0].Script.Command != "echo 1" {
		t.Fatalf("expected root to carry the promoted setup step")
	}
	if len(g.Tail.Job.Steps) != 1 || g.Tail.Job.Steps[0].Script.Command != "echo 2" {
		t.Fatalf("expected tail to carry the promoted teardown step")
	}
}

func TestBuildValidatesConditions(t *testing.T) {
	wf := &types.Workflow{
		Jobs: []*types.Job{
			{
				ID: "a",
				Steps: []*types.Step{
					{ID: "s1", If: "not valid !!", Script: types.Script{ID: "sc1", Kind: types.ScriptShell, Command: "echo 1"}},
				},
			},
		},
	}
	_, err := Build(wf, BuildOptions{ValidateCondition: func(expr string) error {
		return errors.New("boom")
	}})
	if !errors.Is(err, types.ErrParsingFailed) {
		t.Fatalf("expected ErrParsingFailed, got %v", err)
	}
}
