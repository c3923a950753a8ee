package types

import "testing"

func TestScriptClone(t *testing.T) {
	orig := Script{ID: "s1", Kind: ScriptTemplate, Files: []TemplateFile{{File: "a", Output: "b"}}}
	clone := orig.Clone("s2")

	if clone.ID != "s2" {
		t.Fatalf("expected cloned id s2, got %s", clone.ID)
	}
	if orig.ID != "s1" {
		t.Fatalf("clone must not mutate the original id")
	}
	clone.Files[0].File = "mutated"
	if orig.Files[0].File != "a" {
		t.Fatalf("clone must deep-copy Files, original was mutated")
	}
}

func TestLifecyclePhaseOrder(t *testing.T) {
	order := []LifecyclePhase{OnSetup, OnBeforeJob, OnBeforeStep, OnAfterStep, OnAfterJob, OnTeardown}
	for i := 1; i < len(order); i++ {
		if PhaseRank(order[i-1]) >= PhaseRank(order[i]) {
			t.Fatalf("expected %s to rank before %s", order[i-1], order[i])
		}
	}
	if PhaseRank("bogus") != -1 {
		t.Fatalf("expected unknown phase to rank -1")
	}
}

func TestJobLifecycleOn(t *testing.T) {
	j := &Job{
		Lifecycle: []*LifecycleEvent{
			NewLifecycleEvent("l1", OnBeforeJob, Script{ID: "s1", Kind: ScriptShell, Command: "echo 1"}),
			NewLifecycleEvent("l2", OnAfterJob, Script{ID: "s2", Kind: ScriptShell, Command: "echo 2"}),
		},
	}
	before := j.LifecycleOn(OnBeforeJob)
	if len(before) != 1 || before[0].ID != "l1" {
		t.Fatalf("expected exactly the beforeJob event, got %+v", before)
	}
}

func TestRunningStatusTerminal(t *testing.T) {
	if !Skipped().IsTerminal() {
		t.Fatalf("skipped should be terminal")
	}
	if NotStarted().IsTerminal() {
		t.Fatalf("notStarted should not be terminal")
	}
}
