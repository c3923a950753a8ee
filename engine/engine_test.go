package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfgraph/engine/executor"
	"github.com/wfgraph/engine/types"
)

func shellScript(id, command string) types.Script {
	return types.Script{ID: id, Kind: types.ScriptShell, Command: command}
}

func drainOutputs(t *testing.T, ch <-chan Output, timeout time.Duration) []Output {
	t.Helper()
	var outs []Output
	deadline := time.After(timeout)
	for {
		select {
		case o, ok := <-ch:
			if !ok {
				return outs
			}
			outs = append(outs, o)
		case <-deadline:
			t.Fatal("timed out waiting for engine output")
		}
	}
}

func TestExecuteRunsWorkflowToCompletion(t *testing.T) {
	e, err := New(Options{Registry: executor.NewRegistry(&executor.ShellExecutor{})})
	require.NoError(t, err)

	wf := &types.Workflow{
		Jobs: []*types.Job{
			{ID: "job1", Steps: []*types.Step{types.NewStep("s1", shellScript("s1", "echo hi"))}},
		},
	}

	ch, err := e.Execute(context.Background(), wf)
	require.NoError(t, err)
	outs := drainOutputs(t, ch, 5*time.Second)

	var sawOutput bool
	for _, o := range outs {
		require.Nil(t, o.Err)
		if o.Event.Kind == types.ResultShellOutput && strings.Contains(o.Event.Output, "hi") {
			sawOutput = true
		}
	}
	assert.True(t, sawOutput)
}

func TestExecuteRejectsConcurrentRuns(t *testing.T) {
	e, err := New(Options{Registry: executor.NewRegistry(&executor.ShellExecutor{})})
	require.NoError(t, err)

	wf := &types.Workflow{
		Jobs: []*types.Job{
			{ID: "job1", Steps: []*types.Step{types.NewStep("s1", shellScript("s1", "sleep 1"))}},
		},
	}

	ch, err := e.Execute(context.Background(), wf)
	require.NoError(t, err)

	_, err2 := e.Execute(context.Background(), wf)
	assert.ErrorIs(t, err2, errAlreadyRunning)

	drainOutputs(t, ch, 5*time.Second)
}

func TestExecuteReturnsBuildErrorWithoutOutputChannel(t *testing.T) {
	e, err := New(Options{})
	require.NoError(t, err)

	wf := &types.Workflow{
		Jobs: []*types.Job{
			{ID: "a", Needs: []string{"b"}},
			{ID: "b", Needs: []string{"a"}},
		},
	}

	ch, err := e.Execute(context.Background(), wf)
	require.Error(t, err)
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, types.ErrCyclicDependency)
}

func TestProvideFormDataFulfillsJobRendezvous(t *testing.T) {
	e, err := New(Options{Registry: executor.NewRegistry(&executor.ShellExecutor{})})
	require.NoError(t, err)

	schema := &jsonschema.Schema{Type: "object", Required: []string{"name"}}
	wf := &types.Workflow{
		Jobs: []*types.Job{
			{
				ID:    "greet",
				Form:  schema,
				Steps: []*types.Step{types.NewStep("s1", shellScript("s1", "echo Hello"))},
			},
		},
	}

	ch, err := e.Execute(context.Background(), wf)
	require.NoError(t, err)

	var rendezvousID string
	var outs []Output
	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case o, ok := <-ch:
			if !ok {
				break loop
			}
			outs = append(outs, o)
			if o.Event.Kind == types.ResultFormRequest && rendezvousID == "" {
				rendezvousID = o.Event.RendezvousID
				e.ProvideFormData(rendezvousID, map[string]interface{}{"name": "X"})
			}
		case <-deadline:
			t.Fatal("timed out waiting for engine output")
		}
	}

	require.NotEmpty(t, rendezvousID)
	for _, o := range outs {
		require.Nil(t, o.Err)
	}

	data, err := e.Lookup("jobs.greet.formData")
	require.NoError(t, err)
	m, ok := data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "X", m["name"])
}

func TestRegisterExecutorAddsNewKind(t *testing.T) {
	e, err := New(Options{Registry: executor.NewRegistry()})
	require.NoError(t, err)

	e.RegisterExecutor(&executor.ShellExecutor{})

	wf := &types.Workflow{
		Jobs: []*types.Job{
			{ID: "job1", Steps: []*types.Step{types.NewStep("s1", shellScript("s1", "echo registered"))}},
		},
	}

	ch, err := e.Execute(context.Background(), wf)
	require.NoError(t, err)
	outs := drainOutputs(t, ch, 5*time.Second)

	var sawOutput bool
	for _, o := range outs {
		require.Nil(t, o.Err)
		if o.Event.Kind == types.ResultShellOutput && strings.Contains(o.Event.Output, "registered") {
			sawOutput = true
		}
	}
	assert.True(t, sawOutput)
}
