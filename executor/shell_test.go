package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfgraph/engine/types"
)

func drain(t *testing.T, ch <-chan Result) ([]types.ResultEvent, error) {
	t.Helper()
	var events []types.ResultEvent
	for r := range ch {
		if r.Err != nil {
			return events, r.Err
		}
		events = append(events, r.Event)
	}
	return events, nil
}

func TestShellExecutorSuccess(t *testing.T) {
	e := &ShellExecutor{}
	script := types.Script{ID: "s1", Kind: types.ScriptShell, Command: "echo hello"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := drain(t, e.Run(ctx, script, RunOptions{WorkDir: t.TempDir()}))
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var combined strings.Builder
	for _, ev := range events {
		assert.Equal(t, types.ResultShellOutput, ev.Kind)
		assert.Equal(t, "s1", ev.ScriptID)
		combined.WriteString(ev.Output)
	}
	assert.Contains(t, combined.String(), "hello")
}

func TestShellExecutorNonZeroExit(t *testing.T) {
	e := &ShellExecutor{}
	script := types.Script{ID: "s2", Kind: types.ScriptShell, Command: "exit 3"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := drain(t, e.Run(ctx, script, RunOptions{WorkDir: t.TempDir()}))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCommandFailed)
}

func TestShellExecutorEnvironmentOverlay(t *testing.T) {
	e := &ShellExecutor{}
	script := types.Script{ID: "s3", Kind: types.ScriptShell, Command: "echo $GREETING"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := drain(t, e.Run(ctx, script, RunOptions{
		WorkDir:     t.TempDir(),
		Environment: map[string]string{"GREETING": "howdy"},
	}))
	require.NoError(t, err)

	var combined strings.Builder
	for _, ev := range events {
		combined.WriteString(ev.Output)
	}
	assert.Contains(t, combined.String(), "howdy")
}

func TestShellExecutorCancellation(t *testing.T) {
	e := &ShellExecutor{}
	script := types.Script{ID: "s4", Kind: types.ScriptShell, Command: "sleep 30"}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := drain(t, e.Run(ctx, script, RunOptions{WorkDir: t.TempDir()}))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestShellExecutorKind(t *testing.T) {
	e := &ShellExecutor{}
	assert.Equal(t, types.ScriptShell, e.Kind())
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root"}
	merged := mergeEnv(base, map[string]string{"HOME": "/override", "EXTRA": "1"})

	byKey := make(map[string]string)
	for _, kv := range merged {
		idx := indexByte(kv, '=')
		byKey[kv[:idx]] = kv[idx+1:]
	}
	assert.Equal(t, "/override", byKey["HOME"])
	assert.Equal(t, "/usr/bin", byKey["PATH"])
	assert.Equal(t, "1", byKey["EXTRA"])
}
