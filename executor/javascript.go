package executor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja"
	"github.com/wfgraph/engine/types"
)

// JSExecutor runs a javascript script's source file inside an embedded
// goja VM, exposing the job/step environment and form-data map as
// globals and routing console.log calls into the shellOutput stream so
// callers see JS output the same way they see shell output (spec §4.3
// names the JS bridging layer an out-of-scope external collaborator;
// this is the concrete implementation the core's tests exercise it
// through).
type JSExecutor struct{}

// Kind implements Executor.
func (e *JSExecutor) Kind() types.ScriptKind { return types.ScriptJavaScript }

// Run implements Executor.
func (e *JSExecutor) Run(ctx context.Context, script types.Script, opts RunOptions) <-chan Result {
	out := make(chan Result)
	go e.run(ctx, script, opts, out)
	return out
}

func (e *JSExecutor) run(ctx context.Context, script types.Script, opts RunOptions, out chan<- Result) {
	defer close(out)

	source, err := e.loadSource(ctx, opts, script.File)
	if err != nil {
		fail(ctx, out, err)
		return
	}

	vm := goja.New()
	vm.Set("env", opts.Environment)
	vm.Set("form", opts.FormData)
	vm.Set("console", map[string]interface{}{
		"log": func(args ...interface{}) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = fmt.Sprintf("%v", a)
			}
			emit(ctx, out, types.ShellOutput(script.ID, strings.Join(parts, " ")+"\n"))
		},
	})

	interruptDone := make(chan struct{})
	defer close(interruptDone)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-interruptDone:
		}
	}()

	if _, err := vm.RunString(source); err != nil {
		if ctx.Err() != nil {
			fail(ctx, out, ctx.Err())
			return
		}
		fail(ctx, out, types.ExecutionFailed(err.Error()))
	}
}

func (e *JSExecutor) loadSource(ctx context.Context, opts RunOptions, file string) (string, error) {
	if opts.Repository == nil {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", types.TemplateFileNotFound(file)
		}
		return string(data), nil
	}

	location, err := opts.Repository.Resolve(ctx, opts.RepoPath, file)
	if err != nil {
		return "", types.TemplateInvalidURL(file)
	}

	te := &TemplateExecutor{}
	data, err := te.fetchLocation(ctx, opts.Repository, location)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
