// Command workflowctl runs a single workflow document to completion and
// prints its result-event stream, mirroring the shape of the teacher's
// examples/main.go demo harness: read a document, wire an engine, print
// as events arrive.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/wfgraph/engine/engine"
	"github.com/wfgraph/engine/repository"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: workflowctl <workflow.yaml>")
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read workflow: %v\n", err)
		os.Exit(1)
	}

	wf, err := repository.DecodeYAML(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode workflow: %v\n", err)
		os.Exit(1)
	}

	e, err := engine.New(engine.Options{
		Environment: map[string]string{},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outputs, err := e.Execute(ctx, wf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "execute: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	for out := range outputs {
		if out.Err != nil {
			fmt.Fprintf(os.Stderr, "workflow failed: %v\n", out.Err)
			exitCode = 1
			continue
		}
		if out.Event.Kind == "formRequest" {
			fmt.Fprintf(os.Stderr, "form requested (id=%s); provide it via the engine API to continue\n", out.Event.RendezvousID)
			continue
		}
		line, err := json.Marshal(out.Event)
		if err != nil {
			continue
		}
		fmt.Println(string(line))
	}

	os.Exit(exitCode)
}
