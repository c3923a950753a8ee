package engine

import (
	"strconv"
	"strings"

	"github.com/wfgraph/engine/dag"
	"github.com/wfgraph/engine/types"
)

// Lookup resolves a dotted-path expression against the graph of the
// most recent Execute call, per spec §4.8's grammar:
//
//	jobs[N] | jobs.id
//	.steps[N] | .steps.id      (optional, one level)
//	.results | .formData       (optional, trailing)
//
// A job segment alone resolves to the *types.Job. A step segment
// resolves to the *types.Step. A trailing "results" resolves to the
// []types.ResultEvent log for whichever level it follows; "formData"
// resolves to the form-data map recorded for that job or step's form
// rendezvous, or an empty map if none has arrived yet.
func (e *Engine) Lookup(path string) (interface{}, error) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || segments[0] == "" {
		return nil, types.InvalidPath("empty path")
	}

	e.mu.RLock()
	graph := e.graph
	formData := e.formData
	e.mu.RUnlock()

	if graph == nil {
		return nil, types.InvalidPath("no workflow has been executed yet")
	}

	cur := &cursor{segments: segments}

	name, index, err := cur.takeKeyword()
	if err != nil {
		return nil, err
	}
	if name != "jobs" {
		return nil, types.InvalidPath("path must start with jobs[index] or jobs.id")
	}

	id := ""
	if index < 0 {
		id, err = cur.takeID()
		if err != nil {
			return nil, err
		}
	}
	node, err := resolveJobNode(graph, index, id)
	if err != nil {
		return nil, err
	}
	job := node.Job

	if cur.done() {
		return job, nil
	}

	if tail, ok := cur.takeTrailing(); ok {
		switch tail {
		case "results":
			return jobResults(job), nil
		case "formData":
			return formDataFor(formData, "job_"+job.ID+"_"), nil
		}
	}

	sName, sIndex, err := cur.takeKeyword()
	if err != nil {
		return nil, err
	}
	if sName != "steps" {
		return nil, types.InvalidPath("second path segment must be steps[index], steps.id, results, or formData")
	}

	sID := ""
	if sIndex < 0 {
		sID, err = cur.takeID()
		if err != nil {
			return nil, err
		}
	}
	step, err := resolveStep(job, sIndex, sID)
	if err != nil {
		return nil, err
	}

	if cur.done() {
		return step, nil
	}

	if tail, ok := cur.takeTrailing(); ok {
		switch tail {
		case "results":
			return append([]types.ResultEvent(nil), step.Results...), nil
		case "formData":
			return formDataFor(formData, "step_"+step.ID+"_"), nil
		}
	}

	return nil, types.InvalidPath("path has trailing segments after steps")
}

// cursor walks a dot-split path one token at a time.
type cursor struct {
	segments []string
	pos      int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.segments)
}

// takeKeyword consumes one segment shaped either "name[N]" (returns
// name, N) or a bare "name" (returns name, -1 — the id, if any, is a
// separate following segment consumed by takeID).
func (c *cursor) takeKeyword() (string, int, error) {
	if c.done() {
		return "", 0, types.InvalidPath("path ended unexpectedly")
	}
	seg := c.segments[c.pos]
	c.pos++

	open := strings.IndexByte(seg, '[')
	if open == -1 {
		return seg, -1, nil
	}
	if !strings.HasSuffix(seg, "]") {
		return "", 0, types.InvalidPath("malformed index segment: " + seg)
	}
	name := seg[:open]
	n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil || n < 0 {
		return "", 0, types.InvalidPath("malformed index in segment: " + seg)
	}
	return name, n, nil
}

// takeID consumes the next raw segment as an id string.
func (c *cursor) takeID() (string, error) {
	if c.done() {
		return "", types.InvalidPath("path ended before an id segment")
	}
	seg := c.segments[c.pos]
	c.pos++
	if seg == "" {
		return "", types.InvalidPath("empty id segment")
	}
	return seg, nil
}

// takeTrailing consumes the next segment only if it is exactly
// "results" or "formData", without advancing otherwise.
func (c *cursor) takeTrailing() (string, bool) {
	if c.done() {
		return "", false
	}
	seg := c.segments[c.pos]
	if seg == "results" || seg == "formData" {
		c.pos++
		return seg, true
	}
	return "", false
}

func resolveJobNode(g *dag.Graph, index int, id string) (*dag.Node, error) {
	if index >= 0 {
		nodes := g.JobNodes()
		if index >= len(nodes) {
			return nil, types.InvalidPath("job index out of range")
		}
		return nodes[index], nil
	}
	node := g.NodeByID(id)
	if node == nil || node.ID == dag.RootID || node.ID == dag.TailID {
		return nil, types.InvalidPath("unknown job id: " + id)
	}
	return node, nil
}

func resolveStep(job *types.Job, index int, id string) (*types.Step, error) {
	if index >= 0 {
		if index >= len(job.Steps) {
			return nil, types.InvalidPath("step index out of range")
		}
		return job.Steps[index], nil
	}
	step := job.StepByID(id)
	if step == nil {
		return nil, types.InvalidPath("unknown step id: " + id)
	}
	return step, nil
}

// jobResults concatenates a job's lifecycle-event results with its
// steps' results, in declaration order, per spec §4.8's job-level
// "results" resolving to every result event logged anywhere under that
// job so far.
func jobResults(job *types.Job) []types.ResultEvent {
	var out []types.ResultEvent
	for _, le := range job.Lifecycle {
		out = append(out, le.Results...)
	}
	for _, step := range job.Steps {
		for _, le := range step.Lifecycle {
			out = append(out, le.Results...)
		}
		out = append(out, step.Results...)
	}
	return out
}

// formDataFor returns the recorded form-data map whose rendezvous id
// carries the given prefix, or an empty map if none has arrived yet —
// at most one form request per job/step occurs within a single Execute
// run, so prefix matching is unambiguous in practice.
func formDataFor(store map[string]map[string]interface{}, prefix string) map[string]interface{} {
	for id, data := range store {
		if strings.HasPrefix(id, prefix) {
			return data
		}
	}
	return map[string]interface{}{}
}
