// Package dag builds and holds the job dependency graph the scheduler
// walks: an arena of nodes keyed by id, each holding the job it wraps
// and its parent/child edge sets. See spec §3 (Graph node) and §4.1
// (DAG Builder).
package dag

import (
	"sync"

	"github.com/wfgraph/engine/types"
)

// RootID and TailID are the two reserved node identifiers synthesized by
// the builder; they are never present in a decoded workflow's job list.
const (
	RootID = "root"
	TailID = "tail"
)

// Node is a single vertex: the job it wraps (mutable during execution)
// plus its incoming/outgoing edge sets, keyed by neighbor id.
type Node struct {
	ID       string
	Job      *types.Job
	Parents  map[string]*Node
	Children map[string]*Node
}

func newNode(id string, job *types.Job) *Node {
	return &Node{
		ID:       id,
		Job:      job,
		Parents:  make(map[string]*Node),
		Children: make(map[string]*Node),
	}
}

func addEdge(from, to *Node) {
	from.Children[to.ID] = to
	to.Parents[from.ID] = from
}

// Graph is the arena of all nodes reachable from Root, keyed by id.
// Structural edges are fixed after Build returns; only each node's Job
// contents mutate during execution, and only under the scheduler's
// single-writer discipline (spec §5).
type Graph struct {
	mu     sync.RWMutex
	nodes  map[string]*Node
	jobIDs []string // workflow declaration order, root/tail excluded
	Root   *Node
	Tail   *Node
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Nodes returns every node in the graph, including root and tail.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// JobNodes returns every node except root and tail, in the workflow's
// own declaration order — the order `jobs[index]` addressing (spec
// §4.8) and the projected snapshot's `Jobs` list (spec §4.6) use.
func (g *Graph) JobNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.jobIDs))
	for _, id := range g.jobIDs {
		out = append(out, g.nodes[id])
	}
	return out
}
