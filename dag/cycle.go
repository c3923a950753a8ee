package dag

import "github.com/wfgraph/engine/types"

// visitState tracks a DFS node's coloring for cycle detection.
type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// checkCycles runs a depth-first back-edge check over every node except
// root and tail, per spec §4.1 step 8. On finding a cycle it returns a
// CyclicDependency error listing exactly the nodes on the cycle, in
// traversal order.
func checkCycles(g *Graph) error {
	state := make(map[string]visitState)
	var stack []string

	var visit func(n *Node) error
	visit = func(n *Node) error {
		state[n.ID] = visiting
		stack = append(stack, n.ID)

		for _, child := range n.Children {
			if child.ID == TailID {
				continue
			}
			switch state[child.ID] {
			case unvisited:
				if err := visit(child); err != nil {
					return err
				}
			case visiting:
				cycle := cyclePathFrom(stack, child.ID)
				return types.CyclicDependency(cycle)
			case visited:
				// already fully explored via another path
			}
		}

		stack = stack[:len(stack)-1]
		state[n.ID] = visited
		return nil
	}

	for _, n := range g.nodes {
		if n.ID == RootID || n.ID == TailID {
			continue
		}
		if state[n.ID] == unvisited {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// cyclePathFrom returns the suffix of stack starting at the first
// occurrence of target, i.e. the cycle itself.
func cyclePathFrom(stack []string, target string) []string {
	for i, id := range stack {
		if id == target {
			return append([]string(nil), stack[i:]...)
		}
	}
	return stack
}
