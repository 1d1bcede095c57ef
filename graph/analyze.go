package graph

// checkReachability runs BFS from the start node and fails on the first
// unreachable node in declaration order.
func checkReachability(g *CompiledGraph) error {
	visited := make(map[string]bool, g.Len())
	queue := []string{g.Start}
	visited[g.Start] = true

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		node := g.nodes[name]
		if node == nil {
			continue
		}
		for _, e := range node.Edges {
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}

	for _, name := range g.order {
		if !visited[name] {
			return &UnreachableNodeError{Node: name}
		}
	}
	return nil
}

// checkCycles verifies that every cycle passes through a bounding guard
// (strictly-decreasing counter or turn ceiling) or a node with an explicit
// termination check. The check works on a reduced graph: bounding edges are
// dropped, and nodes carrying a turns-at-least exit are removed entirely,
// since every cycle through them is cut when the check fires. Any cycle that
// survives the reduction is unbounded. Termination nodes stay in the graph:
// a run only completes there when no outgoing edge matches, so an
// unconditional loop through one never ends.
func checkCycles(g *CompiledGraph) error {
	removed := make(map[string]bool, g.Len())
	for _, name := range g.order {
		node := g.nodes[name]
		for _, e := range node.Edges {
			if e.Guard != nil && e.Guard.Kind == GuardTurnsAtLeast {
				removed[name] = true
				break
			}
		}
	}

	adj := make(map[string][]string, g.Len())
	for _, name := range g.order {
		if removed[name] {
			continue
		}
		for _, e := range g.nodes[name].Edges {
			if removed[e.To] {
				continue
			}
			if e.Guard != nil && e.Guard.Bounding() {
				continue
			}
			adj[name] = append(adj[name], e.To)
		}
	}

	// Iterative DFS coloring; gray nodes are on the current path, so an edge
	// to a gray node closes a cycle that the reduction failed to bound.
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, g.Len())
	var stack []string

	var dfs func(name string) *UnboundedCycleError
	dfs = func(name string) *UnboundedCycleError {
		color[name] = gray
		stack = append(stack, name)
		for _, next := range adj[name] {
			switch color[next] {
			case gray:
				return extractCycle(stack, next)
			case white:
				if err := dfs(next); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, name := range g.order {
		if removed[name] || color[name] != white {
			continue
		}
		if err := dfs(name); err != nil {
			return err
		}
	}
	return nil
}

// extractCycle slices the DFS stack from the first occurrence of entry,
// yielding the offending cycle for error reporting.
func extractCycle(stack []string, entry string) *UnboundedCycleError {
	for i, name := range stack {
		if name == entry {
			cycle := make([]string, len(stack)-i)
			copy(cycle, stack[i:])
			return &UnboundedCycleError{Cycle: cycle}
		}
	}
	return &UnboundedCycleError{Cycle: []string{entry}}
}
