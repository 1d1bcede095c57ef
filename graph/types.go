// Package graph compiles validated game definitions into executable
// interaction graphs.
//
// A CompiledGraph is an explicit arena of typed nodes plus guarded directed
// edges. Control flow lives entirely in the structure: the shared-simulation
// wrapper injected around participant turns is visible as ordinary nodes and
// edges, so reachability and cycle analysis see exactly what the engine will
// execute. Compilation is all-or-nothing and a pure function of its input.
package graph

import (
	"github.com/dcs-research/simengine/definition"
	"github.com/dcs-research/simengine/providers"
)

// SimPhase marks nodes injected by the shared-simulation wrapper.
type SimPhase string

const (
	// SimNone marks an author-declared node.
	SimNone SimPhase = ""
	// SimValidate is the pre-turn input validation node.
	SimValidate SimPhase = "validate"
	// SimFinalize is the post-turn drift check and checkpoint node.
	SimFinalize SimPhase = "finalize"
)

// Node is one executable node of a compiled graph.
type Node struct {
	Name   string
	Role   definition.NodeRole
	Prompt string

	// Character and Provider are resolved at compile time for participant
	// (and model-backed narrator) nodes; the engine never re-resolves them.
	Character *definition.CharacterDefinition
	Binding   definition.ModelBinding
	Provider  providers.Provider

	// Sim identifies injected wrapper nodes; Wraps names the participant
	// node the wrapper belongs to.
	Sim   SimPhase
	Wraps string

	// Edges in declaration order. The default edge, if any, is always last.
	Edges []Edge
}

// IsTerminal reports whether reaching this node ends the run.
func (n *Node) IsTerminal() bool {
	return n.Role == definition.RoleTermination
}

// Edge is a guarded transition. A nil Guard marks the node's default edge,
// taken when no guarded edge matches.
type Edge struct {
	To    string
	Guard *Guard
}

// CompiledGraph is the validated, executable representation of a game.
// It is created once per game version and reused across many runs.
type CompiledGraph struct {
	Game           string
	Version        string
	Start          string
	MaxTurns       int
	InputLimit     int
	DriftTolerance float64

	nodes map[string]*Node
	order []string
}

// Node returns the node with the given name, or nil.
func (g *CompiledGraph) Node(name string) *Node {
	return g.nodes[name]
}

// Nodes returns all nodes in deterministic (declaration-then-injection) order.
func (g *CompiledGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Len returns the number of nodes.
func (g *CompiledGraph) Len() int {
	return len(g.order)
}
