package graph

import (
	"github.com/dcs-research/simengine/definition"
	"github.com/dcs-research/simengine/logger"
	"github.com/dcs-research/simengine/providers"
)

// Default flow parameters applied when the definition leaves them unset.
const (
	// DefaultInputLimit caps user input length for the injected input
	// validation node.
	DefaultInputLimit = 2000
	// DefaultDriftTolerance is the persona-fidelity score below which a
	// participant turn is flagged as drifted.
	DefaultDriftTolerance = 0.5
)

// Compile transforms a validated definition into a CompiledGraph. Model
// bindings are resolved against the registry here and never again; the
// shared-simulation wrapper is injected around every participant node; the
// result is checked for reachability and bounded cycles. Any failure aborts
// the whole compile: no partially compiled graph is ever returned.
func Compile(def *definition.GameDefinition, reg *providers.Registry) (*CompiledGraph, error) {
	g := &CompiledGraph{
		Game:           def.Name,
		Version:        def.Version,
		Start:          def.Flow.Start,
		MaxTurns:       def.Flow.MaxTurns,
		InputLimit:     def.Flow.InputLimit,
		DriftTolerance: def.Flow.DriftTolerance,
		nodes:          make(map[string]*Node, len(def.Nodes)),
	}
	if g.InputLimit == 0 {
		g.InputLimit = DefaultInputLimit
	}
	if g.DriftTolerance == 0 {
		g.DriftTolerance = DefaultDriftTolerance
	}

	if err := buildNodes(g, def, reg); err != nil {
		return nil, err
	}
	if err := buildEdges(g, def); err != nil {
		return nil, err
	}
	injectSimulationWrapper(g)

	if err := checkReachability(g); err != nil {
		return nil, err
	}
	if err := checkCycles(g); err != nil {
		return nil, err
	}

	logger.Debug("graph compiled",
		"game", g.Game,
		"version", g.Version,
		"nodes", g.Len(),
	)
	return g, nil
}

// buildNodes instantiates one graph node per definition node and resolves
// character and model bindings.
func buildNodes(g *CompiledGraph, def *definition.GameDefinition, reg *providers.Registry) error {
	for i := range def.Nodes {
		spec := &def.Nodes[i]
		node := &Node{
			Name:   spec.Name,
			Role:   spec.Role,
			Prompt: spec.Prompt,
		}

		if spec.Character != "" {
			node.Character = def.Character(spec.Character)
		}
		if spec.Model != "" {
			binding := def.Model(spec.Model)
			if binding == nil {
				return &UnknownBindingError{Node: spec.Name, Binding: spec.Model}
			}
			provider, err := resolveProvider(reg, *binding, spec.Name)
			if err != nil {
				return err
			}
			node.Binding = *binding
			node.Provider = provider
		}

		g.nodes[node.Name] = node
		g.order = append(g.order, node.Name)
	}
	return nil
}

// resolveProvider looks a binding up in the registry, first by binding id
// (per-binding registration, the common test setup) and then by provider
// type (one shared backend instance).
func resolveProvider(reg *providers.Registry, binding definition.ModelBinding, node string) (providers.Provider, error) {
	if p, ok := reg.Get(binding.ID); ok {
		return p, nil
	}
	if p, ok := reg.Get(binding.Provider); ok {
		return p, nil
	}
	return nil, &UnknownBindingError{Node: node, Binding: binding.ID}
}

// buildEdges materializes transition rules as guarded edges in declaration
// order. A rule with no when clause is the node's default edge; a second
// default on the same node is ambiguous and fails the compile.
func buildEdges(g *CompiledGraph, def *definition.GameDefinition) error {
	defaults := make(map[string]bool, len(g.nodes))

	for _, rule := range def.Transitions {
		from := g.nodes[rule.From]

		var guard *Guard
		if rule.When != "" {
			parsed, err := parseGuard(rule.When, g.MaxTurns)
			if err != nil {
				return &GuardError{From: rule.From, To: rule.To, Err: err}
			}
			guard = parsed
		} else {
			if defaults[rule.From] {
				return &AmbiguousDefaultEdgeError{Node: rule.From}
			}
			defaults[rule.From] = true
		}

		from.Edges = append(from.Edges, Edge{To: rule.To, Guard: guard})
	}

	// Keep guarded edges in declaration order but move the default edge
	// last, so engine evaluation order matches the documented fallback rule.
	for _, name := range g.order {
		node := g.nodes[name]
		guarded := make([]Edge, 0, len(node.Edges))
		var def []Edge
		for _, e := range node.Edges {
			if e.Guard == nil {
				def = append(def, e)
			} else {
				guarded = append(guarded, e)
			}
		}
		node.Edges = append(guarded, def...)
	}
	return nil
}

// injectSimulationWrapper wraps every participant node in the shared
// simulation subgraph: a pre-turn validate node and a post-turn finalize
// node that checks persona drift and records a checkpoint. The wrapper is a
// structural transformation, so author flow logic cannot bypass it and the
// reachability and cycle analyses see the graph the engine will run.
func injectSimulationWrapper(g *CompiledGraph) {
	var participants []string
	for _, name := range g.order {
		if g.nodes[name].Role == definition.RoleParticipant {
			participants = append(participants, name)
		}
	}

	for _, name := range participants {
		p := g.nodes[name]
		validateName := "sim/validate/" + name
		finalizeName := "sim/finalize/" + name

		validate := &Node{
			Name:  validateName,
			Role:  definition.RoleCheckpoint,
			Sim:   SimValidate,
			Wraps: name,
			Edges: []Edge{{To: name}},
		}
		finalize := &Node{
			Name:      finalizeName,
			Role:      definition.RoleCheckpoint,
			Sim:       SimFinalize,
			Wraps:     name,
			Character: p.Character,
			Edges:     p.Edges,
		}
		p.Edges = []Edge{{To: finalizeName}}

		g.nodes[validateName] = validate
		g.nodes[finalizeName] = finalize
		g.order = append(g.order, validateName, finalizeName)
	}

	// Retarget every edge into a wrapped participant at its validate node.
	for _, name := range participants {
		validateName := "sim/validate/" + name
		for _, n := range g.Nodes() {
			if n.Name == validateName {
				continue
			}
			for i := range n.Edges {
				if n.Edges[i].To == name {
					n.Edges[i].To = validateName
				}
			}
		}
		if g.Start == name {
			g.Start = validateName
		}
	}
}
