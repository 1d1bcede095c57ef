// Package definition loads and validates author-supplied game definitions.
//
// A game definition is a YAML document declaring characters, model bindings,
// graph nodes, transition rules, and flow parameters. Loading is a pure
// transform: the input either produces a complete GameDefinition or fails
// with a DefinitionError naming the offending field. Partial or ambiguous
// definitions are rejected outright; there is no best-effort repair.
package definition

// NodeRole tags a node with its execution behavior.
type NodeRole string

const (
	// RoleParticipant is a character turn backed by a model call.
	RoleParticipant NodeRole = "participant"
	// RoleNarrator is a narrator or system turn (scene framing, welcome text).
	RoleNarrator NodeRole = "narrator"
	// RoleCheckpoint is a measurement checkpoint with no conversational output.
	RoleCheckpoint NodeRole = "checkpoint"
	// RoleTermination is a termination check; reaching it ends the run.
	RoleTermination NodeRole = "termination"
)

// GameDefinition is the author-facing specification of a game.
// It is immutable once loaded for a run.
type GameDefinition struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Authors     []string `yaml:"authors,omitempty"`
	Description string   `yaml:"description,omitempty"`

	Characters  []CharacterDefinition `yaml:"characters"`
	Models      []ModelBinding        `yaml:"models"`
	Nodes       []NodeSpec            `yaml:"nodes"`
	Transitions []TransitionRule      `yaml:"transitions"`
	Flow        FlowParams            `yaml:"flow"`
}

// Character returns the character with the given hid, or nil.
func (d *GameDefinition) Character(hid string) *CharacterDefinition {
	for i := range d.Characters {
		if d.Characters[i].HID == hid {
			return &d.Characters[i]
		}
	}
	return nil
}

// Model returns the model binding with the given id, or nil.
func (d *GameDefinition) Model(id string) *ModelBinding {
	for i := range d.Models {
		if d.Models[i].ID == id {
			return &d.Models[i]
		}
	}
	return nil
}

// Node returns the node spec with the given name, or nil.
func (d *GameDefinition) Node(name string) *NodeSpec {
	for i := range d.Nodes {
		if d.Nodes[i].Name == name {
			return &d.Nodes[i]
		}
	}
	return nil
}

// CharacterDefinition describes a persona bound into a game, together with
// the fidelity rubric used to score its in-run behavior. A character bound
// into a running game always resolves to exactly one fixed version for that
// game's lifetime.
type CharacterDefinition struct {
	HID              string   `yaml:"hid"`
	Version          string   `yaml:"version"`
	ShortDescription string   `yaml:"short_description,omitempty"`
	LongDescription  string   `yaml:"long_description,omitempty"`
	Abilities        []string `yaml:"abilities,omitempty"`
	Traits           []string `yaml:"traits,omitempty"`
	Goals            []string `yaml:"goals,omitempty"`
	Constraints      []string `yaml:"constraints,omitempty"`
	Rubric           Rubric   `yaml:"rubric"`
}

// Rubric is a set of named scoring criteria attached to a character.
type Rubric struct {
	Criteria []Criterion `yaml:"criteria"`
}

// ScoringMethod selects how a criterion is scored. The set is closed:
// unknown methods are a DefinitionError, not a runtime fallback.
type ScoringMethod string

const (
	// MethodKeywordOverlap scores the fraction of the criterion's keywords
	// present in the turn output.
	MethodKeywordOverlap ScoringMethod = "keyword_overlap"
	// MethodLengthBounds scores 1 when the output word count is within the
	// declared bounds, decaying linearly outside them.
	MethodLengthBounds ScoringMethod = "length_bounds"
	// MethodConstraintScan scores 1 minus the fraction of forbidden phrases
	// found in the turn output.
	MethodConstraintScan ScoringMethod = "constraint_scan"
)

// Criterion is one named rubric entry with its scoring method and parameters.
type Criterion struct {
	Name     string        `yaml:"name"`
	Method   ScoringMethod `yaml:"method"`
	Keywords []string      `yaml:"keywords,omitempty"`  // keyword_overlap
	MinWords int           `yaml:"min_words,omitempty"` // length_bounds
	MaxWords int           `yaml:"max_words,omitempty"` // length_bounds
	Phrases  []string      `yaml:"phrases,omitempty"`   // constraint_scan
	Weight   float64       `yaml:"weight,omitempty"`    // defaults to 1
}

// ModelBinding names a provider/model pair and its call parameters.
// Bindings are resolved at compile time; the engine never re-resolves a
// binding mid-run.
type ModelBinding struct {
	ID          string  `yaml:"id"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// NodeSpec declares one node of the game graph.
type NodeSpec struct {
	Name      string   `yaml:"name"`
	Role      NodeRole `yaml:"role"`
	Prompt    string   `yaml:"prompt,omitempty"`    // prompt template for participant/narrator nodes
	Character string   `yaml:"character,omitempty"` // bound character hid (participant nodes)
	Model     string   `yaml:"model,omitempty"`     // bound model id (participant/narrator nodes)
}

// TransitionRule declares one edge of the game graph. A rule with an empty
// When clause is the node's default edge, taken when no guarded edge matches.
type TransitionRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	When string `yaml:"when,omitempty"`
}

// FlowParams are the global flow parameters of a game.
type FlowParams struct {
	Start    string `yaml:"start"`
	MaxTurns int    `yaml:"max_turns"`
	// InputLimit caps user input length for the shared-simulation input
	// validation. Zero means the engine default.
	InputLimit int `yaml:"input_limit,omitempty"`
	// DriftTolerance is the persona-drift score below which the shared
	// simulation wrapper flags a participant turn. Zero means the engine
	// default.
	DriftTolerance float64 `yaml:"drift_tolerance,omitempty"`
}
