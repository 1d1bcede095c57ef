package definition

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// validate performs the semantic checks that the JSON schema cannot express:
// reference integrity, uniqueness, and flow parameter bounds.
func validate(def *GameDefinition) error {
	if _, err := semver.NewVersion(def.Version); err != nil {
		return defErr("version", "not a valid semantic version: %v", err)
	}

	if err := validateCharacters(def); err != nil {
		return err
	}
	if err := validateModels(def); err != nil {
		return err
	}
	if err := validateNodes(def); err != nil {
		return err
	}
	if err := validateTransitions(def); err != nil {
		return err
	}
	return validateFlow(def)
}

func validateCharacters(def *GameDefinition) error {
	seen := make(map[string]bool, len(def.Characters))
	for i, c := range def.Characters {
		field := fmt.Sprintf("characters[%d]", i)
		if seen[c.HID] {
			return defErr(field, "duplicate character hid %q", c.HID)
		}
		seen[c.HID] = true
		if _, err := semver.NewVersion(c.Version); err != nil {
			return defErr(field+".version", "not a valid semantic version: %v", err)
		}
		for j, crit := range c.Rubric.Criteria {
			cf := fmt.Sprintf("%s.rubric.criteria[%d]", field, j)
			if err := validateCriterion(cf, crit); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCriterion(field string, c Criterion) error {
	switch c.Method {
	case MethodKeywordOverlap:
		if len(c.Keywords) == 0 {
			return defErr(field, "keyword_overlap requires keywords")
		}
	case MethodLengthBounds:
		if c.MaxWords > 0 && c.MinWords > c.MaxWords {
			return defErr(field, "min_words %d exceeds max_words %d", c.MinWords, c.MaxWords)
		}
	case MethodConstraintScan:
		if len(c.Phrases) == 0 {
			return defErr(field, "constraint_scan requires phrases")
		}
	default:
		return defErr(field, "unknown scoring method %q", c.Method)
	}
	if c.Weight < 0 {
		return defErr(field, "weight must be non-negative")
	}
	return nil
}

func validateModels(def *GameDefinition) error {
	seen := make(map[string]bool, len(def.Models))
	for i, m := range def.Models {
		field := fmt.Sprintf("models[%d]", i)
		if seen[m.ID] {
			return defErr(field, "duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

func validateNodes(def *GameDefinition) error {
	seen := make(map[string]bool, len(def.Nodes))
	for i, n := range def.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if seen[n.Name] {
			return defErr(field, "duplicate node name %q", n.Name)
		}
		seen[n.Name] = true

		switch n.Role {
		case RoleParticipant:
			if n.Character == "" {
				return defErr(field+".character", "participant node %q needs a character", n.Name)
			}
			if def.Character(n.Character) == nil {
				return defErr(field+".character", "unknown character %q", n.Character)
			}
			if n.Model == "" {
				return defErr(field+".model", "participant node %q needs a model", n.Name)
			}
			if def.Model(n.Model) == nil {
				return defErr(field+".model", "unknown model %q", n.Model)
			}
		case RoleNarrator:
			if n.Model != "" && def.Model(n.Model) == nil {
				return defErr(field+".model", "unknown model %q", n.Model)
			}
		case RoleCheckpoint, RoleTermination:
			// No bindings required.
		default:
			return defErr(field+".role", "unknown role %q", n.Role)
		}
	}
	return nil
}

func validateTransitions(def *GameDefinition) error {
	for i, t := range def.Transitions {
		field := fmt.Sprintf("transitions[%d]", i)
		if def.Node(t.From) == nil {
			return defErr(field+".from", "unknown node %q", t.From)
		}
		if def.Node(t.To) == nil {
			return defErr(field+".to", "unknown node %q", t.To)
		}
	}
	return nil
}

func validateFlow(def *GameDefinition) error {
	if def.Flow.MaxTurns <= 0 {
		return defErr("flow.max_turns", "must be > 0, got %d", def.Flow.MaxTurns)
	}
	if def.Node(def.Flow.Start) == nil {
		return defErr("flow.start", "unknown node %q", def.Flow.Start)
	}
	if def.Flow.DriftTolerance < 0 || def.Flow.DriftTolerance > 1 {
		return defErr("flow.drift_tolerance", "must be within [0, 1]")
	}
	return nil
}
