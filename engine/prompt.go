package engine

import (
	"strconv"
	"strings"

	"github.com/dcs-research/simengine/definition"
	"github.com/dcs-research/simengine/graph"
	"github.com/dcs-research/simengine/template"
)

// systemPrompt assembles the system prompt for a model-backed node: the
// node's prompt template rendered against the run's variables, followed by
// the bound character's persona sheet.
func (r *run) systemPrompt(node *graph.Node) (string, error) {
	var b strings.Builder

	if node.Prompt != "" {
		rendered, err := template.NewRenderer().Render(node.Prompt, r.promptVars(node))
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
	}
	if node.Character != nil {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		writePersona(&b, node.Character)
	}
	return b.String(), nil
}

// promptVars are the variables node prompt templates can reference.
func (r *run) promptVars(node *graph.Node) map[string]string {
	vars := map[string]string{
		"game":      r.graph.Game,
		"turn":      strconv.Itoa(r.state.Turns + 1),
		"max_turns": strconv.Itoa(r.graph.MaxTurns),
	}
	if node.Character != nil {
		vars["character"] = node.Character.HID
	}
	return vars
}

func writePersona(b *strings.Builder, c *definition.CharacterDefinition) {
	b.WriteString("You are playing the character \"")
	b.WriteString(c.HID)
	b.WriteString("\".")

	if c.LongDescription != "" {
		b.WriteString("\n\n")
		b.WriteString(c.LongDescription)
	} else if c.ShortDescription != "" {
		b.WriteString("\n\n")
		b.WriteString(c.ShortDescription)
	}

	writeList(b, "Abilities", c.Abilities)
	writeList(b, "Traits", c.Traits)
	writeList(b, "Goals", c.Goals)
	writeList(b, "Constraints", c.Constraints)

	b.WriteString("\n\nStay in character. Respond only as this character would.")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(heading)
	b.WriteString(":")
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
}
