// Package template renders the prompt templates game authors attach to
// graph nodes.
//
// Templates use {{name}} placeholders. Values may themselves contain
// placeholders, resolved over a bounded number of passes. Placeholders left
// unresolved after rendering are an error rather than being passed through
// to a model verbatim.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// maxPasses bounds recursive placeholder resolution.
const maxPasses = 3

var placeholderRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// Renderer substitutes variables into prompt templates.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render substitutes vars into text. Nested substitution is supported: a
// value containing {{other}} resolves against vars on a later pass.
func (r *Renderer) Render(text string, vars map[string]string) (string, error) {
	result := text
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for name, value := range vars {
			placeholder := "{{" + name + "}}"
			if strings.Contains(result, placeholder) {
				result = strings.ReplaceAll(result, placeholder, value)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	if unresolved := placeholderRe.FindAllString(result, -1); len(unresolved) > 0 {
		return "", fmt.Errorf("unresolved template placeholders: %v", unresolved)
	}
	return result, nil
}

// Merge combines variable maps, later maps taking precedence. Useful for
// layering engine-provided variables under author overrides.
func Merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, vars := range maps {
		for name, value := range vars {
			out[name] = value
		}
	}
	return out
}
