package definition

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/dcs-research/simengine/logger"
)

// Load parses and validates a YAML game definition. It returns a complete
// GameDefinition or a *DefinitionError naming the offending field. Load has
// no side effects and never repairs partial input.
func Load(data []byte) (*GameDefinition, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, defErr("(document)", "invalid YAML: %v", err)
	}
	if doc == nil {
		return nil, defErr("(document)", "empty definition")
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var def GameDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, defErr("(document)", "cannot decode definition: %v", err)
	}

	if err := validate(&def); err != nil {
		return nil, err
	}

	logger.Debug("definition loaded",
		"game", def.Name,
		"version", def.Version,
		"nodes", len(def.Nodes),
		"transitions", len(def.Transitions),
	)
	return &def, nil
}

// LoadFile reads and loads a game definition from a YAML file.
func LoadFile(path string) (*GameDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	return Load(data)
}

// validateSchema checks the raw document shape against the embedded JSON
// schema. The YAML document is round-tripped through JSON because the schema
// validator operates on JSON values.
func validateSchema(doc map[string]any) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return defErr("(document)", "definition is not JSON-representable: %v", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(gameSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return &DefinitionError{
			Field:       first.Field(),
			Description: first.Description(),
			Value:       first.Value(),
		}
	}
	return nil
}
