package definition

// gameSchema is the embedded JSON schema for game definitions. It covers
// structural shape only; cross-reference and bounds checks happen in
// validate.go after unmarshaling.
const gameSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "version", "characters", "models", "nodes", "transitions", "flow"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string", "minLength": 1},
    "authors": {"type": "array", "items": {"type": "string"}},
    "description": {"type": "string"},
    "characters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["hid", "version"],
        "properties": {
          "hid": {"type": "string", "minLength": 1},
          "version": {"type": "string", "minLength": 1},
          "short_description": {"type": "string"},
          "long_description": {"type": "string"},
          "abilities": {"type": "array", "items": {"type": "string"}},
          "traits": {"type": "array", "items": {"type": "string"}},
          "goals": {"type": "array", "items": {"type": "string"}},
          "constraints": {"type": "array", "items": {"type": "string"}},
          "rubric": {
            "type": "object",
            "properties": {
              "criteria": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["name", "method"],
                  "properties": {
                    "name": {"type": "string", "minLength": 1},
                    "method": {"enum": ["keyword_overlap", "length_bounds", "constraint_scan"]},
                    "keywords": {"type": "array", "items": {"type": "string"}},
                    "min_words": {"type": "integer", "minimum": 0},
                    "max_words": {"type": "integer", "minimum": 0},
                    "phrases": {"type": "array", "items": {"type": "string"}},
                    "weight": {"type": "number", "minimum": 0}
                  }
                }
              }
            }
          }
        }
      }
    },
    "models": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "provider", "model"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "provider": {"type": "string", "minLength": 1},
          "model": {"type": "string", "minLength": 1},
          "base_url": {"type": "string"},
          "temperature": {"type": "number"},
          "max_tokens": {"type": "integer", "minimum": 0}
        }
      }
    },
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "role"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "role": {"enum": ["participant", "narrator", "checkpoint", "termination"]},
          "prompt": {"type": "string"},
          "character": {"type": "string"},
          "model": {"type": "string"}
        }
      }
    },
    "transitions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from", "to"],
        "properties": {
          "from": {"type": "string", "minLength": 1},
          "to": {"type": "string", "minLength": 1},
          "when": {"type": "string"}
        }
      }
    },
    "flow": {
      "type": "object",
      "required": ["start", "max_turns"],
      "properties": {
        "start": {"type": "string", "minLength": 1},
        "max_turns": {"type": "integer"},
        "input_limit": {"type": "integer", "minimum": 0},
        "drift_tolerance": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`
