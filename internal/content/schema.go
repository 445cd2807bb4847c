package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const schemaBaseURL = "https://rulekeeper.dev/schema/"

const rulesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {"$ref": "#/$defs/node"},
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string"},
        "summary": {"type": ["string", "null"]},
        "body": {
          "oneOf": [
            {"type": "string"},
            {"type": "array", "items": {"type": "string"}},
            {"type": "null"}
          ]
        },
        "children": {"type": ["array", "null"], "items": {"$ref": "#/$defs/node"}}
      }
    }
  }
}`

const tableSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["kind", "title", "rows"],
  "properties": {
    "kind": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "grouped": {"type": "boolean"},
    "rows": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "group": {"type": "string"},
          "group_title": {"type": "string"},
          "description": {"type": ["string", "null"]},
          "notes": {"type": ["string", "null"]},
          "stats": {
            "type": ["object", "null"],
            "additionalProperties": {"type": ["string", "number", "boolean"]}
          }
        }
      }
    }
  }
}`

const phrasesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "phrases"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "phrases": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

// Schemas validates raw content documents before they are decoded
type Schemas struct {
	rules   *jsonschema.Schema
	table   *jsonschema.Schema
	phrases *jsonschema.Schema
}

// NewSchemas compiles the embedded content schemas
func NewSchemas() (*Schemas, error) {
	compiler := jsonschema.NewCompiler()

	compile := func(name, text string) (*jsonschema.Schema, error) {
		url := schemaBaseURL + name
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s schema: %w", name, err)
		}
		if err := compiler.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("failed to add %s schema: %w", name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
		}
		return schema, nil
	}

	var s Schemas
	var err error
	if s.rules, err = compile("rules.json", rulesSchema); err != nil {
		return nil, err
	}
	if s.table, err = compile("table.json", tableSchema); err != nil {
		return nil, err
	}
	if s.phrases, err = compile("phrases.json", phrasesSchema); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateRules checks a rules document (YAML or JSON)
func (s *Schemas) ValidateRules(name string, data []byte) error {
	return validateDocument(s.rules, name, data)
}

// ValidateTable checks a single reference table document
func (s *Schemas) ValidateTable(name string, data []byte) error {
	return validateDocument(s.table, name, data)
}

// ValidatePhrases checks a phrase registry document
func (s *Schemas) ValidatePhrases(name string, data []byte) error {
	return validateDocument(s.phrases, name, data)
}

// validateDocument decodes YAML (a superset of JSON), re-encodes it as JSON so
// numbers and maps have the shapes the validator expects, and validates it.
func validateDocument(schema *jsonschema.Schema, name string, data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
	}
	return nil
}
