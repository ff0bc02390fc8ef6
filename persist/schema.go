package persist

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchemaJSON describes the shape DecodeJSON requires before it
// even attempts to unmarshal a payload into an Envelope, following the
// teacher's core/types.Validator: compile a JSON Schema once, reuse the
// compiled validator, and reject a structurally wrong payload with a
// schema error instead of a confusing unmarshal panic deep in FromWire.
const envelopeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "root"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "root": {"$ref": "#/$defs/term"}
  },
  "$defs": {
    "term": {
      "type": "object",
      "required": ["kind"],
      "properties": {
        "kind": {"type": "string", "enum": ["variable", "application"]},
        "type": {"type": "string"},
        "query": {
          "type": "object",
          "properties": {
            "agent": {"type": "string"},
            "counter": {"type": "integer"},
            "has_counter": {"type": "boolean"}
          }
        },
        "function": {"type": "string"},
        "args": {
          "type": "array",
          "items": {"$ref": "#/$defs/term"}
        }
      },
      "allOf": [
        {
          "if": {"properties": {"kind": {"const": "variable"}}},
          "then": {"required": ["type"]}
        },
        {
          "if": {"properties": {"kind": {"const": "application"}}},
          "then": {"required": ["function"]}
        }
      ]
    }
  }
}`

const envelopeSchemaURL = "symterm://persist/envelope.json"

var (
	compileOnce      sync.Once
	compiledSchema   *jsonschema.Schema
	compileSchemaErr error
)

func envelopeSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchemaJSON)); err != nil {
			compileSchemaErr = fmt.Errorf("persist: adding schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile(envelopeSchemaURL)
		if err != nil {
			compileSchemaErr = fmt.Errorf("persist: compiling schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compileSchemaErr
}

// ValidateEnvelope checks raw JSON bytes against the envelope schema
// before any symbol rebinding is attempted.
func ValidateEnvelope(data []byte) error {
	schema, err := envelopeSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("persist: parsing JSON for validation: %w", err)
	}
	return schema.Validate(v)
}
