package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// workloadSchema is the structural schema for workload files.
const workloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "events"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "mode": {"enum": ["ticks", "nanoseconds", "ns"]},
    "workers": {"type": "integer", "minimum": 1, "maximum": 1024},
    "ring": {"type": "integer", "minimum": 0},
    "events": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/event"}
    }
  },
  "definitions": {
    "event": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "iterations": {"type": "integer", "minimum": 1},
        "sleep": {"type": ["string", "integer"]},
        "spin": {"type": "integer", "minimum": 0},
        "fail_every": {"type": "integer", "minimum": 0},
        "nested": {
          "type": "array",
          "items": {"$ref": "#/definitions/event"}
        }
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("workload.json", strings.NewReader(workloadSchema)); err != nil {
			compileErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("workload.json")
	})
	return compiledSchema, compileErr
}

// SchemaErrors is a collection of schema violations.
type SchemaErrors []error

// Error implements the error interface for SchemaErrors
func (se SchemaErrors) Error() string {
	var sb strings.Builder
	for i, err := range se {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// validateSchema checks a JSON document against the workload schema.
func validateSchema(doc []byte) SchemaErrors {
	s, err := schema()
	if err != nil {
		return SchemaErrors{err}
	}

	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return SchemaErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	if err := s.Validate(v); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return extractValidationErrors(ve)
		}
		return SchemaErrors{err}
	}
	return nil
}

// extractValidationErrors flattens the leaf causes of a validation error.
func extractValidationErrors(err *jsonschema.ValidationError) SchemaErrors {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return SchemaErrors{fmt.Errorf("%s: %s", loc, err.Message)}
	}

	var errs SchemaErrors
	for _, cause := range err.Causes {
		errs = append(errs, extractValidationErrors(cause)...)
	}
	return errs
}
