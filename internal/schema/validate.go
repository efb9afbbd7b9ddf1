package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidDocument is the mark of every error caused by a malformed schema document.
var ErrInvalidDocument = errors.New("invalid schema document")

const documentSchemaURL = "vstutils://openapi-document.json"

// documentSchema describes the subset of the document the runtime relies on.
const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["info", "paths", "definitions"],
	"properties": {
		"info": {
			"type": "object",
			"required": ["version"],
			"properties": {
				"title": {"type": "string"},
				"version": {"type": "string"},
				"x-settings": {"type": "object"},
				"x-user-id": {"type": ["integer", "string", "null"]}
			}
		},
		"host": {"type": "string"},
		"basePath": {"type": "string"},
		"schemes": {"type": "array", "items": {"type": "string"}},
		"paths": {
			"type": "object",
			"additionalProperties": {"type": "object"}
		},
		"definitions": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"required": {"type": "array", "items": {"type": "string"}},
					"properties": {
						"type": "object",
						"additionalProperties": {"$ref": "#/definitions/property"}
					}
				}
			}
		}
	},
	"definitions": {
		"property": {
			"type": "object",
			"properties": {
				"type": {"type": "string"},
				"format": {"type": "string"},
				"$ref": {"type": "string"},
				"minLength": {"type": "integer", "minimum": 0},
				"maxLength": {"type": "integer", "minimum": 0},
				"minimum": {"type": "number"},
				"maximum": {"type": "number"},
				"enum": {"type": "array"},
				"additionalProperties": {
					"type": ["object", "boolean"],
					"properties": {
						"field": {"type": ["string", "array"], "items": {"type": "string"}},
						"types": {"type": "object", "additionalProperties": {"type": "string"}},
						"choices": {"type": "object", "additionalProperties": {"type": "array"}},
						"list_paths": {"type": "array", "items": {"type": "string"}},
						"value_field": {"type": "string"},
						"view_field": {"type": "string"}
					}
				}
			}
		}
	}
}`

// Validator checks raw documents before they are decoded.
type Validator struct {
	schema *js.Schema
}

// NewValidator compiles the document schema.
func NewValidator() (*Validator, error) {
	compiler := js.NewCompiler()
	if err := compiler.AddResource(documentSchemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("error adding document schema: %w", err)
	}
	schema, err := compiler.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("error compiling document schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns an error marked with ErrInvalidDocument when data does not
// describe a usable document.
func (v *Validator) Validate(data []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return errors.Mark(errors.Wrap(err, "error decoding schema document"), ErrInvalidDocument)
	}
	if err := v.schema.Validate(doc); err != nil {
		return errors.Mark(errors.Wrap(err, "schema document failed validation"), ErrInvalidDocument)
	}
	return nil
}

// Parse validates and decodes a schema document.
func (v *Validator) Parse(data []byte) (*Document, error) {
	if err := v.Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "error decoding schema document"), ErrInvalidDocument)
	}
	return &doc, nil
}

// Parse validates and decodes a schema document with a fresh validator.
func Parse(data []byte) (*Document, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return v.Parse(data)
}
