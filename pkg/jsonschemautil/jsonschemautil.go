// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package jsonschemautil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	jsonschema2 "github.com/santhosh-tekuri/jsonschema/v6"
)

// Reflect generates an inline schema for T.
// Unknown properties are rejected, and fields without `omitempty` are required.
func Reflect[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.ReflectFromType(reflect.TypeFor[T]())
}

// Compile compiles an in-memory schema document. name is only used in error messages.
func Compile(name string, schema []byte) (*jsonschema2.Schema, error) {
	doc, err := jsonschema2.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %q: %w", name, err)
	}
	compiler := jsonschema2.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

// CompileReflected compiles the schema generated for T, returning both the JSON text and the compiled form.
func CompileReflected[T any](name string) (json.RawMessage, *jsonschema2.Schema, error) {
	j, err := json.Marshal(Reflect[T]())
	if err != nil {
		return nil, nil, err
	}
	compiled, err := Compile(name, j)
	if err != nil {
		return nil, nil, err
	}
	return j, compiled, nil
}

// ValidateJSON validates a JSON instance.
func ValidateJSON(schema *jsonschema2.Schema, instance []byte) error {
	v, err := jsonschema2.UnmarshalJSON(bytes.NewReader(instance))
	if err != nil {
		return err
	}
	return schema.Validate(v)
}

// ValidateYAML validates a YAML instance.
func ValidateYAML(schema *jsonschema2.Schema, instance []byte) error {
	var y any
	if err := yaml.Unmarshal(instance, &y); err != nil {
		return err
	}
	if y == nil {
		// empty document
		y = map[string]any{}
	}
	return schema.Validate(y)
}
