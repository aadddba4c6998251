// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package yamlutil

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/google/yamlfmt"
	"github.com/google/yamlfmt/formatters/basic"
)

// Marshal marshals v and normalizes the layout of the result,
// so that generated files look the same as hand-written ones.
func Marshal(v any) ([]byte, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	f, err := newFormatter()
	if err != nil {
		return nil, err
	}
	return f.Format(b)
}

func newFormatter() (yamlfmt.Formatter, error) {
	factory := basic.BasicFormatterFactory{}
	config := map[string]interface{}{
		"indentless_arrays":  true,
		"line_ending":        "lf", // prefer LF even on Windows
		"retain_line_breaks": true,
	}
	formatter, err := factory.NewFormatter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create a YAML formatter: %w", err)
	}
	return formatter, nil
}
