// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package gdtools defines the MCP tools for formatting and linting GDScript files
// with the GDQuest GDScript formatter.
//
// Both tools accept either explicit files or a directory scan:
//   - files: paths of .gd files, used as given
//   - dir: a root directory, scanned with include (default "**/*.gd") and exclude globs
//
// A target that fails to format or lint never aborts the others.
// The structured result reports the true counts, while the lists of failures
// and diagnostics are capped.
package gdtools

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Selection is embedded in the params of every tool.
type Selection struct {
	Files   []string `json:"files,omitempty" jsonschema:"Paths to .gd files."`
	Dir     string   `json:"dir,omitempty" jsonschema:"Root directory to scan for files."`
	Include []string `json:"include,omitempty" jsonschema:"Glob patterns relative to dir to include (default: **/*.gd)."`
	Exclude []string `json:"exclude,omitempty" jsonschema:"Glob patterns relative to dir to exclude. Exclusion wins over inclusion."`
}

var Format = &mcp.Tool{
	Name:        "gdscript_format",
	Title:       "Format GDScript files",
	Description: "Format one or more GDScript files using the GDQuest formatter binary.",
	InputSchema: inputSchema[FormatParams](map[string]float64{"indent_size": 1, "max_failures": 0}),
}

type FormatParams struct {
	Selection
	Check       bool `json:"check,omitempty" jsonschema:"Check formatting only; do not modify files."`
	Stdout      bool `json:"stdout,omitempty" jsonschema:"Return the formatted output instead of modifying files."`
	UseSpaces   bool `json:"use_spaces,omitempty" jsonschema:"Use spaces for indentation."`
	IndentSize  *int `json:"indent_size,omitempty" jsonschema:"Number of spaces for indentation when use_spaces is true."`
	ReorderCode bool `json:"reorder_code,omitempty" jsonschema:"Reorder code declarations according to the style guide."`
	Safe        bool `json:"safe,omitempty" jsonschema:"Enable safe mode."`
	// ContinueOnError is accepted for compatibility only. Formatting always continues per file.
	ContinueOnError bool `json:"continue_on_error,omitempty" jsonschema:"Deprecated compatibility flag. Formatting always continues per file."`
	MaxFailures     *int `json:"max_failures,omitempty" jsonschema:"Maximum number of failures to return."`
}

var Lint = &mcp.Tool{
	Name:        "gdscript_lint",
	Title:       "Lint GDScript files",
	Description: "Lint GDScript files using the GDQuest formatter binary.",
	InputSchema: inputSchema[LintParams](map[string]float64{"max_line_length": 1, "max_diagnostics": 0, "max_failures": 0}),
}

type LintParams struct {
	Selection
	DisableRules     string `json:"disable_rules,omitempty" jsonschema:"Comma-separated lint rule names to disable."`
	MaxLineLength    *int   `json:"max_line_length,omitempty" jsonschema:"Maximum allowed line length."`
	ListRules        bool   `json:"list_rules,omitempty" jsonschema:"List available lint rules. Files are not required."`
	Pretty           bool   `json:"pretty,omitempty" jsonschema:"Use pretty lint output."`
	IncludeRawOutput bool   `json:"include_raw_output,omitempty" jsonschema:"Include raw stdout and stderr in the structured result."`
	MaxDiagnostics   *int   `json:"max_diagnostics,omitempty" jsonschema:"Maximum number of diagnostics to return."`
	MaxFailures      *int   `json:"max_failures,omitempty" jsonschema:"Maximum number of failures to return."`
}

// inputSchema infers the schema of T and sets a minimum on the named integer properties.
func inputSchema[T any](minimums map[string]float64) *jsonschema.Schema {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	for name, m := range minimums {
		s.Properties[name].Minimum = &m
	}
	return s
}
