// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import "strconv"

// FormatOptions are passed through to the formatter as flags.
type FormatOptions struct {
	Check       bool
	Stdout      bool
	UseSpaces   bool
	IndentSize  *int
	ReorderCode bool
	Safe        bool
}

// FormatArgs returns the formatter arguments for files.
func FormatArgs(o FormatOptions, files ...string) []string {
	var args []string
	if o.Check {
		args = append(args, "--check")
	}
	if o.Stdout {
		args = append(args, "--stdout")
	}
	if o.UseSpaces {
		args = append(args, "--use-spaces")
	}
	if o.IndentSize != nil {
		args = append(args, "--indent-size", strconv.Itoa(*o.IndentSize))
	}
	if o.ReorderCode {
		args = append(args, "--reorder-code")
	}
	if o.Safe {
		args = append(args, "--safe")
	}
	return appendFiles(args, files)
}

// LintOptions are passed through to "gdscript-formatter lint" as flags.
type LintOptions struct {
	// DisableRules is a comma-separated list of rule names.
	DisableRules  string
	MaxLineLength *int
	ListRules     bool
	Pretty        bool
}

// LintArgs returns the linter arguments for files.
func LintArgs(o LintOptions, files ...string) []string {
	args := []string{"lint"}
	if o.DisableRules != "" {
		args = append(args, "--disable", o.DisableRules)
	}
	if o.MaxLineLength != nil {
		args = append(args, "--max-line-length", strconv.Itoa(*o.MaxLineLength))
	}
	if o.ListRules {
		args = append(args, "--list-rules")
	}
	if o.Pretty {
		args = append(args, "--pretty")
	}
	return appendFiles(args, files)
}

// appendFiles ends the options with "--" so that a file named like a flag stays a file.
func appendFiles(args, files []string) []string {
	if len(files) == 0 {
		return args
	}
	return append(append(args, "--"), files...)
}
