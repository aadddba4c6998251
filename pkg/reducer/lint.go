// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package reducer

import (
	"fmt"
	"strings"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/errkind"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
)

// Diagnostic is one lint finding.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   *int   `json:"column,omitempty"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ParseDiagnostics parses linter output lines of the form
//
//	<file>:<line>[:<column>]:<rule>:<severity>: <message>
//
// Lines that do not match are dropped.
func ParseDiagnostics(stdout string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(stdout, "\n") {
		if d, ok := parseDiagnostic(strings.TrimSpace(line)); ok {
			diags = append(diags, d)
		}
	}
	return diags
}

func parseDiagnostic(line string) (Diagnostic, bool) {
	var d Diagnostic
	header, message, ok := strings.Cut(line, ": ")
	if !ok {
		return d, false
	}
	d.Message = strings.TrimSpace(message)

	// The file may itself contain ':' (e.g. "C:\project\a.gd"), so the header is split from the right.
	rest, severity, ok := cutLast(header, ":")
	if !ok || severity == "" {
		return d, false
	}
	rest, rule, ok := cutLast(rest, ":")
	if !ok || rule == "" {
		return d, false
	}
	rest, last, ok := cutLast(rest, ":")
	if !ok {
		return d, false
	}
	n, ok := atoi(last)
	if !ok {
		return d, false
	}
	d.Line = n
	if file, lineNo, ok := cutLast(rest, ":"); ok {
		if l, ok := atoi(lineNo); ok && file != "" {
			col := n
			d.Line, d.Column, rest = l, &col, file
		}
	}
	if rest == "" {
		return d, false
	}
	d.File, d.Rule, d.Severity = rest, rule, severity
	return d, true
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// LintResult is the structured result of the lint tool.
type LintResult struct {
	OK bool `json:"ok"`
	// ExitCode is the first nonzero exit code among the runs, or 0.
	ExitCode             int          `json:"exit_code"`
	ProcessedCount       int          `json:"processed_count"`
	FailedCount          int          `json:"failed_count"`
	MaxFailures          int          `json:"max_failures"`
	FailuresTruncated    bool         `json:"failures_truncated"`
	Failures             []Failure    `json:"failures"`
	TotalDiagnostics     int          `json:"total_diagnostics"`
	ErrorCount           int          `json:"error_count"`
	WarningCount         int          `json:"warning_count"`
	MaxDiagnostics       int          `json:"max_diagnostics"`
	DiagnosticsTruncated bool         `json:"diagnostics_truncated"`
	Diagnostics          []Diagnostic `json:"diagnostics"`
	Rules                []string     `json:"rules,omitempty"`
	RawStdout            *string      `json:"raw_stdout,omitempty"`
	RawStderr            *string      `json:"raw_stderr,omitempty"`
	// ErrorKind and Error are set when the request failed before any target was run.
	ErrorKind errkind.Kind `json:"error_kind,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// LintRequestError is the result of a request that failed as a whole.
func LintRequestError(err error, caps Caps) *LintResult {
	return &LintResult{
		ExitCode:       -1,
		MaxFailures:    caps.MaxFailures,
		Failures:       []Failure{},
		MaxDiagnostics: caps.MaxDiagnostics,
		Diagnostics:    []Diagnostic{},
		ErrorKind:      errkind.Of(err),
		Error:          err.Error(),
	}
}

// ReduceLint aggregates per-target lint runs into one diagnostics sequence.
// A run that exits nonzero without a single parsable diagnostic is a failure of its target.
// With pretty set, the output is not parsable, so such a run is a failure only when
// it wrote to stderr.
func ReduceLint(outcomes []Outcome, caps Caps, pretty, rawOutput bool) *LintResult {
	var (
		failures       []Failure
		diags          []Diagnostic
		stdout, stderr strings.Builder
		exitCode       int
	)
	for _, o := range outcomes {
		if o.Err != nil || o.Exec == nil {
			if o.Err == nil {
				o.Err = fmt.Errorf("%s was not processed", o.File)
			}
			failures = append(failures, outcomeFailure(o))
			continue
		}
		stdout.Write(o.Exec.Stdout)
		stderr.Write(o.Exec.Stderr)
		parsed := ParseDiagnostics(string(o.Exec.Stdout))
		diags = append(diags, parsed...)
		if o.Exec.Success() {
			continue
		}
		if exitCode == 0 {
			exitCode = o.Exec.ExitCode
		}
		if len(parsed) > 0 || (pretty && strings.TrimSpace(string(o.Exec.Stderr)) == "") {
			continue
		}
		failures = append(failures, Failure{
			File:   o.File,
			Reason: FailureReason(string(o.Exec.Stdout), string(o.Exec.Stderr)),
		})
	}
	if exitCode == 0 && len(failures) > 0 {
		exitCode = -1
	}

	res := &LintResult{
		ExitCode:         exitCode,
		ProcessedCount:   len(outcomes),
		FailedCount:      len(failures),
		MaxFailures:      caps.MaxFailures,
		TotalDiagnostics: len(diags),
		MaxDiagnostics:   caps.MaxDiagnostics,
	}
	res.OK = exitCode == 0 && len(failures) == 0
	for _, d := range diags {
		switch d.Severity {
		case "error":
			res.ErrorCount++
		case "warning":
			res.WarningCount++
		}
	}
	res.Failures, res.FailuresTruncated = Cap(failures, caps.MaxFailures)
	if res.Failures == nil {
		res.Failures = []Failure{}
	}
	res.Diagnostics, res.DiagnosticsTruncated = Cap(diags, caps.MaxDiagnostics)
	if res.Diagnostics == nil {
		res.Diagnostics = []Diagnostic{}
	}
	if rawOutput {
		res.setRaw(stdout.String(), stderr.String())
	}
	return res
}

// ReduceRules builds the result of a rules-listing run.
func ReduceRules(exec *executil.Result, rawOutput bool) *LintResult {
	res := &LintResult{
		OK:          exec.Success(),
		ExitCode:    exec.ExitCode,
		Failures:    []Failure{},
		Diagnostics: []Diagnostic{},
		Rules:       ParseRules(string(exec.Stdout)),
	}
	if !exec.Success() {
		res.FailedCount = 1
		res.Failures = append(res.Failures, Failure{Reason: FailureReason(string(exec.Stdout), string(exec.Stderr))})
	}
	if rawOutput {
		res.setRaw(string(exec.Stdout), string(exec.Stderr))
	}
	return res
}

func (r *LintResult) setRaw(stdout, stderr string) {
	r.RawStdout = &stdout
	r.RawStderr = &stderr
}

// ParseRules extracts rule names from the output of "lint --list-rules".
// Headings (lines ending with ':') and list markers are dropped; when a line
// carries a description after the name, only the name is kept.
func ParseRules(stdout string) []string {
	var rules []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		name, _, _ := strings.Cut(line, " ")
		name = strings.TrimSuffix(name, ":")
		if name != "" {
			rules = append(rules, name)
		}
	}
	return rules
}

// Summary is the text content returned next to the structured result.
func (r *LintResult) Summary() string {
	if r.Error != "" {
		return fmt.Sprintf("Lint failed. %s: %s", r.ErrorKind, r.Error)
	}
	status := "completed successfully"
	if !r.OK {
		status = "failed"
	}
	s := fmt.Sprintf("Lint %s. diagnostics: total=%d, errors=%d, warnings=%d", status, r.TotalDiagnostics, r.ErrorCount, r.WarningCount)
	if r.Rules != nil {
		s += fmt.Sprintf(", rules=%d", len(r.Rules))
	}
	if r.FailedCount > 0 {
		s += fmt.Sprintf(", failed_count=%d", r.FailedCount)
	}
	return s
}
