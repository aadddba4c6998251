// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package reducer turns raw formatter runs into bounded, structured tool results.
//
// Counts always reflect every target and every diagnostic. Only the returned
// arrays are capped, and each cap has its own truncation flag.
package reducer

import (
	"strconv"
	"strings"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
)

const (
	DefaultMaxFailures    = 20
	DefaultMaxDiagnostics = 500
	DefaultMaxOutputs     = 20

	// UnknownReason is reported when a failing run printed nothing useful.
	UnknownReason = "Unknown formatting error"
)

// Outcome is what happened to one target.
type Outcome struct {
	File string
	// Exec is nil when the process never ran to completion.
	Exec *executil.Result
	// Err is set when the process could not be started or was interrupted.
	Err error
}

// Caps bound the arrays of a result.
type Caps struct {
	MaxFailures    int
	MaxDiagnostics int
	MaxOutputs     int
}

// DefaultCaps returns the caps used when a request does not set them.
func DefaultCaps() Caps {
	return Caps{
		MaxFailures:    DefaultMaxFailures,
		MaxDiagnostics: DefaultMaxDiagnostics,
		MaxOutputs:     DefaultMaxOutputs,
	}
}

// Failure is a target that could not be formatted or linted.
type Failure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Cap returns at most limit items, and whether any item was dropped.
func Cap[T any](items []T, limit int) ([]T, bool) {
	limit = max(limit, 0)
	if len(items) <= limit {
		return items, false
	}
	return items[:limit], true
}

// NormalizeReason collapses whitespace. An empty reason becomes UnknownReason.
func NormalizeReason(s string) string {
	normalized := strings.Join(strings.Fields(s), " ")
	if normalized == "" {
		return UnknownReason
	}
	return normalized
}

// FailureReason extracts the most specific reason from the output of a failed run.
//
// The formatter reports errors on stderr as
//
//	Error: "Failed to format file /tmp/bad.gd: Topiary formatting failed"
//
// from which "Topiary formatting failed" is returned.
func FailureReason(stdout, stderr string) string {
	lines := strings.Split(stderr, "\n")
	for _, line := range lines {
		if _, quoted, ok := strings.Cut(line, `Error: "`); ok {
			quoted = strings.TrimRight(strings.TrimRight(quoted, "\r"), `"`)
			if _, reason, ok := strings.Cut(quoted, ": "); ok {
				return NormalizeReason(reason)
			}
			return NormalizeReason(quoted)
		}
	}
	for _, line := range lines {
		if _, rest, ok := strings.Cut(line, "Failed to format file "); ok {
			if _, reason, ok := strings.Cut(rest, ":"); ok {
				return NormalizeReason(strings.Trim(strings.TrimSpace(reason), `"`))
			}
		}
	}
	if reason := NormalizeReason(stderr); reason != UnknownReason {
		return reason
	}
	return NormalizeReason(stdout)
}

// outcomeFailure returns the failure of an outcome that did not run to completion.
func outcomeFailure(o Outcome) Failure {
	return Failure{File: o.File, Reason: NormalizeReason(o.Err.Error())}
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 0
}
