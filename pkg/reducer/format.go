// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package reducer

import (
	"fmt"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/errkind"
)

// Output is the formatted content of a file when formatting to stdout.
type Output struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

// FormatResult is the structured result of the format tool.
type FormatResult struct {
	OK bool `json:"ok"`
	// ProcessedCount is the number of targets attempted.
	ProcessedCount    int       `json:"processed_count"`
	SucceededCount    int       `json:"succeeded_count"`
	FailedCount       int       `json:"failed_count"`
	MaxFailures       int       `json:"max_failures"`
	FailuresTruncated bool      `json:"failures_truncated"`
	Failures          []Failure `json:"failures"`
	Outputs           []Output  `json:"outputs,omitempty"`
	OutputsTruncated  bool      `json:"outputs_truncated,omitempty"`
	// ErrorKind and Error are set when the request failed before any target was run.
	ErrorKind errkind.Kind `json:"error_kind,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// FormatRequestError is the result of a request that failed as a whole.
func FormatRequestError(err error, caps Caps) *FormatResult {
	return &FormatResult{
		MaxFailures: caps.MaxFailures,
		Failures:    []Failure{},
		ErrorKind:   errkind.Of(err),
		Error:       err.Error(),
	}
}

// ReduceFormat aggregates per-target outcomes of the format tool.
// A target fails when its process did not run or exited nonzero.
// When withOutputs is set, the stdout of successful runs is returned as Outputs.
func ReduceFormat(outcomes []Outcome, caps Caps, withOutputs bool) *FormatResult {
	var failures []Failure
	var outputs []Output
	for _, o := range outcomes {
		switch {
		case o.Err != nil || o.Exec == nil:
			if o.Err == nil {
				o.Err = fmt.Errorf("%s was not processed", o.File)
			}
			failures = append(failures, outcomeFailure(o))
		case !o.Exec.Success():
			failures = append(failures, Failure{
				File:   o.File,
				Reason: FailureReason(string(o.Exec.Stdout), string(o.Exec.Stderr)),
			})
		case withOutputs:
			outputs = append(outputs, Output{File: o.File, Content: string(o.Exec.Stdout)})
		}
	}
	res := &FormatResult{
		OK:             len(failures) == 0,
		ProcessedCount: len(outcomes),
		SucceededCount: len(outcomes) - len(failures),
		FailedCount:    len(failures),
		MaxFailures:    caps.MaxFailures,
	}
	res.Failures, res.FailuresTruncated = Cap(failures, caps.MaxFailures)
	if res.Failures == nil {
		res.Failures = []Failure{}
	}
	if withOutputs {
		res.Outputs, res.OutputsTruncated = Cap(outputs, caps.MaxOutputs)
	}
	return res
}

// Summary is the text content returned next to the structured result.
func (r *FormatResult) Summary() string {
	if r.Error != "" {
		return fmt.Sprintf("Format failed. %s: %s", r.ErrorKind, r.Error)
	}
	if r.OK {
		return fmt.Sprintf("Format ok. processed_count=%d.", r.ProcessedCount)
	}
	return fmt.Sprintf("Format failed. failed_count=%d.", r.FailedCount)
}
