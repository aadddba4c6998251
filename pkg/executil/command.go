// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package executil runs the external formatter as a child process.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"
)

const waitDelay = 5 * time.Second

type options struct {
	stdin io.Reader
}

type Opt func(*options) error

// WithStdin feeds b to the standard input of the child process.
func WithStdin(b []byte) Opt {
	return func(o *options) error {
		if b != nil {
			o.stdin = bytes.NewReader(b)
		}
		return nil
	}
}

// Result holds the captured outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success returns true if the process exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError reports a nonzero exit status for callers that treat it as an error.
type ExitError struct {
	Path   string
	Result *Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%q exited with status %d", e.Path, e.Result.ExitCode)
	if stderr := strings.TrimSpace(string(e.Result.Stderr)); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExitError) ExitCode() int {
	return e.Result.ExitCode
}

// Err returns an *ExitError when the process exited nonzero.
func (r *Result) Err(path string) error {
	if r.Success() {
		return nil
	}
	return &ExitError{Path: path, Result: r}
}

// SpawnError is returned when the executable could not be started at all.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Run executes exe with args and waits for it to exit.
//
// A nonzero exit status is not an error: it is reported in Result.ExitCode.
// An error is returned only when the process could not be started (*SpawnError)
// or when ctx was canceled before the process finished.
// Run does not impose any timeout on its own.
func Run(ctx context.Context, exe string, args []string, opts ...Opt) (*Result, error) {
	var o options
	for _, f := range opts {
		if err := f(&o); err != nil {
			return nil, err
		}
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = o.stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may keep the output pipes open after cancellation.
	cmd.WaitDelay = waitDelay
	logrus.Debugf("Running %s", shellescape.QuoteCommand(append([]string{exe}, args...)))

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: exe, Err: err}
	}
	err := cmd.Wait()
	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s was interrupted: %w", exe, ctxErr)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, err
	}
	logrus.Debugf("%s exited with status %d", exe, res.ExitCode)
	return res, nil
}
