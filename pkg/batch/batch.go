// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch runs the formatter over a target set, one process per target,
// and never lets a single target abort the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
)

// Executor drives a Tool over target sets.
type Executor struct {
	Tool Tool
	// Concurrency bounds the number of simultaneous processes. Defaults to GOMAXPROCS.
	Concurrency int
	// Timeout bounds each process. Zero disables the timeout.
	Timeout time.Duration
}

func (e *Executor) concurrency() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Format formats every target independently.
// The returned error is non-nil only when the executable could not be located;
// per-target failures are part of the result.
func (e *Executor) Format(ctx context.Context, targets []string, opts FormatOptions, caps reducer.Caps) (*reducer.FormatResult, error) {
	exe, err := e.Tool.Locate(ctx)
	if err != nil {
		return nil, err
	}
	outcomes := e.runAll(ctx, exe, targets, func(file string) []string {
		return FormatArgs(opts, file)
	})
	return reducer.ReduceFormat(outcomes, caps, opts.Stdout), nil
}

// Lint lints every target independently and merges the diagnostics in target order.
// With ListRules set, the linter is run once without targets to list its rules.
func (e *Executor) Lint(ctx context.Context, targets []string, opts LintOptions, caps reducer.Caps, rawOutput bool) (*reducer.LintResult, error) {
	exe, err := e.Tool.Locate(ctx)
	if err != nil {
		return nil, err
	}
	if opts.ListRules {
		rctx, cancel := e.withTimeout(ctx)
		defer cancel()
		res, err := e.Tool.Run(rctx, exe, LintArgs(opts), nil)
		if err != nil {
			return nil, err
		}
		return reducer.ReduceRules(res, rawOutput), nil
	}
	outcomes := e.runAll(ctx, exe, targets, func(file string) []string {
		return LintArgs(opts, file)
	})
	return reducer.ReduceLint(outcomes, caps, opts.Pretty, rawOutput), nil
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Timeout)
}

// runAll runs one process per target. outcomes[i] always belongs to targets[i].
// Targets not started before ctx is done are recorded with the context error.
func (e *Executor) runAll(ctx context.Context, exe string, targets []string, args func(file string) []string) []reducer.Outcome {
	outcomes := make([]reducer.Outcome, len(targets))
	var g errgroup.Group
	g.SetLimit(e.concurrency())
	for i, file := range targets {
		outcomes[i].File = file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = fmt.Errorf("not started: %w", err)
				return nil
			}
			rctx, cancel := e.withTimeout(ctx)
			defer cancel()
			start := time.Now()
			res, err := e.Tool.Run(rctx, exe, args(file), nil)
			if err != nil && ctx.Err() == nil && errors.Is(rctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("timed out after %s: %w", e.Timeout, context.DeadlineExceeded)
			}
			outcomes[i].Exec, outcomes[i].Err = res, err
			logrus.WithField("file", file).Debugf("Processed in %s (err=%v)", time.Since(start).Round(time.Millisecond), err)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
