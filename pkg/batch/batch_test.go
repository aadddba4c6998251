// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"gotest.tools/v3/assert"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
)

// fakeTool fails every file whose name contains "bad" and reports a lint
// warning for every file whose name contains "warn".
type fakeTool struct {
	locateErr error
	delay     time.Duration

	mu    sync.Mutex
	calls [][]string

	running, peak atomic.Int32
}

func (f *fakeTool) Locate(context.Context) (string, error) {
	if f.locateErr != nil {
		return "", f.locateErr
	}
	return "/opt/gdscript-formatter", nil
}

func (f *fakeTool) Run(ctx context.Context, exe string, args []string, _ []byte) (*executil.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	file := args[len(args)-1]
	switch {
	case args[0] == "lint" && strings.Contains(strings.Join(args, " "), "--list-rules"):
		return &executil.Result{Stdout: []byte("class-name\nmax-line-length\n")}, nil
	case strings.Contains(file, "spawn"):
		return nil, &executil.SpawnError{Path: exe, Err: errors.New("exec format error")}
	case strings.Contains(file, "bad"):
		stderr := fmt.Sprintf(`Formatting 1 file...Error: "Failed to format file %s: Topiary formatting failed"`, file)
		return &executil.Result{ExitCode: 1, Stderr: []byte(stderr)}, nil
	case args[0] == "lint" && strings.Contains(file, "warn"):
		return &executil.Result{ExitCode: 1, Stdout: []byte(file + ":3:max-line-length:warning: too long\n")}, nil
	default:
		return &executil.Result{Stdout: []byte("formatted " + file)}, nil
	}
}

func TestFormatContinuesOnFailure(t *testing.T) {
	for n := range 6 {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var targets []string
			for i := range n {
				name := fmt.Sprintf("ok%d.gd", i)
				if i%2 == 1 {
					name = fmt.Sprintf("bad%d.gd", i)
				}
				targets = append(targets, name)
			}
			e := &Executor{Tool: &fakeTool{}, Concurrency: 2}
			res, err := e.Format(context.Background(), targets, FormatOptions{Check: true}, reducer.DefaultCaps())
			assert.NilError(t, err)
			assert.Equal(t, res.ProcessedCount, n)
			assert.Equal(t, res.SucceededCount+res.FailedCount, n)
			assert.Equal(t, res.FailedCount, n/2)
			assert.Equal(t, res.OK, n/2 == 0)
		})
	}
}

func TestFormatSingleBadFile(t *testing.T) {
	e := &Executor{Tool: &fakeTool{}}
	res, err := e.Format(context.Background(), []string{"a_bad.gd"}, FormatOptions{}, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.Equal(t, res.OK, false)
	assert.Equal(t, res.ProcessedCount, 1)
	assert.Equal(t, res.FailedCount, 1)
	assert.DeepEqual(t, res.Failures, []reducer.Failure{{File: "a_bad.gd", Reason: "Topiary formatting failed"}})
}

func TestFormatIdempotent(t *testing.T) {
	e := &Executor{Tool: &fakeTool{}}
	targets := []string{"a.gd", "b_bad.gd", "c.gd"}
	first, err := e.Format(context.Background(), targets, FormatOptions{Check: true}, reducer.DefaultCaps())
	assert.NilError(t, err)
	second, err := e.Format(context.Background(), targets, FormatOptions{Check: true}, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.DeepEqual(t, first, second)
}

func TestFormatArgsAndOrder(t *testing.T) {
	tool := &fakeTool{}
	e := &Executor{Tool: tool, Concurrency: 1}
	indent := 2
	opts := FormatOptions{Check: true, Stdout: true, UseSpaces: true, IndentSize: &indent, ReorderCode: true, Safe: true}
	res, err := e.Format(context.Background(), []string{"a.gd", "b.gd"}, opts, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.DeepEqual(t, tool.calls, [][]string{
		{"--check", "--stdout", "--use-spaces", "--indent-size", "2", "--reorder-code", "--safe", "--", "a.gd"},
		{"--check", "--stdout", "--use-spaces", "--indent-size", "2", "--reorder-code", "--safe", "--", "b.gd"},
	})
	assert.DeepEqual(t, res.Outputs, []reducer.Output{
		{File: "a.gd", Content: "formatted a.gd"},
		{File: "b.gd", Content: "formatted b.gd"},
	})
}

func TestArgsEndOptionsBeforeFiles(t *testing.T) {
	assert.DeepEqual(t, FormatArgs(FormatOptions{}, "--check.gd"), []string{"--", "--check.gd"})
	assert.DeepEqual(t, LintArgs(LintOptions{Pretty: true}, "-v.gd"), []string{"lint", "--pretty", "--", "-v.gd"})
	assert.DeepEqual(t, LintArgs(LintOptions{ListRules: true}), []string{"lint", "--list-rules"})
}

func TestFormatConcurrencyLimit(t *testing.T) {
	tool := &fakeTool{delay: 20 * time.Millisecond}
	e := &Executor{Tool: tool, Concurrency: 3}
	targets := make([]string, 12)
	for i := range targets {
		targets[i] = fmt.Sprintf("f%d.gd", i)
	}
	res, err := e.Format(context.Background(), targets, FormatOptions{}, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.Equal(t, res.OK, true)
	assert.Assert(t, tool.peak.Load() <= 3, tool.peak.Load())
}

func TestFormatTimeout(t *testing.T) {
	e := &Executor{Tool: &fakeTool{delay: time.Second}, Timeout: 10 * time.Millisecond}
	res, err := e.Format(context.Background(), []string{"slow.gd"}, FormatOptions{}, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.Equal(t, res.FailedCount, 1)
	assert.Assert(t, strings.HasPrefix(res.Failures[0].Reason, "timed out after 10ms"), res.Failures[0].Reason)
}

func TestFormatCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &Executor{Tool: &fakeTool{}}
	res, err := e.Format(ctx, []string{"a.gd", "b.gd"}, FormatOptions{}, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.Equal(t, res.ProcessedCount, 2)
	assert.Equal(t, res.FailedCount, 2)
	assert.Equal(t, res.Failures[0].Reason, "not started: context canceled")
}

func TestFormatSpawnError(t *testing.T) {
	e := &Executor{Tool: &fakeTool{}}
	res, err := e.Format(context.Background(), []string{"spawn.gd", "ok.gd"}, FormatOptions{}, reducer.DefaultCaps())
	assert.NilError(t, err)
	assert.Equal(t, res.FailedCount, 1)
	assert.Equal(t, res.SucceededCount, 1)
}

func TestLocateError(t *testing.T) {
	e := &Executor{Tool: &fakeTool{locateErr: fmt.Errorf("%w: offline", errdefs.ErrUnavailable)}}
	_, err := e.Format(context.Background(), []string{"a.gd"}, FormatOptions{}, reducer.DefaultCaps())
	assert.Assert(t, errdefs.IsUnavailable(err))
	_, err = e.Lint(context.Background(), []string{"a.gd"}, LintOptions{}, reducer.DefaultCaps(), false)
	assert.Assert(t, errdefs.IsUnavailable(err))
}

func TestLint(t *testing.T) {
	tool := &fakeTool{}
	e := &Executor{Tool: tool, Concurrency: 1}
	maxLen := 100
	opts := LintOptions{DisableRules: "class-name,unused-variable", MaxLineLength: &maxLen, Pretty: true}
	res, err := e.Lint(context.Background(), []string{"a.gd", "warn.gd", "bad.gd"}, opts, reducer.DefaultCaps(), false)
	assert.NilError(t, err)
	assert.Equal(t, tool.calls[0][0], "lint")
	assert.DeepEqual(t, tool.calls[0], []string{"lint", "--disable", "class-name,unused-variable", "--max-line-length", "100", "--pretty", "--", "a.gd"})
	assert.Equal(t, res.OK, false)
	assert.Equal(t, res.ProcessedCount, 3)
	assert.Equal(t, res.FailedCount, 1)
	assert.Equal(t, res.TotalDiagnostics, 1)
	assert.Equal(t, res.WarningCount, 1)
	assert.Equal(t, res.Diagnostics[0].File, "warn.gd")
}

func TestLintListRules(t *testing.T) {
	tool := &fakeTool{}
	e := &Executor{Tool: tool}
	res, err := e.Lint(context.Background(), nil, LintOptions{ListRules: true}, reducer.DefaultCaps(), false)
	assert.NilError(t, err)
	assert.DeepEqual(t, tool.calls, [][]string{{"lint", "--list-rules"}})
	assert.DeepEqual(t, res.Rules, []string{"class-name", "max-line-length"})
	assert.Equal(t, res.OK, true)
}
