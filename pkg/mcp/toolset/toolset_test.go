// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/batch"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/errkind"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/mcp/gdtools"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
)

// fakeFormatter fails every file whose name contains "bad" and reports a
// lint warning for every file whose name contains "warn".
type fakeFormatter struct {
	locateErr error
}

func (f *fakeFormatter) Locate(context.Context) (string, error) {
	if f.locateErr != nil {
		return "", f.locateErr
	}
	return "/opt/gdscript-formatter", nil
}

func (f *fakeFormatter) Run(_ context.Context, _ string, args []string, _ []byte) (*executil.Result, error) {
	if slices.Contains(args, "--list-rules") {
		return &executil.Result{Stdout: []byte("class-name\nmax-line-length\n")}, nil
	}
	file := args[len(args)-1]
	switch {
	case strings.Contains(file, "bad"):
		stderr := fmt.Sprintf(`Error: "Failed to format file %s: unexpected token"`, file)
		return &executil.Result{ExitCode: 1, Stderr: []byte(stderr)}, nil
	case args[0] == "lint" && strings.Contains(file, "warn"):
		return &executil.Result{Stdout: []byte(file + ":3:max-line-length:warning: too long\n")}, nil
	default:
		return &executil.Result{}, nil
	}
}

func newToolSet(t *testing.T, tool batch.Tool) *ToolSet {
	t.Helper()
	ts, err := New(&batch.Executor{Tool: tool, Concurrency: 2}, reducer.DefaultCaps())
	assert.NilError(t, err)
	return ts
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	assert.Equal(t, len(res.Content), 1)
	c, ok := res.Content[0].(*mcp.TextContent)
	assert.Assert(t, ok, "unexpected content %T", res.Content[0])
	return c.Text
}

func project(t *testing.T) *fs.Dir {
	t.Helper()
	return fs.NewDir(t, "project",
		fs.WithFile("a.gd", "extends Node\n"),
		fs.WithFile("bad.gd", "extends\n"),
		fs.WithFile("warn.gd", "extends Node\n"),
		fs.WithFile("readme.md", ""),
		fs.WithDir("addons", fs.WithDir("vendor", fs.WithFile("v.gd", ""))),
	)
}

func TestFormat(t *testing.T) {
	dir := project(t)
	ts := newToolSet(t, &fakeFormatter{})

	args := gdtools.FormatParams{
		Selection: gdtools.Selection{Dir: dir.Path(), Exclude: []string{"addons/**"}},
	}
	res, out, err := ts.Format(context.Background(), nil, args)
	assert.NilError(t, err)
	assert.Equal(t, res.IsError, true)
	assert.Equal(t, text(t, res), "Format failed. failed_count=1.")
	assert.Equal(t, out.ProcessedCount, 3)
	assert.Equal(t, out.SucceededCount, 2)
	assert.Equal(t, out.FailedCount, 1)
	assert.Equal(t, len(out.Failures), 1)
	assert.Equal(t, out.Failures[0].File, filepath.Join(dir.Path(), "bad.gd"))
	assert.Equal(t, out.Failures[0].Reason, "unexpected token")
}

func TestFormatMaxFailures(t *testing.T) {
	dir := project(t)
	ts := newToolSet(t, &fakeFormatter{})

	zero := 0
	args := gdtools.FormatParams{
		Selection:   gdtools.Selection{Files: []string{filepath.Join(dir.Path(), "bad.gd")}},
		MaxFailures: &zero,
	}
	_, out, err := ts.Format(context.Background(), nil, args)
	assert.NilError(t, err)
	assert.Equal(t, out.FailedCount, 1)
	assert.Equal(t, out.MaxFailures, 0)
	assert.Equal(t, len(out.Failures), 0)
	assert.Equal(t, out.FailuresTruncated, true)
}

func TestFormatRequestErrors(t *testing.T) {
	dir := project(t)
	tests := []struct {
		name     string
		tool     *fakeFormatter
		args     gdtools.FormatParams
		expected errkind.Kind
	}{
		{
			name:     "no selection",
			tool:     &fakeFormatter{},
			expected: errkind.InvalidRequest,
		},
		{
			name:     "exclude without dir",
			tool:     &fakeFormatter{},
			args:     gdtools.FormatParams{Selection: gdtools.Selection{Files: []string{"a.gd"}, Exclude: []string{"x"}}},
			expected: errkind.InvalidRequest,
		},
		{
			name:     "dir is missing",
			tool:     &fakeFormatter{},
			args:     gdtools.FormatParams{Selection: gdtools.Selection{Dir: filepath.Join(dir.Path(), "missing")}},
			expected: errkind.InvalidRequest,
		},
		{
			name:     "offline",
			tool:     &fakeFormatter{locateErr: fmt.Errorf("failed to query the release index: %w", errdefs.ErrUnavailable)},
			args:     gdtools.FormatParams{Selection: gdtools.Selection{Dir: dir.Path()}},
			expected: errkind.NetworkError,
		},
		{
			name:     "unsupported platform",
			tool:     &fakeFormatter{locateErr: fmt.Errorf("plan9/mips: %w", errdefs.ErrNotImplemented)},
			args:     gdtools.FormatParams{Selection: gdtools.Selection{Dir: dir.Path()}},
			expected: errkind.UnsupportedPlatform,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newToolSet(t, tc.tool)
			res, out, err := ts.Format(context.Background(), nil, tc.args)
			assert.NilError(t, err)
			assert.Equal(t, res.IsError, true)
			assert.Equal(t, out.OK, false)
			assert.Equal(t, out.ErrorKind, tc.expected)
			assert.Assert(t, out.Error != "")
			assert.Assert(t, strings.HasPrefix(text(t, res), "Format failed. "+string(tc.expected)+": "))
		})
	}
}

func TestLint(t *testing.T) {
	dir := project(t)
	ts := newToolSet(t, &fakeFormatter{})

	args := gdtools.LintParams{
		Selection:        gdtools.Selection{Files: []string{filepath.Join(dir.Path(), "a.gd"), filepath.Join(dir.Path(), "warn.gd")}},
		IncludeRawOutput: true,
	}
	res, out, err := ts.Lint(context.Background(), nil, args)
	assert.NilError(t, err)
	assert.Equal(t, res.IsError, false)
	assert.Equal(t, out.ProcessedCount, 2)
	assert.Equal(t, out.TotalDiagnostics, 1)
	assert.Equal(t, out.WarningCount, 1)
	assert.Equal(t, out.Diagnostics[0].Rule, "max-line-length")
	assert.Equal(t, out.Diagnostics[0].Line, 3)
	assert.Assert(t, out.RawStdout != nil)
	assert.Equal(t, text(t, res), "Lint completed successfully. diagnostics: total=1, errors=0, warnings=1")
}

func TestLintListRules(t *testing.T) {
	ts := newToolSet(t, &fakeFormatter{})

	res, out, err := ts.Lint(context.Background(), nil, gdtools.LintParams{ListRules: true})
	assert.NilError(t, err)
	assert.Equal(t, res.IsError, false)
	assert.DeepEqual(t, out.Rules, []string{"class-name", "max-line-length"})
	assert.Assert(t, out.RawStdout == nil)
}

func TestLintRequestError(t *testing.T) {
	ts := newToolSet(t, &fakeFormatter{})

	res, out, err := ts.Lint(context.Background(), nil, gdtools.LintParams{})
	assert.NilError(t, err)
	assert.Equal(t, res.IsError, true)
	assert.Equal(t, out.ExitCode, -1)
	assert.Equal(t, out.ErrorKind, errkind.InvalidRequest)
	assert.Equal(t, out.MaxDiagnostics, reducer.DefaultMaxDiagnostics)
}

func connect(t *testing.T, ts *ToolSet) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0.0.0"}, nil)
	assert.NilError(t, ts.RegisterServer(server))
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	assert.NilError(t, err)
	client := mcp.NewClient(&mcp.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	assert.NilError(t, err)
	t.Cleanup(func() {
		assert.NilError(t, clientSession.Close())
		assert.NilError(t, serverSession.Wait())
	})
	return clientSession
}

func TestRegisterServer(t *testing.T) {
	session := connect(t, newToolSet(t, &fakeFormatter{}))
	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	assert.NilError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.Assert(t, tool.InputSchema != nil)
		assert.Assert(t, tool.OutputSchema != nil)
	}
	assert.DeepEqual(t, names, []string{"gdscript_format", "gdscript_lint"})
}

func TestCallToolValidatesArguments(t *testing.T) {
	session := connect(t, newToolSet(t, &fakeFormatter{}))
	ctx := context.Background()

	_, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      gdtools.Format.Name,
		Arguments: map[string]any{"files": []string{"a.gd"}, "indent_size": 0},
	})
	assert.ErrorContains(t, err, "indent_size")

	_, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      gdtools.Lint.Name,
		Arguments: map[string]any{"files": "a.gd"},
	})
	assert.ErrorContains(t, err, "files")

	_, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      gdtools.Lint.Name,
		Arguments: map[string]any{"list_rules": true, "verbose": true},
	})
	assert.ErrorContains(t, err, "verbose")
}

func TestCallTool(t *testing.T) {
	dir := project(t)
	session := connect(t, newToolSet(t, &fakeFormatter{}))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      gdtools.Lint.Name,
		Arguments: map[string]any{"files": []string{filepath.Join(dir.Path(), "warn.gd")}},
	})
	assert.NilError(t, err)
	assert.Equal(t, res.IsError, false)
	assert.Equal(t, text(t, res), "Lint completed successfully. diagnostics: total=1, errors=0, warnings=1")

	var out reducer.LintResult
	b, err := json.Marshal(res.StructuredContent)
	assert.NilError(t, err)
	assert.NilError(t, json.Unmarshal(b, &out))
	assert.Equal(t, out.OK, true)
	assert.Equal(t, out.WarningCount, 1)
	assert.Equal(t, out.Diagnostics[0].Rule, "max-line-length")
}
