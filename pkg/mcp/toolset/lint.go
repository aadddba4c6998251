// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/batch"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/mcp/gdtools"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/ptr"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/targets"
)

func (ts *ToolSet) Lint(ctx context.Context,
	_ *mcp.CallToolRequest, args gdtools.LintParams,
) (*mcp.CallToolResult, *reducer.LintResult, error) {
	caps := ts.caps
	caps.MaxFailures = ptr.Deref(args.MaxFailures, caps.MaxFailures)
	caps.MaxDiagnostics = ptr.Deref(args.MaxDiagnostics, caps.MaxDiagnostics)

	res, err := ts.lint(ctx, args, caps)
	if err != nil {
		logrus.WithError(err).Warnf("%s failed", gdtools.Lint.Name)
		res = reducer.LintRequestError(err, caps)
	}
	return toolResult(res.Summary(), !res.OK, res), res, nil
}

func (ts *ToolSet) lint(ctx context.Context, args gdtools.LintParams, caps reducer.Caps) (*reducer.LintResult, error) {
	sel := selection(args.Selection)
	var files []string
	// Listing rules needs no targets.
	if !args.ListRules || !sel.IsEmpty() {
		var err error
		if files, err = targets.Select(sel); err != nil {
			return nil, err
		}
	}
	logrus.Debugf("linting %d file(s)", len(files))
	opts := batch.LintOptions{
		DisableRules:  args.DisableRules,
		MaxLineLength: args.MaxLineLength,
		ListRules:     args.ListRules,
		Pretty:        args.Pretty,
	}
	return ts.executor.Lint(ctx, files, opts, caps, args.IncludeRawOutput)
}
