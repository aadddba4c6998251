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

func (ts *ToolSet) Format(ctx context.Context,
	_ *mcp.CallToolRequest, args gdtools.FormatParams,
) (*mcp.CallToolResult, *reducer.FormatResult, error) {
	caps := ts.caps
	caps.MaxFailures = ptr.Deref(args.MaxFailures, caps.MaxFailures)
	if args.ContinueOnError {
		logrus.Debug("continue_on_error is deprecated and has no effect")
	}

	res, err := ts.format(ctx, args, caps)
	if err != nil {
		logrus.WithError(err).Warnf("%s failed", gdtools.Format.Name)
		res = reducer.FormatRequestError(err, caps)
	}
	return toolResult(res.Summary(), !res.OK, res), res, nil
}

func (ts *ToolSet) format(ctx context.Context, args gdtools.FormatParams, caps reducer.Caps) (*reducer.FormatResult, error) {
	files, err := targets.Select(selection(args.Selection))
	if err != nil {
		return nil, err
	}
	logrus.Debugf("formatting %d file(s)", len(files))
	opts := batch.FormatOptions{
		Check:       args.Check,
		Stdout:      args.Stdout,
		UseSpaces:   args.UseSpaces,
		IndentSize:  args.IndentSize,
		ReorderCode: args.ReorderCode,
		Safe:        args.Safe,
	}
	return ts.executor.Format(ctx, files, opts, caps)
}
