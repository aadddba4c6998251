// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/batch"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/mcp/gdtools"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/targets"
)

// New returns a ToolSet. caps holds the defaults for requests that do not set their own.
func New(executor *batch.Executor, caps reducer.Caps) (*ToolSet, error) {
	ts := &ToolSet{
		executor: executor,
		caps:     caps,
	}
	return ts, nil
}

type ToolSet struct {
	executor *batch.Executor
	caps     reducer.Caps
}

func (ts *ToolSet) RegisterServer(server *mcp.Server) error {
	mcp.AddTool(server, gdtools.Format, ts.Format)
	mcp.AddTool(server, gdtools.Lint, ts.Lint)
	return nil
}

func selection(s gdtools.Selection) targets.Selection {
	return targets.Selection{
		Files:   s.Files,
		Dir:     s.Dir,
		Include: s.Include,
		Exclude: s.Exclude,
	}
}

func toolResult(summary string, isError bool, structured any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: summary}},
		StructuredContent: structured,
		IsError:           isError,
	}
}
