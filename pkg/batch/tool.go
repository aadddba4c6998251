// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
)

// Tool is the external formatter as seen by the executor.
type Tool interface {
	// Locate returns the executable, installing it if needed.
	Locate(ctx context.Context) (string, error)
	// Run runs the executable once. A nonzero exit status is not an error.
	Run(ctx context.Context, exe string, args []string, stdin []byte) (*executil.Result, error)
}

// Locator is satisfied by *locator.Locator.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// ExternalTool runs the executable found by a Locator as a child process.
type ExternalTool struct {
	Locator Locator
}

func (t *ExternalTool) Locate(ctx context.Context) (string, error) {
	return t.Locator.Locate(ctx)
}

func (t *ExternalTool) Run(ctx context.Context, exe string, args []string, stdin []byte) (*executil.Result, error) {
	return executil.Run(ctx, exe, args, executil.WithStdin(stdin))
}
