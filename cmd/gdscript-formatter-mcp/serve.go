// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/batch"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/mcp/framing"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/mcp/toolset"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version"
)

func newServer() *mcp.Server {
	impl := &mcp.Implementation{
		Name:    version.Name,
		Title:   "GDScript formatter and linter",
		Version: version.Version,
	}
	serverOpts := &mcp.ServerOptions{
		Instructions: `This MCP server formats and lints GDScript (.gd) files of Godot projects
with the GDQuest GDScript formatter (https://github.com/GDQuest/GDScript-formatter).

Pass either explicit "files", or a "dir" to scan with "include" and "exclude" globs.
A file that fails never stops the others; check "failures" in the result.
`,
	}
	if runtime.GOOS == "windows" {
		serverOpts.Instructions += fmt.Sprintf(`
NOTE: the host OS is %s. Use native paths in "files" and "dir", and forward slashes in globs.
`, cases.Title(language.English).String(runtime.GOOS))
	}
	return mcp.NewServer(impl, serverOpts)
}

// newToolServer returns a server with the tools registered.
func newToolServer(executor *batch.Executor, caps reducer.Caps) (*mcp.Server, error) {
	ts, err := toolset.New(executor, caps)
	if err != nil {
		return nil, err
	}
	server := newServer()
	if err = ts.RegisterServer(server); err != nil {
		return nil, err
	}
	return server, nil
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		Long: `Serve MCP over stdio.

Expected to be executed via an AI agent, not by a human.
This is also the default action of the command.`,
		Args: WrapArgsError(cobra.NoArgs),
		RunE: serveAction,
	}
	return cmd
}

func serveAction(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := newLocator(cfg)
	if err != nil {
		return err
	}
	server, err := newToolServer(newExecutor(cfg, loc), cfg.Caps())
	if err != nil {
		return err
	}
	logrus.Debugf("Serving MCP over stdio (%s %s)", version.Name, version.Version)
	err = server.Run(ctx, framing.NewStdioTransport(framing.DefaultMaxBodySize))
	if ctx.Err() != nil {
		logrus.Debug("Interrupted")
		return nil
	}
	return err
}
