// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/config"
)

func newGenDocCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "generate-doc DIR",
		Short:  "Generate documentation pages",
		Args:   WrapArgsError(cobra.ExactArgs(1)),
		RunE:   genDocAction,
		Hidden: true,
	}
	return cmd
}

func genDocAction(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := inspectInfo(cmd.Context())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	fName := filepath.Join(dir, "mcp.md")
	f, err := os.Create(fName)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(f, `---
title: MCP tools
weight: 99
---
The server speaks the Model Context Protocol over stdio (protocol version %s).

Both tools accept either explicit "files", or a "dir" scanned with "include" and "exclude" globs.
The formatter executable is resolved in this order:

1. $%s, when set
2. $%s, when set to a version other than "latest"
3. the latest GitHub release, downloaded into the cache directory on first use

`, info.ProtocolVersion, config.EnvFormatterPath, config.EnvVersion)
	for _, tool := range info.Tools {
		fmt.Fprintf(f, "## `%s`\n\n", tool.Name)
		if tool.Title != "" {
			fmt.Fprintf(f, "### Title\n\n%s\n\n", tool.Title)
		}
		if tool.Description != "" {
			fmt.Fprintf(f, "### Description\n\n%s\n\n", tool.Description)
		}
		if tool.InputSchema != nil {
			if err := writeSchema(f, "Input Schema", tool.InputSchema); err != nil {
				return err
			}
		}
		if tool.OutputSchema != nil {
			if err := writeSchema(f, "Output Schema", tool.OutputSchema); err != nil {
				return err
			}
		}
	}
	return f.Close()
}

func writeSchema(f *os.File, title string, schema any) error {
	fmt.Fprintf(f, "### %s\n\n", title)
	j, err := json.MarshalIndent(schema, "", "    ")
	if err != nil {
		return err
	}
	fmt.Fprintf(f, "```json\n%s\n```\n\n", string(j))
	return nil
}
