// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
)

func newInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [VERSION]",
		Short: "Install the formatter and check that it runs",
		Long: `Install the formatter and check that it runs.

Without VERSION, the configured version is installed (the latest release by default).
An already installed version is not downloaded again.`,
		Args: WrapArgsError(cobra.MaximumNArgs(1)),
		RunE: installAction,
	}
	return cmd
}

func installAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Version = args[0]
	}
	loc, err := newLocator(cfg)
	if err != nil {
		return err
	}
	resolved, err := loc.Resolve(ctx)
	if err != nil {
		return err
	}
	res, err := executil.Run(ctx, resolved.Path, []string{"--version"})
	if err != nil {
		return err
	}
	if err := res.Err(resolved.Path); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	logrus.Debugf("%q --version: %s", resolved.Path, strings.TrimSpace(string(res.Stdout)))
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "path: %s\n", resolved.Path)
	if resolved.Version != "" {
		fmt.Fprintf(w, "version: %s\n", resolved.Version)
	}
	_, err = fmt.Fprintf(w, "source: %s\n", resolved.Source)
	return err
}
