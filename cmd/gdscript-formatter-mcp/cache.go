// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/installer"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage installed formatter versions",
	}
	cmd.AddCommand(
		newCacheDirCommand(),
		newCacheListCommand(),
		newCacheClearCommand(),
	)
	return cmd
}

func cacheInstaller(cmd *cobra.Command) (*installer.Installer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	loc, err := newLocator(cfg)
	if err != nil {
		return nil, err
	}
	return loc.Installer()
}

func newCacheDirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show the cache directory",
		Args:  WrapArgsError(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := cacheInstaller(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), in.Root())
			return err
		},
	}
}

func newCacheListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed formatter versions, newest first",
		Args:  WrapArgsError(cobra.NoArgs),
		RunE:  cacheListAction,
	}
	cmd.Flags().Bool("json", false, "JSONify output")
	return cmd
}

func cacheListAction(cmd *cobra.Command, _ []string) error {
	jsonFormat, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	in, err := cacheInstaller(cmd)
	if err != nil {
		return err
	}
	entries, err := in.List()
	if err != nil {
		return err
	}
	if jsonFormat {
		if entries == nil {
			entries = []installer.Entry{}
		}
		j, err := json.MarshalIndent(entries, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(j))
		return err
	}
	if len(entries) == 0 {
		logrus.Warn("No formatter version is installed")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 4, 8, 4, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSIZE\tINSTALLED\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Version,
			units.BytesSize(float64(e.Size)),
			units.HumanDuration(time.Since(e.ModTime))+" ago",
			e.Path,
		)
	}
	return w.Flush()
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [VERSION...]",
		Short: "Remove installed formatter versions",
		Long: `Remove installed formatter versions.

Without VERSION, every version is removed, together with the remembered latest release.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := cacheInstaller(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				return in.Remove(args...)
			}
			logrus.Infof("Clearing %q", in.Root())
			return in.Clear()
		},
	}
}
