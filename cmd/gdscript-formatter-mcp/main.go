// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/config"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/osutil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version"
)

func main() {
	// stdout carries the protocol stream.
	logrus.SetOutput(os.Stderr)
	if err := newApp().Execute(); err != nil {
		logrus.Error(err)
		osutil.HandleExitError(err)
		os.Exit(1)
	}
}

func processGlobalFlags(rootCmd *cobra.Command) error {
	// --log-level will override --debug
	if debug, _ := rootCmd.Flags().GetBool("debug"); debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	l, _ := rootCmd.Flags().GetString("log-level")
	if l != "" {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
	}

	logFormat, _ := rootCmd.Flags().GetString("log-format")
	switch logFormat {
	case "json":
		formatter := new(logrus.JSONFormatter)
		logrus.StandardLogger().SetFormatter(formatter)
	case "text":
		// logrus use text format by default.
		if runtime.GOOS == "windows" && isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			formatter := new(logrus.TextFormatter)
			// the default setting does not recognize cygwin on windows
			formatter.ForceColors = true
			logrus.StandardLogger().SetFormatter(formatter)
		}
	default:
		return fmt.Errorf("unsupported log-format: %q", logFormat)
	}
	return nil
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.Name,
		Short: "Model Context Protocol server for formatting and linting GDScript",
		Long: `Model Context Protocol server for formatting and linting GDScript files
with the GDQuest GDScript formatter.

The formatter executable is downloaded from its GitHub releases on first use,
unless $` + config.EnvFormatterPath + ` points to an existing executable.

Running the command without a subcommand serves MCP over stdio.`,
		Version: strings.TrimPrefix(version.Version, "v"),
		Example: `  Serve MCP over stdio (as configured in an MCP client):
  $ gdscript-formatter-mcp

  Install the formatter ahead of time:
  $ gdscript-formatter-mcp install

  Show the installed versions:
  $ gdscript-formatter-mcp cache list`,
		Args:              WrapArgsError(cobra.NoArgs),
		RunE:              serveAction,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Set the logging level [trace, debug, info, warn, error]")
	rootCmd.PersistentFlags().String("log-format", "text", "Set the logging format [text, json]")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug mode")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $XDG_CONFIG_HOME/"+version.Name+"/config.yaml)")
	config.AddFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return processGlobalFlags(rootCmd)
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newInfoCommand(),
		newInstallCommand(),
		newCacheCommand(),
		newConfigCommand(),
		newGenDocCommand(),
		newGenManCommand(),
	)
	return rootCmd
}

// loadConfig resolves the configuration of the command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// WrapArgsError annotates cobra args error with some context, so the error message is more user-friendly.
func WrapArgsError(argFn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := argFn(cmd, args)
		if err == nil {
			return nil
		}

		return fmt.Errorf("%q %s.\nSee '%s --help'.\n\nUsage:  %s\n\n%s",
			cmd.CommandPath(), err.Error(),
			cmd.CommandPath(),
			cmd.UseLine(), cmd.Short,
		)
	}
}
