// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/config"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/jsonschemautil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/yamlutil"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration as YAML",
			Long: `Show the effective configuration as YAML.

The output can be used as a config file. The GitHub token is never shown.`,
			Args: WrapArgsError(cobra.NoArgs),
			RunE: configShowAction,
		},
		&cobra.Command{
			Use:    "schema",
			Short:  "Show the JSON schema of the config file",
			Args:   WrapArgsError(cobra.NoArgs),
			RunE:   configSchemaAction,
			Hidden: true,
		},
	)
	return cmd
}

func configShowAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := yamlutil.Marshal(cfg.File())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func configSchemaAction(cmd *cobra.Command, _ []string) error {
	schema := jsonschemautil.Reflect[config.File]()
	schema.Title = "gdscript-formatter-mcp config"
	j, err := json.MarshalIndent(schema, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(j))
	return err
}
