// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/config"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version"
)

func newGenManCommand() *cobra.Command {
	genmanCommand := &cobra.Command{
		Use:    "generate-man DIR",
		Short:  "Generate manual pages",
		Args:   WrapArgsError(cobra.ExactArgs(1)),
		RunE:   genmanAction,
		Hidden: true,
	}
	return genmanCommand
}

func genmanAction(cmd *cobra.Command, args []string) error {
	dir := args[0]
	logrus.Infof("Generating man %q", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	// gdscript-formatter-mcp(5)
	filePath := filepath.Join(dir, version.Name+".5")
	if err := os.WriteFile(filePath, md2man.Render([]byte(configManPage())), 0o644); err != nil {
		return err
	}
	// gdscript-formatter-mcp(1)
	header := &doc.GenManHeader{
		Title:   strings.ToUpper(version.Name),
		Section: "1",
	}
	return doc.GenManTree(cmd.Root(), header, dir)
}

func configManPage() string {
	title := strings.ToUpper(version.Name)
	return fmt.Sprintf(`%s 5
%s
# NAME
%s - configuration file and environment
# SYNOPSIS
**$XDG_CONFIG_HOME/%s/config.yaml**
# DESCRIPTION
Settings are resolved from built-in defaults, the config file, the environment,
and the command line flags, in increasing order of precedence.
Run **%s config show** to print the effective configuration in the file format.
# ENVIRONMENT
**%s**
: Path of the formatter executable. Nothing is downloaded when set.

**%s**
: Directory holding the installed formatter versions.

**%s**
: Formatter release to use. Empty or "latest" follows the latest release.

**%s**
: Base URL of the release index, for mirrors.

**%s**
: Token for the release index, to avoid rate limits.
# SEE ALSO
**%s**(1)
`, title, strings.Repeat("=", len(title)+2),
		version.Name, version.Name, version.Name,
		config.EnvFormatterPath, config.EnvCacheDir, config.EnvVersion, config.EnvReleaseAPI, config.EnvGitHubToken,
		version.Name)
}
