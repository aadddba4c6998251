// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/spf13/pflag"
)

// AddFlags registers the flags that override the configuration.
func AddFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("formatter-path", "", "Path of the formatter executable [$"+EnvFormatterPath+"]")
	flags.String("cache-dir", "", "Cache directory for installed formatter versions [$"+EnvCacheDir+"]")
	flags.String("formatter-version", "", "Formatter release to use, or \"latest\" [$"+EnvVersion+"]")
	flags.String("repository", d.Repository, "GitHub repository publishing the formatter releases")
	flags.String("release-api", d.ReleaseAPI, "Base URL of the release index [$"+EnvReleaseAPI+"]")
	flags.Duration("release-check-interval", d.ReleaseCheckInterval, "How long the latest release is remembered")
	flags.Int("concurrency", d.Concurrency, "Maximum number of formatter processes per request")
	flags.Duration("process-timeout", d.ProcessTimeout, "Timeout of each formatter process (0 disables it)")
	flags.Duration("http-timeout", d.HTTPTimeout, "Timeout of each HTTP request to the release index")
	flags.Int("max-failures", d.MaxFailures, "Default maximum number of failures returned per request")
	flags.Int("max-diagnostics", d.MaxDiagnostics, "Default maximum number of diagnostics returned per request")
}

// ApplyFlags overrides c with the flags explicitly set on the command line.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "formatter-path":
			c.FormatterPath, err = flags.GetString(f.Name)
		case "cache-dir":
			c.CacheDir, err = flags.GetString(f.Name)
		case "formatter-version":
			c.Version, err = flags.GetString(f.Name)
		case "repository":
			c.Repository, err = flags.GetString(f.Name)
		case "release-api":
			c.ReleaseAPI, err = flags.GetString(f.Name)
		case "release-check-interval":
			c.ReleaseCheckInterval, err = flags.GetDuration(f.Name)
		case "concurrency":
			c.Concurrency, err = flags.GetInt(f.Name)
		case "process-timeout":
			c.ProcessTimeout, err = flags.GetDuration(f.Name)
		case "http-timeout":
			c.HTTPTimeout, err = flags.GetDuration(f.Name)
		case "max-failures":
			c.MaxFailures, err = flags.GetInt(f.Name)
		case "max-diagnostics":
			c.MaxDiagnostics, err = flags.GetInt(f.Name)
		}
	})
	return err
}
