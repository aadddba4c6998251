// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the settings of the server once at startup.
//
// Precedence, from lowest to highest: built-in defaults, the YAML file,
// environment variables, and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/jsonschemautil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/localpathutil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/ptr"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/release"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version"
)

// Environment variables.
const (
	EnvFormatterPath = "GDSCRIPT_FORMATTER_PATH"
	EnvCacheDir      = "GDSCRIPT_FORMATTER_MCP_CACHE_DIR"
	EnvVersion       = "GDSCRIPT_FORMATTER_VERSION"
	EnvReleaseAPI    = "GDSCRIPT_FORMATTER_MCP_RELEASE_API"
	EnvGitHubToken   = "GITHUB_TOKEN"
)

const (
	DefaultReleaseCheckInterval = time.Hour
	DefaultProcessTimeout       = 2 * time.Minute
	DefaultHTTPTimeout          = 30 * time.Second
)

// File is the on-disk configuration. Unset fields keep their defaults.
type File struct {
	FormatterPath        *string `yaml:"formatterPath,omitempty" json:"formatterPath,omitempty" jsonschema:"description=Path of the formatter executable. Disables installation."`
	CacheDir             *string `yaml:"cacheDir,omitempty" json:"cacheDir,omitempty" jsonschema:"description=Directory holding installed formatter versions."`
	Version              *string `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Formatter release to use. Empty or latest follows the latest release."`
	Repository           *string `yaml:"repository,omitempty" json:"repository,omitempty" jsonschema:"description=GitHub repository publishing the formatter releases."`
	ReleaseAPI           *string `yaml:"releaseAPI,omitempty" json:"releaseAPI,omitempty" jsonschema:"description=Base URL of the release index."`
	ReleaseCheckInterval *string `yaml:"releaseCheckInterval,omitempty" json:"releaseCheckInterval,omitempty" jsonschema:"description=How long the latest release is remembered (Go duration)."`
	Concurrency          *int    `yaml:"concurrency,omitempty" json:"concurrency,omitempty" jsonschema:"description=Maximum number of formatter processes per request.,minimum=1"`
	ProcessTimeout       *string `yaml:"processTimeout,omitempty" json:"processTimeout,omitempty" jsonschema:"description=Timeout of each formatter process (Go duration). 0 disables it."`
	HTTPTimeout          *string `yaml:"httpTimeout,omitempty" json:"httpTimeout,omitempty" jsonschema:"description=Timeout of each HTTP request to the release index (Go duration)."`
	MaxFailures          *int    `yaml:"maxFailures,omitempty" json:"maxFailures,omitempty" jsonschema:"description=Default maximum number of failures returned per request.,minimum=0"`
	MaxDiagnostics       *int    `yaml:"maxDiagnostics,omitempty" json:"maxDiagnostics,omitempty" jsonschema:"description=Default maximum number of diagnostics returned per request.,minimum=0"`
}

// Config is the resolved configuration.
type Config struct {
	FormatterPath        string
	CacheDir             string
	Version              string
	Repository           string
	ReleaseAPI           string
	GitHubToken          string
	ReleaseCheckInterval time.Duration
	Concurrency          int
	ProcessTimeout       time.Duration
	HTTPTimeout          time.Duration
	MaxFailures          int
	MaxDiagnostics       int
}

func Default() *Config {
	return &Config{
		Repository:           release.DefaultRepository,
		ReleaseAPI:           release.DefaultAPIURL,
		ReleaseCheckInterval: DefaultReleaseCheckInterval,
		Concurrency:          runtime.GOMAXPROCS(0),
		ProcessTimeout:       DefaultProcessTimeout,
		HTTPTimeout:          DefaultHTTPTimeout,
		MaxFailures:          reducer.DefaultMaxFailures,
		MaxDiagnostics:       reducer.DefaultMaxDiagnostics,
	}
}

// DefaultFilePath returns the path of the config file used when --config is not given.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, version.Name, "config.yaml"), nil
}

// LoadFile reads and validates a config file.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, schema, err := jsonschemautil.CompileReflected[File]("config.json")
	if err != nil {
		return nil, err
	}
	if err := jsonschemautil.ValidateYAML(schema, b); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return &f, nil
}

func parseDuration(field string, s *string, dst *time.Duration) error {
	if s == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*s))
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	*dst = d
	return nil
}

// expandPath resolves a leading "~" in a path taken from the file.
func expandPath(field string, p *string) error {
	s, err := localpathutil.Expand(*p)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	*p = s
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// ApplyFile overrides c with the fields set in f.
func (c *Config) ApplyFile(f *File) error {
	setString(&c.FormatterPath, f.FormatterPath)
	setString(&c.CacheDir, f.CacheDir)
	setString(&c.Version, f.Version)
	setString(&c.Repository, f.Repository)
	setString(&c.ReleaseAPI, f.ReleaseAPI)
	setInt(&c.Concurrency, f.Concurrency)
	setInt(&c.MaxFailures, f.MaxFailures)
	setInt(&c.MaxDiagnostics, f.MaxDiagnostics)
	return errors.Join(
		expandPath("formatterPath", &c.FormatterPath),
		expandPath("cacheDir", &c.CacheDir),
		parseDuration("releaseCheckInterval", f.ReleaseCheckInterval, &c.ReleaseCheckInterval),
		parseDuration("processTimeout", f.ProcessTimeout, &c.ProcessTimeout),
		parseDuration("httpTimeout", f.HTTPTimeout, &c.HTTPTimeout),
	)
}

// ApplyEnv overrides c with the non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for env, dst := range map[string]*string{
		EnvFormatterPath: &c.FormatterPath,
		EnvCacheDir:      &c.CacheDir,
		EnvVersion:       &c.Version,
		EnvReleaseAPI:    &c.ReleaseAPI,
		EnvGitHubToken:   &c.GitHubToken,
	} {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			*dst = v
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("maxFailures must not be negative, got %d", c.MaxFailures))
	}
	if c.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("maxDiagnostics must not be negative, got %d", c.MaxDiagnostics))
	}
	if c.ReleaseCheckInterval < 0 {
		errs = append(errs, fmt.Errorf("releaseCheckInterval must not be negative, got %s", c.ReleaseCheckInterval))
	}
	if c.ProcessTimeout < 0 {
		errs = append(errs, fmt.Errorf("processTimeout must not be negative, got %s", c.ProcessTimeout))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("httpTimeout must not be negative, got %s", c.HTTPTimeout))
	}
	if strings.Count(c.Repository, "/") != 1 || strings.HasPrefix(c.Repository, "/") || strings.HasSuffix(c.Repository, "/") {
		errs = append(errs, fmt.Errorf("repository must be of the form OWNER/NAME, got %q", c.Repository))
	}
	if c.ReleaseAPI == "" {
		errs = append(errs, errors.New("releaseAPI must not be empty"))
	}
	return errors.Join(errs...)
}

// Caps returns the default result caps of a request.
func (c *Config) Caps() reducer.Caps {
	caps := reducer.DefaultCaps()
	caps.MaxFailures = c.MaxFailures
	caps.MaxDiagnostics = c.MaxDiagnostics
	return caps
}

// Load resolves the configuration from defaults, the config file, and the environment.
// An empty path means the default location, which may be absent.
func Load(path string, getenv func(string) string) (*Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultFilePath(); err != nil {
			logrus.WithError(err).Debug("no default config file location")
		}
	}
	if path != "" {
		f, err := LoadFile(path)
		switch {
		case err == nil:
			logrus.Debugf("loaded config file %q", path)
			if err := c.ApplyFile(f); err != nil {
				return nil, fmt.Errorf("invalid config file %q: %w", path, err)
			}
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	c.ApplyEnv(getenv)
	return c, nil
}

// File returns c in the on-disk form. The GitHub token is never written.
func (c *Config) File() *File {
	str := func(s string) *string {
		if s == "" {
			return nil
		}
		return ptr.Of(s)
	}
	return &File{
		FormatterPath:        str(c.FormatterPath),
		CacheDir:             str(c.CacheDir),
		Version:              str(c.Version),
		Repository:           str(c.Repository),
		ReleaseAPI:           str(c.ReleaseAPI),
		ReleaseCheckInterval: ptr.Of(c.ReleaseCheckInterval.String()),
		Concurrency:          ptr.Of(c.Concurrency),
		ProcessTimeout:       ptr.Of(c.ProcessTimeout.String()),
		HTTPTimeout:          ptr.Of(c.HTTPTimeout.String()),
		MaxFailures:          ptr.Of(c.MaxFailures),
		MaxDiagnostics:       ptr.Of(c.MaxDiagnostics),
	}
}
