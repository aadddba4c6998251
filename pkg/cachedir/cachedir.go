// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package cachedir resolves the cache root that holds installed formatter versions.
package cachedir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version"
)

// LocalFallback is created under the working directory when no user cache directory is usable.
const LocalFallback = ".gdscript-formatter-mcp-cache"

// Candidates returns the default cache root candidates in order of preference:
// $XDG_CACHE_HOME, the OS user cache directory, a directory under the working
// directory, and finally the temporary directory.
func Candidates() []string {
	var dirs []string
	add := func(dir string) {
		if dir == "" {
			return
		}
		for _, d := range dirs {
			if d == dir {
				return
			}
		}
		dirs = append(dirs, dir)
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		add(filepath.Join(xdg, version.Name))
	}
	if ucd, err := os.UserCacheDir(); err == nil {
		add(filepath.Join(ucd, version.Name))
	}
	if wd, err := os.Getwd(); err == nil {
		add(filepath.Join(wd, LocalFallback))
	}
	add(filepath.Join(os.TempDir(), version.Name))
	return dirs
}

// Resolve returns the absolute path of the cache root, creating it if needed.
// A non-empty override is the only candidate: failing to create it is an error.
// Otherwise the first of [Candidates] that exists or can be created is used.
func Resolve(override string) (string, error) {
	if override != "" {
		abs, err := ensure(override)
		if err != nil {
			return "", fmt.Errorf("cannot use the cache directory %q: %w", override, err)
		}
		return abs, nil
	}
	var errs []error
	for _, dir := range Candidates() {
		abs, err := ensure(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return abs, nil
	}
	return "", fmt.Errorf("no usable cache directory: %w", errors.Join(errs...))
}

func ensure(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
