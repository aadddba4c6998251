// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package localpathutil expands home-relative paths found in configuration.
package localpathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" or "~/" of orig with homeDir.
// Other paths are returned unchanged; "~user" forms are rejected.
func ExpandHome(orig, homeDir string) (string, error) {
	if orig != "~" && !strings.HasPrefix(orig, "~/") && !strings.HasPrefix(orig, "~"+string(filepath.Separator)) {
		if strings.HasPrefix(orig, "~") {
			return "", fmt.Errorf("unexpandable path %q", orig)
		}
		return orig, nil
	}
	return homeDir + orig[1:], nil
}

// Expand expands a leading "~" using the home directory of the current user.
// An empty path stays empty.
func Expand(orig string) (string, error) {
	if !strings.HasPrefix(orig, "~") {
		return orig, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	s, err := ExpandHome(orig, homeDir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(s), nil
}
