// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package versionutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// Normalize strips surrounding whitespace and a single leading "v" from a release tag.
// The result is used verbatim as a cache directory name, so anything that could
// escape the cache root is rejected.
func Normalize(tag string) (string, error) {
	s := strings.TrimSpace(tag)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if s == "" {
		return "", errors.New("empty version")
	}
	if s == "." || s == ".." {
		return "", fmt.Errorf("invalid version %q", tag)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_', r == '+':
		default:
			return "", fmt.Errorf("invalid version %q: unexpected character %q", tag, r)
		}
	}
	return s, nil
}

// Parse parses a formatter version string after removing the leading "v" character.
// Pre-release and build metadata are kept, so "0.18.0-beta.1" sorts before "0.18.0".
func Parse(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
}

// Compare orders two version strings. Parsable versions sort above unparsable ones;
// two unparsable versions are compared lexically.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(*vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// GreaterThan returns true if a is a newer version than b.
func GreaterThan(a, b string) bool {
	return Compare(a, b) > 0
}
