// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform maps the host OS and architecture to the naming scheme of
// the GDScript formatter release archives.
package platform

import (
	"fmt"
	"runtime"

	"github.com/containerd/errdefs"
)

const binaryBaseName = "gdscript-formatter"

// Platform identifies a release archive flavor.
type Platform struct {
	// OS is "linux", "macos", or "windows".
	OS string
	// Arch is "x86_64" or "aarch64".
	Arch string
	// BinaryName is the executable name inside the archive.
	BinaryName string
}

// Detect returns the Platform of the running host.
func Detect() (Platform, error) {
	return For(runtime.GOOS, runtime.GOARCH)
}

// For returns the Platform for a GOOS/GOARCH pair.
// Unsupported combinations return an error wrapping errdefs.ErrNotImplemented.
func For(goos, goarch string) (Platform, error) {
	var p Platform
	switch goos {
	case "linux":
		p.OS = "linux"
	case "darwin":
		p.OS = "macos"
	case "windows":
		p.OS = "windows"
	default:
		return p, fmt.Errorf("%w: unsupported operating system %q", errdefs.ErrNotImplemented, goos)
	}
	switch goarch {
	case "amd64":
		p.Arch = "x86_64"
	case "arm64":
		p.Arch = "aarch64"
	default:
		return p, fmt.Errorf("%w: unsupported architecture %q", errdefs.ErrNotImplemented, goarch)
	}
	p.BinaryName = binaryBaseName
	if p.OS == "windows" {
		p.BinaryName += ".exe"
	}
	return p, nil
}

// Triple returns the "<os>-<arch>" suffix used in asset names.
func (p Platform) Triple() string {
	return p.OS + "-" + p.Arch
}

// AssetName returns the deterministic archive name for a release tag,
// e.g. "gdscript-formatter-0.18.1-linux-x86_64.zip".
func (p Platform) AssetName(tag string) string {
	return fmt.Sprintf("%s-%s-%s.zip", binaryBaseName, tag, p.Triple())
}

func (p Platform) String() string {
	return p.Triple()
}
