// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package locator resolves the formatter executable, installing it on a cache miss.
package locator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/containerd/errdefs"
	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/installer"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/platform"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/release"
)

// Source tells where a resolved executable came from.
type Source string

const (
	SourceOverride  Source = "override-path"
	SourceCached    Source = "cached-version"
	SourceInstalled Source = "freshly-installed"
)

// ResolvedBinary is a usable formatter executable.
type ResolvedBinary struct {
	Path string `json:"path"`
	// Version is empty for an override path.
	Version string `json:"version,omitempty"`
	Source  Source `json:"source"`
}

// Options configure a Locator.
type Options struct {
	// OverridePath is used verbatim when set. No version check is done.
	OverridePath string
	// Version pins a release. Empty or "latest" follows the latest release.
	Version string
	// CacheRoot is the resolved cache root.
	CacheRoot string
	Resolver  *release.Resolver
	// Platform defaults to the host platform.
	Platform *platform.Platform
}

// Locator resolves the executable once and re-validates the result on each call.
type Locator struct {
	opts Options

	mu       sync.Mutex
	resolved *ResolvedBinary
}

func New(opts Options) *Locator {
	if opts.Resolver == nil {
		opts.Resolver = &release.Resolver{}
	}
	return &Locator{opts: opts}
}

func (l *Locator) pinned() string {
	v := strings.TrimSpace(l.opts.Version)
	if strings.EqualFold(v, "latest") {
		return ""
	}
	return v
}

// Installer returns the installer of the host platform for the cache root.
func (l *Locator) Installer() (*installer.Installer, error) {
	p := l.opts.Platform
	if p == nil {
		detected, err := platform.Detect()
		if err != nil {
			return nil, err
		}
		p = &detected
	}
	return installer.New(l.opts.CacheRoot, *p, l.opts.Resolver), nil
}

// Resolve returns a usable executable.
//
// The order is: the override path, the pinned version (installed on a miss),
// then the latest release (installed on a miss). When the release index cannot
// be reached, the newest cached version is used instead.
func (l *Locator) Resolve(ctx context.Context) (*ResolvedBinary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved != nil {
		if err := executil.IsExecutable(l.resolved.Path); err == nil {
			return l.resolved, nil
		}
		logrus.Debugf("Previously resolved formatter %q vanished, resolving again", l.resolved.Path)
		l.resolved = nil
	}
	res, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	l.resolved = res
	logrus.Debugf("Resolved formatter %q (version=%q, source=%s)", res.Path, res.Version, res.Source)
	return res, nil
}

// Locate implements the executable lookup of batch.Tool.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	res, err := l.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

func (l *Locator) resolve(ctx context.Context) (*ResolvedBinary, error) {
	if p := l.opts.OverridePath; p != "" {
		if err := executil.IsExecutable(p); err != nil {
			return nil, fmt.Errorf("%w: formatter override path: %v", errdefs.ErrNotFound, err)
		}
		return &ResolvedBinary{Path: p, Source: SourceOverride}, nil
	}

	in, err := l.Installer()
	if err != nil {
		return nil, err
	}

	if pinned := l.pinned(); pinned != "" {
		if e, err := in.Lookup(pinned); err == nil {
			return &ResolvedBinary{Path: e.Path, Version: e.Version, Source: SourceCached}, nil
		} else if errdefs.IsInvalidArgument(err) {
			return nil, err
		}
		rel, err := l.opts.Resolver.ByTag(ctx, pinned)
		if err != nil {
			return nil, err
		}
		return install(ctx, in, rel)
	}

	rel, err := l.opts.Resolver.Latest(ctx)
	if err != nil {
		return fallback(in, err)
	}
	res, err := install(ctx, in, rel)
	if err != nil && errdefs.IsUnavailable(err) {
		return fallback(in, err)
	}
	return res, err
}

func install(ctx context.Context, in *installer.Installer, rel *release.Release) (*ResolvedBinary, error) {
	e, installed, err := in.Install(ctx, rel)
	if err != nil {
		return nil, err
	}
	src := SourceCached
	if installed {
		src = SourceInstalled
	}
	return &ResolvedBinary{Path: e.Path, Version: e.Version, Source: src}, nil
}

// fallback returns the newest cached version when the release index is unreachable.
func fallback(in *installer.Installer, cause error) (*ResolvedBinary, error) {
	if !errdefs.IsUnavailable(cause) {
		return nil, cause
	}
	e, err := in.Newest()
	if err != nil {
		return nil, cause
	}
	logrus.WithError(cause).Warnf("Failed to check for formatter updates, using cached version %s", e.Version)
	return &ResolvedBinary{Path: e.Path, Version: e.Version, Source: SourceCached}, nil
}
