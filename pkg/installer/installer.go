// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package installer places formatter releases into version directories under the cache root.
//
// Layout:
//
//	<root>/versions/<version>/gdscript-formatter[.exe]
//	<root>/tmp/<version>-<random>/   (private staging, removed after each install)
//	<root>/tmp/<version>.lock        (held while a version is being installed)
//
// A version directory only ever appears under its final name through a single
// rename of a fully populated staging directory, so concurrent installers
// (even in different processes) never observe a partial directory.
package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/downloader"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/lockutil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/httpclientutil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/platform"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/release"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version/versionutil"
)

const (
	VersionsDir = "versions"
	TmpDir      = "tmp"
)

// Installer installs releases for one platform into one cache root.
type Installer struct {
	root     string
	platform platform.Platform
	resolver *release.Resolver
}

// New returns an Installer rooted at the cache root dir.
func New(root string, p platform.Platform, resolver *release.Resolver) *Installer {
	return &Installer{root: root, platform: p, resolver: resolver}
}

// Root returns the cache root.
func (in *Installer) Root() string {
	return in.root
}

// Entry is a populated version directory.
type Entry struct {
	Version string    `json:"version"`
	Dir     string    `json:"dir"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

func (in *Installer) versionDir(version string) string {
	return filepath.Join(in.root, VersionsDir, version)
}

// Lookup returns the version directory of version if it contains a valid executable.
// The error wraps errdefs.ErrNotFound otherwise.
func (in *Installer) Lookup(version string) (*Entry, error) {
	v, err := versionutil.Normalize(version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrInvalidArgument, err)
	}
	dir := in.versionDir(v)
	exe := filepath.Join(dir, in.platform.BinaryName)
	if err := executil.IsExecutable(exe); err != nil {
		return nil, fmt.Errorf("%w: version %s is not installed: %v", errdefs.ErrNotFound, v, err)
	}
	st, err := os.Stat(exe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrNotFound, err)
	}
	return &Entry{Version: v, Dir: dir, Path: exe, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// Install makes sure the release is present in its version directory.
//
// When the version directory is already populated, Install returns it without
// any network access and installed is false.
// Otherwise the platform archive is downloaded and extracted into a private
// staging directory, and the staging directory is renamed into place.
// If another installer published the same version first, its directory is returned.
func (in *Installer) Install(ctx context.Context, rel *release.Release) (entry *Entry, installed bool, err error) {
	v, err := rel.Version()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", errdefs.ErrInvalidArgument, err)
	}
	if e, err := in.Lookup(v); err == nil {
		logrus.Debugf("Formatter %s is already installed in %q", v, e.Dir)
		return e, false, nil
	}

	asset, err := in.resolver.SelectAsset(rel, in.platform)
	if err != nil {
		return nil, false, err
	}

	tmpRoot := filepath.Join(in.root, TmpDir)
	if err := os.MkdirAll(tmpRoot, 0o755); err != nil {
		return nil, false, err
	}
	// Other processes sharing the cache root wait here instead of downloading the same archive.
	err = lockutil.WithLock(filepath.Join(tmpRoot, v+".lock"), func() error {
		if e, err := in.Lookup(v); err == nil {
			logrus.Debugf("Formatter %s was installed concurrently in %q", v, e.Dir)
			entry = e
			return nil
		}
		entry, err = in.install(ctx, v, asset)
		installed = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if installed {
		logrus.Infof("Installed GDScript formatter %s into %q", v, entry.Dir)
	}
	return entry, installed, nil
}

func (in *Installer) install(ctx context.Context, v string, asset release.Asset) (*Entry, error) {
	work, err := os.MkdirTemp(filepath.Join(in.root, TmpDir), v+"-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(work); rmErr != nil {
			logrus.WithError(rmErr).Warnf("Failed to remove %q", work)
		}
	}()

	archive := filepath.Join(work, archiveBaseName(asset))
	if err := in.download(ctx, archive, asset); err != nil {
		return nil, err
	}

	extracted := filepath.Join(work, "extract")
	if err := extractArchive(archive, extracted); err != nil {
		return nil, fmt.Errorf("failed to extract %q: %w", asset.Name, err)
	}
	found, err := findExecutable(extracted, in.platform.BinaryName)
	if err != nil {
		return nil, err
	}
	if found == "" {
		return nil, fmt.Errorf("%w: archive %q does not contain %q", errdefs.ErrNotFound, asset.Name, in.platform.BinaryName)
	}

	stage := filepath.Join(work, v)
	if err := os.Mkdir(stage, 0o755); err != nil {
		return nil, err
	}
	staged := filepath.Join(stage, in.platform.BinaryName)
	if err := os.Rename(found, staged); err != nil {
		return nil, err
	}
	if err := os.Chmod(staged, 0o755); err != nil {
		return nil, err
	}
	if err := executil.IsExecutable(staged); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(in.root, VersionsDir), 0o755); err != nil {
		return nil, err
	}
	final := in.versionDir(v)
	if err := os.Rename(stage, final); err != nil {
		// Lost the race against an installer that does not take the lock.
		if e, lookupErr := in.Lookup(v); lookupErr == nil {
			return e, nil
		}
		return nil, fmt.Errorf("failed to publish %q: %w", final, err)
	}
	return in.Lookup(v)
}

func (in *Installer) download(ctx context.Context, dst string, asset release.Asset) error {
	opts := []downloader.Opt{
		downloader.WithDescription(asset.Name),
		downloader.WithHTTPClient(in.resolver.Client),
	}
	if ua := in.resolver.UserAgent; ua != "" {
		opts = append(opts, downloader.WithHeader("User-Agent", ua))
	}
	if asset.Digest != "" {
		d, err := digest.Parse(asset.Digest)
		if err != nil {
			logrus.WithError(err).Warnf("Ignoring unparsable digest %q of %s", asset.Digest, asset.Name)
		} else {
			opts = append(opts, downloader.WithExpectedDigest(d))
		}
	}
	if _, err := downloader.Download(ctx, dst, asset.URL, opts...); err != nil {
		return classifyDownloadError(ctx, asset, err)
	}
	return nil
}

func classifyDownloadError(ctx context.Context, asset release.Asset, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var urlErr *url.Error
	switch code := httpclientutil.StatusCode(err); {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: asset %q: %v", errdefs.ErrNotFound, asset.URL, err)
	case code != 0, errors.As(err, &urlErr):
		return fmt.Errorf("%w: failed to download %q: %v", errdefs.ErrUnavailable, asset.URL, err)
	default:
		return fmt.Errorf("failed to download %q: %w", asset.URL, err)
	}
}

func archiveBaseName(asset release.Asset) string {
	name := filepath.Base(filepath.FromSlash(asset.Name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "archive.zip"
	}
	return name
}

// List returns the populated version directories, newest version first.
// Directories without a valid executable are skipped.
func (in *Installer) List() ([]Entry, error) {
	dirents, err := os.ReadDir(filepath.Join(in.root, VersionsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		e, err := in.Lookup(d.Name())
		if err != nil {
			logrus.WithError(err).Debugf("Skipping %q", d.Name())
			continue
		}
		entries = append(entries, *e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return versionutil.GreaterThan(entries[i].Version, entries[j].Version)
	})
	return entries, nil
}

// Newest returns the newest populated version directory.
func (in *Installer) Newest() (*Entry, error) {
	entries, err := in.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no cached formatter version in %q", errdefs.ErrNotFound, in.root)
	}
	return &entries[0], nil
}

// Remove deletes the version directories of the given versions.
func (in *Installer) Remove(versions ...string) error {
	var errs []error
	for _, version := range versions {
		v, err := versionutil.Normalize(version)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", errdefs.ErrInvalidArgument, err))
			continue
		}
		dir := in.versionDir(v)
		if _, err := os.Stat(dir); err != nil {
			errs = append(errs, fmt.Errorf("%w: version %s is not cached", errdefs.ErrNotFound, v))
			continue
		}
		logrus.Infof("Removing %q", dir)
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes every version directory, leftover staging directories, and
// the latest-release cache.
func (in *Installer) Clear() error {
	var errs []error
	for _, p := range []string{
		filepath.Join(in.root, VersionsDir),
		filepath.Join(in.root, TmpDir),
		filepath.Join(in.root, release.LatestCacheFile),
	} {
		logrus.Debugf("Removing %q", p)
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// isWithin reports whether target stays inside root after cleaning.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
