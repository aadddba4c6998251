// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package release queries the GitHub releases index of the formatter.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/httpclientutil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version/versionutil"
)

const (
	DefaultAPIURL      = "https://api.github.com"
	DefaultDownloadURL = "https://github.com"
	DefaultRepository  = "GDQuest/GDScript-formatter"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
	Size int64  `json:"size,omitempty"`
	// Digest is published by GitHub as "sha256:<hex>" for newer uploads.
	Digest string `json:"digest,omitempty"`
}

// Release is the subset of the GitHub release object used by the installer.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Version returns the normalized version of the release tag.
func (r *Release) Version() (string, error) {
	return versionutil.Normalize(r.TagName)
}

// Resolver queries a release index. The zero value queries the public GitHub API
// for DefaultRepository without caching.
type Resolver struct {
	// APIURL is the base URL of the GitHub REST API.
	APIURL string
	// DownloadURL is the base URL used to build asset URLs when the index lists none.
	DownloadURL string
	// Repository is "<owner>/<name>".
	Repository string
	Client     *http.Client
	// Token is sent as a bearer token when not empty.
	Token     string
	UserAgent string
	// CacheDir holds latest.json. Empty disables the latest-release cache.
	CacheDir string
	// TTL is how long a cached latest release is trusted.
	TTL time.Duration

	now func() time.Time
}

func (r *Resolver) apiURL() string {
	if r.APIURL == "" {
		return DefaultAPIURL
	}
	return strings.TrimSuffix(r.APIURL, "/")
}

func (r *Resolver) repository() string {
	if r.Repository == "" {
		return DefaultRepository
	}
	return r.Repository
}

func (r *Resolver) client() *http.Client {
	if r.Client == nil {
		return http.DefaultClient
	}
	return r.Client
}

func (r *Resolver) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Header returns the request headers sent to the release index and asset host.
func (r *Resolver) Header() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github+json")
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	if r.UserAgent != "" {
		h.Set("User-Agent", r.UserAgent)
	}
	if r.Token != "" {
		h.Set("Authorization", "Bearer "+r.Token)
	}
	return h
}

// Latest returns the latest published release.
//
// The result is remembered in CacheDir for TTL, so the index is queried at most
// once per TTL across process restarts.
// Errors wrap errdefs.ErrUnavailable on transport failures and errdefs.ErrNotFound
// when the repository has no release.
func (r *Resolver) Latest(ctx context.Context) (*Release, error) {
	if rel := r.loadLatest(); rel != nil {
		logrus.Debugf("Using cached latest release %q of %s", rel.TagName, r.repository())
		return rel, nil
	}
	rel, err := r.get(ctx, "latest")
	if err != nil {
		return nil, err
	}
	r.storeLatest(rel)
	return rel, nil
}

// LatestVersion returns the normalized version of the latest release.
func (r *Resolver) LatestVersion(ctx context.Context) (string, error) {
	rel, err := r.Latest(ctx)
	if err != nil {
		return "", err
	}
	return rel.Version()
}

// ByTag returns the release with the given tag. The tag is tried as given,
// then with the leading "v" toggled.
func (r *Resolver) ByTag(ctx context.Context, tag string) (*Release, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("%w: empty release tag", errdefs.ErrInvalidArgument)
	}
	alt := "v" + tag
	if strings.HasPrefix(tag, "v") {
		alt = strings.TrimPrefix(tag, "v")
	}
	var errs []error
	for _, t := range []string{tag, alt} {
		rel, err := r.get(ctx, "tags/"+url.PathEscape(t))
		if err == nil {
			return rel, nil
		}
		if !errdefs.IsNotFound(err) {
			return nil, err
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (r *Resolver) get(ctx context.Context, which string) (*Release, error) {
	u := fmt.Sprintf("%s/repos/%s/releases/%s", r.apiURL(), r.repository(), which)
	logrus.Debugf("Querying release index %q", u)
	resp, err := httpclientutil.Get(ctx, r.client(), u, r.Header())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if httpclientutil.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: no release %q in %s: %v", errdefs.ErrNotFound, which, r.repository(), err)
		}
		return nil, fmt.Errorf("%w: failed to query %s: %v", errdefs.ErrUnavailable, u, err)
	}
	defer resp.Body.Close()
	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("%w: malformed response from %s: %v", errdefs.ErrUnavailable, u, err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("%w: release %q of %s has no tag", errdefs.ErrNotFound, which, r.repository())
	}
	return &rel, nil
}
