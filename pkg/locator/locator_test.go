// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/containerd/errdefs"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/downloader"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/platform"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/release"
)

func TestMain(m *testing.M) {
	downloader.HideProgress = true
	os.Exit(m.Run())
}

func formatterZip(t *testing.T) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	hdr := &zip.FileHeader{Name: "gdscript-formatter"}
	hdr.SetMode(0o755)
	w, err := zw.CreateHeader(hdr)
	assert.NilError(t, err)
	_, err = w.Write([]byte("#!/bin/sh\n"))
	assert.NilError(t, err)
	assert.NilError(t, zw.Close())
	return buf.Bytes()
}

type fakeGitHub struct {
	*httptest.Server
	requests atomic.Int32
}

// newFakeGitHub serves the latest release "0.18.1" and the tag "v1.2.3".
func newFakeGitHub(t *testing.T) *fakeGitHub {
	archive := formatterZip(t)
	gh := &fakeGitHub{}
	gh.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gh.requests.Add(1)
		rel := func(tag string) release.Release {
			return release.Release{TagName: tag, Assets: []release.Asset{{
				Name: "gdscript-formatter-" + tag + "-linux-x86_64.zip",
				URL:  gh.URL + "/download/" + tag + ".zip",
			}}}
		}
		switch r.URL.Path {
		case "/repos/GDQuest/GDScript-formatter/releases/latest":
			_ = json.NewEncoder(w).Encode(rel("0.18.1"))
		case "/repos/GDQuest/GDScript-formatter/releases/tags/v1.2.3":
			_ = json.NewEncoder(w).Encode(rel("v1.2.3"))
		case "/download/0.18.1.zip", "/download/v1.2.3.zip":
			_, _ = w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(gh.Close)
	return gh
}

func testPlatform(t *testing.T) *platform.Platform {
	if runtime.GOOS == "windows" {
		t.Skip("archives in these tests carry a unix executable")
	}
	p, err := platform.For("linux", "amd64")
	assert.NilError(t, err)
	return &p
}

func TestResolveOverride(t *testing.T) {
	p := testPlatform(t)
	dir := fs.NewDir(t, "locator", fs.WithFile("fmt", "#!/bin/sh\n", fs.WithMode(0o755)))
	l := New(Options{OverridePath: dir.Join("fmt"), CacheRoot: dir.Path(), Platform: p})
	res, err := l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.DeepEqual(t, *res, ResolvedBinary{Path: dir.Join("fmt"), Source: SourceOverride})

	l = New(Options{OverridePath: dir.Join("missing"), CacheRoot: dir.Path(), Platform: p})
	_, err = l.Resolve(context.Background())
	assert.Assert(t, errdefs.IsNotFound(err), err)
}

func TestResolveLatestThenCached(t *testing.T) {
	p := testPlatform(t)
	gh := newFakeGitHub(t)
	root := fs.NewDir(t, "locator")

	l := New(Options{CacheRoot: root.Path(), Platform: p, Resolver: &release.Resolver{APIURL: gh.URL}})
	res, err := l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, res.Version, "0.18.1")
	assert.Equal(t, res.Source, SourceInstalled)
	assert.Equal(t, gh.requests.Load(), int32(2))

	// Memoized in-process.
	res2, err := l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, res2.Path, res.Path)
	assert.Equal(t, gh.requests.Load(), int32(2))

	// A new process only queries the index; the archive is not downloaded again.
	l = New(Options{CacheRoot: root.Path(), Platform: p, Resolver: &release.Resolver{APIURL: gh.URL}})
	res3, err := l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, res3.Source, SourceCached)
	assert.Equal(t, gh.requests.Load(), int32(3))
}

func TestResolvePinned(t *testing.T) {
	p := testPlatform(t)
	gh := newFakeGitHub(t)
	root := fs.NewDir(t, "locator")

	l := New(Options{Version: "1.2.3", CacheRoot: root.Path(), Platform: p, Resolver: &release.Resolver{APIURL: gh.URL}})
	res, err := l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, res.Version, "1.2.3")
	assert.Equal(t, res.Source, SourceInstalled)
	n := gh.requests.Load()

	l = New(Options{Version: "v1.2.3", CacheRoot: root.Path(), Platform: p, Resolver: &release.Resolver{APIURL: gh.URL}})
	res, err = l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, res.Source, SourceCached)
	assert.Equal(t, gh.requests.Load(), n, "a pinned installed version must not hit the network")
}

func TestResolveOfflineFallback(t *testing.T) {
	p := testPlatform(t)
	gh := newFakeGitHub(t)
	gh.Close()
	root := fs.NewDir(t, "locator",
		fs.WithDir("versions",
			fs.WithDir("0.17.0", fs.WithFile("gdscript-formatter", "#!/bin/sh\n", fs.WithMode(0o755)))))

	l := New(Options{CacheRoot: root.Path(), Platform: p, Resolver: &release.Resolver{APIURL: gh.URL}})
	res, err := l.Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, res.Version, "0.17.0")
	assert.Equal(t, res.Source, SourceCached)

	empty := fs.NewDir(t, "locator")
	l = New(Options{CacheRoot: empty.Path(), Platform: p, Resolver: &release.Resolver{APIURL: gh.URL}})
	_, err = l.Resolve(context.Background())
	assert.Assert(t, errdefs.IsUnavailable(err), err)
}
