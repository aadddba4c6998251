// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package targets

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
)

const script = "extends Node\n"

func TestSelectDirIncludeExclude(t *testing.T) {
	dir := fs.NewDir(t, "targets",
		fs.WithFile("a.gd", script),
		fs.WithFile("b.txt", "x\n"),
		fs.WithDir("sub",
			fs.WithFile("c.gd", script),
			fs.WithFile("d.gd", script),
		),
	)
	files, err := Select(Selection{
		Dir:     dir.Path(),
		Include: []string{"**/*.gd"},
		Exclude: []string{"sub/d.gd"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, files, []string{dir.Join("a.gd"), dir.Join("sub", "c.gd")})
}

func TestSelectDefaultInclude(t *testing.T) {
	dir := fs.NewDir(t, "targets",
		fs.WithFile("a.gd", script),
		fs.WithFile("a.gd.uid", "uid://x"),
		fs.WithDir("scenes", fs.WithFile("main.tscn", "[gd_scene]"), fs.WithFile("main.gd", script)),
	)
	files, err := Select(Selection{Dir: dir.Path()})
	assert.NilError(t, err)
	assert.DeepEqual(t, files, []string{dir.Join("a.gd"), dir.Join("scenes", "main.gd")})
}

func TestSelectExcludeWinsOverVendor(t *testing.T) {
	var ops []fs.PathOp
	for i := range 17 {
		ops = append(ops, fs.WithFile(fmt.Sprintf("f%02d.gd", i), script))
	}
	var vendor []fs.PathOp
	for i := range 3 {
		vendor = append(vendor, fs.WithFile(fmt.Sprintf("v%d.gd", i), script))
	}
	dir := fs.NewDir(t, "targets", fs.WithDir("addons", append(ops, fs.WithDir("lib", fs.WithDir("vendor", vendor...)))...))

	files, err := Select(Selection{
		Dir:     dir.Join("addons"),
		Include: []string{"**/*.gd"},
		Exclude: []string{"**/vendor/**"},
	})
	assert.NilError(t, err)
	assert.Equal(t, len(files), 17)

	// A path matched by both sets is excluded.
	files, err = Select(Selection{
		Dir:     dir.Join("addons"),
		Include: []string{"f00.gd"},
		Exclude: []string{"f00.gd"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, files, []string{}, cmpopts.EquateEmpty())
}

func TestSelectDeduplicates(t *testing.T) {
	dir := fs.NewDir(t, "targets", fs.WithFile("a.gd", script), fs.WithFile("b.gd", script))
	wd, err := os.Getwd()
	assert.NilError(t, err)
	relB, err := filepath.Rel(wd, dir.Join("b.gd"))
	assert.NilError(t, err)

	files, err := Select(Selection{
		Files:   []string{dir.Join("b.gd"), relB, dir.Join("sub", "..", "b.gd"), "missing.gd"},
		Dir:     dir.Path(),
		Include: []string{"*.gd"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, files, []string{dir.Join("b.gd"), "missing.gd", dir.Join("a.gd")})
}

func TestSelectSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	outside := fs.NewDir(t, "outside", fs.WithFile("secret.gd", script))
	dir := fs.NewDir(t, "targets",
		fs.WithFile("a.gd", script),
		fs.WithSymlink("linked", outside.Path()),
		fs.WithSymlink("link.gd", outside.Join("secret.gd")),
	)
	files, err := Select(Selection{Dir: dir.Path()})
	assert.NilError(t, err)
	assert.DeepEqual(t, files, []string{dir.Join("a.gd")})
}

func TestSelectInvalid(t *testing.T) {
	dir := fs.NewDir(t, "targets", fs.WithFile("a.gd", script))
	for name, sel := range map[string]Selection{
		"empty":                {},
		"include without dir":  {Files: []string{"a.gd"}, Include: []string{"**/*.gd"}},
		"exclude without dir":  {Files: []string{"a.gd"}, Exclude: []string{"x"}},
		"missing dir":          {Dir: dir.Join("nope")},
		"dir is a file":        {Dir: dir.Join("a.gd")},
		"invalid include glob": {Dir: dir.Path(), Include: []string{"[a"}},
		"invalid exclude glob": {Dir: dir.Path(), Exclude: []string{"{a"}},
		"empty file path":      {Files: []string{""}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Select(sel)
			assert.Assert(t, errdefs.IsInvalidArgument(err), err)
		})
	}
}
