// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package localpathutil

import (
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestExpandHome(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"~", "/home/user"},
		{"~/bar", "/home/user/bar"},
		{"/abs/path", "/abs/path"},
		{"rel/~", "rel/~"},
		{"", ""},
	} {
		got, err := ExpandHome(tc.in, "/home/user")
		assert.NilError(t, err, tc.in)
		assert.Equal(t, got, tc.want, tc.in)
	}
	_, err := ExpandHome("~foo/bar", "/home/user")
	assert.ErrorContains(t, err, "unexpandable path")
}

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	d, err := Expand("~/foo")
	assert.NilError(t, err)
	assert.Equal(t, d, filepath.Join(home, "foo"))

	d, err = Expand("plain")
	assert.NilError(t, err)
	assert.Equal(t, d, "plain")
}
