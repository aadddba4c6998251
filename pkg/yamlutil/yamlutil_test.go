// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package yamlutil

import (
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"gotest.tools/v3/assert"
)

func TestMarshal(t *testing.T) {
	type doc struct {
		Name  string   `yaml:"name"`
		Items []string `yaml:"items"`
	}
	in := doc{Name: "a", Items: []string{"x", "y"}}
	b, err := Marshal(in)
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(string(b), "name: a\n"))
	assert.Assert(t, !strings.Contains(string(b), "\r\n"))

	var out doc
	assert.NilError(t, yaml.Unmarshal(b, &out))
	assert.DeepEqual(t, out, in)
}
