// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package targets expands a file selection into the ordered set of files a batch processes.
package targets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/containerd/errdefs"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultInclude selects every GDScript file under the directory.
var DefaultInclude = []string{"**/*.gd"}

// Selection is the file selection of a tool request.
type Selection struct {
	// Files are used verbatim. Their existence is checked when they are processed.
	Files []string
	// Dir is walked recursively. Symbolic links are not followed.
	Dir string
	// Include and Exclude are doublestar patterns matched against the
	// slash-separated path relative to Dir. Exclude always wins.
	Include []string
	Exclude []string
}

// IsEmpty returns true if neither files nor a directory were given.
func (s Selection) IsEmpty() bool {
	return len(s.Files) == 0 && s.Dir == ""
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errdefs.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Validate checks the selection without touching the file system.
func (s Selection) Validate() error {
	if s.IsEmpty() {
		return invalid("either `files` or `dir` is required")
	}
	if s.Dir == "" && (len(s.Include) > 0 || len(s.Exclude) > 0) {
		return invalid("`include`/`exclude` can only be used with `dir`")
	}
	for _, f := range s.Files {
		if f == "" {
			return invalid("`files` must not contain empty paths")
		}
	}
	for _, p := range s.Include {
		if !doublestar.ValidatePattern(p) {
			return invalid("invalid glob in `include`: %q", p)
		}
	}
	for _, p := range s.Exclude {
		if !doublestar.ValidatePattern(p) {
			return invalid("invalid glob in `exclude`: %q", p)
		}
	}
	return nil
}

// Select returns the de-duplicated target files: explicit files first, then the
// matching files of the directory in lexical walk order. Two paths are the same
// target when they resolve to the same absolute path.
func Select(s Selection) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	set := orderedmap.New[string, string]()
	add := func(p string) {
		key := canonical(p)
		if _, ok := set.Get(key); !ok {
			set.Set(key, p)
		}
	}
	for _, f := range s.Files {
		add(f)
	}
	if s.Dir != "" {
		files, err := walk(s.Dir, s.Include, s.Exclude)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	res := make([]string, 0, set.Len())
	for pair := set.Oldest(); pair != nil; pair = pair.Next() {
		res = append(res, pair.Value)
	}
	return res, nil
}

func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func walk(dir string, include, exclude []string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, invalid("`dir` does not exist: %s", dir)
		}
		return nil, err
	}
	if !st.IsDir() {
		return nil, invalid("`dir` is not a directory: %s", dir)
	}
	if len(include) == 0 {
		include = DefaultInclude
	}
	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk directory %q: %w", dir, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(include, rel) || matchAny(exclude, rel) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	return files, err
}
