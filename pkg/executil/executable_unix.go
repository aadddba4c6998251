// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package executil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// IsExecutable returns nil if path is a regular file the current user may execute.
func IsExecutable(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", path)
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%q is not executable: %w", path, err)
	}
	return nil
}
