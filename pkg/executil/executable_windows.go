// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package executil

import (
	"fmt"
	"os"
)

// IsExecutable returns nil if path is a regular file.
// Windows has no execute permission bit, so existence is all that is checked.
func IsExecutable(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", path)
	}
	return nil
}
