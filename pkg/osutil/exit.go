// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"errors"
	"os"
)

// HandleExitError exits with the status carried by err, such as the nonzero
// exit status of a child process. Other errors are left to the caller.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		os.Exit(exitErr.ExitCode()) //nolint:revive // it's intentional to call os.Exit in this function
	}
}
