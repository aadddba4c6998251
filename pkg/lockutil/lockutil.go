// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockutil provides advisory file locks shared between processes.
package lockutil

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// WithLock runs fn while holding an exclusive lock on the file at path.
// The file is created when missing and is left in place afterwards.
func WithLock(path string, fn func() error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := lock(f); err != nil {
		return fmt.Errorf("failed to lock %q: %w", path, err)
	}
	defer func() {
		if err := unlock(f); err != nil {
			logrus.WithError(err).Errorf("failed to unlock %q", path)
		}
	}()
	return fn()
}
