// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package errkind classifies errors into the kinds reported to MCP clients.
package errkind

import (
	"context"
	"errors"

	"github.com/containerd/errdefs"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/executil"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	NetworkError        Kind = "NetworkError"
	NotFound            Kind = "NotFound"
	UnsupportedPlatform Kind = "UnsupportedPlatform"
	InvalidRequest      Kind = "InvalidRequest"
	SpawnError          Kind = "SpawnError"
	Canceled            Kind = "Canceled"
	Internal            Kind = "Internal"
)

// Of returns the Kind of err. Unclassified errors are Internal.
func Of(err error) Kind {
	var spawnErr *executil.SpawnError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &spawnErr):
		return SpawnError
	case errdefs.IsInvalidArgument(err):
		return InvalidRequest
	case errdefs.IsNotImplemented(err):
		return UnsupportedPlatform
	case errdefs.IsNotFound(err):
		return NotFound
	case errdefs.IsUnavailable(err):
		return NetworkError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Canceled
	default:
		return Internal
	}
}
