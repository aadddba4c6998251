// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

//nolint:revive // var-naming: avoid package names that conflict with Go standard library package names
package version

// Version is filled on compilation time.
var Version = "<unknown>"

// Name is the server name reported to MCP clients and used for cache and config directories.
const Name = "gdscript-formatter-mcp"
