// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"fmt"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/platform"
)

// SelectAsset picks the archive of rel built for p.
//
// The deterministic name "gdscript-formatter-<tag>-<os>-<arch>.zip" is preferred.
// Otherwise any "gdscript-formatter-*-<os>-<arch>*" zip or tar.gz archive is used.
// When the index lists no assets at all, the asset URL is built from
// DownloadURL, the repository, and the tag.
func (r *Resolver) SelectAsset(rel *Release, p platform.Platform) (Asset, error) {
	exact := p.AssetName(rel.TagName)
	if len(rel.Assets) == 0 {
		base := strings.TrimSuffix(r.DownloadURL, "/")
		if base == "" {
			base = DefaultDownloadURL
		}
		return Asset{
			Name: exact,
			URL:  fmt.Sprintf("%s/%s/releases/download/%s/%s", base, r.repository(), rel.TagName, exact),
		}, nil
	}
	for _, a := range rel.Assets {
		if a.Name == exact {
			return a, nil
		}
	}
	for _, a := range rel.Assets {
		if MatchesPlatform(a.Name, p) {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("%w: release %s has no asset for %s", errdefs.ErrNotFound, rel.TagName, p)
}

// MatchesPlatform reports whether an asset name is a formatter archive for p.
func MatchesPlatform(name string, p platform.Platform) bool {
	if !strings.HasPrefix(name, "gdscript-formatter-") {
		return false
	}
	if !strings.Contains(name, "-"+p.Triple()) {
		return false
	}
	return strings.HasSuffix(name, ".zip") || strings.HasSuffix(name, ".tar.gz")
}
