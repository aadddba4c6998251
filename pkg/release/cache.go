// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// LatestCacheFile is the name of the latest-release cache under Resolver.CacheDir.
const LatestCacheFile = "latest.json"

type latestCache struct {
	Repository string    `json:"repository"`
	CheckedAt  time.Time `json:"checked_at"`
	Release    Release   `json:"release"`
}

func (r *Resolver) latestCachePath() string {
	if r.CacheDir == "" || r.TTL <= 0 {
		return ""
	}
	return filepath.Join(r.CacheDir, LatestCacheFile)
}

func (r *Resolver) loadLatest() *Release {
	p := r.latestCachePath()
	if p == "" {
		return nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil
	}
	var c latestCache
	if err := json.Unmarshal(b, &c); err != nil {
		logrus.WithError(err).Debugf("Ignoring malformed %q", p)
		return nil
	}
	if c.Repository != r.repository() || c.Release.TagName == "" {
		return nil
	}
	age := r.clock().Sub(c.CheckedAt)
	if age < 0 || age > r.TTL {
		return nil
	}
	return &c.Release
}

func (r *Resolver) storeLatest(rel *Release) {
	p := r.latestCachePath()
	if p == "" {
		return
	}
	b, err := json.MarshalIndent(latestCache{
		Repository: r.repository(),
		CheckedAt:  r.clock(),
		Release:    *rel,
	}, "", "  ")
	if err != nil {
		return
	}
	// Concurrent server instances may store at the same time.
	tmp := fmt.Sprintf("%s.tmp.%d", p, os.Getpid())
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		logrus.WithError(err).Debugf("Failed to write %q", tmp)
		return
	}
	if err := os.Rename(tmp, p); err != nil {
		logrus.WithError(err).Debugf("Failed to write %q", p)
		_ = os.Remove(tmp)
	}
}
