// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/batch"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/cachedir"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/config"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/locator"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/release"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/version"
)

func userAgent() string {
	return version.Name + "/" + version.Version
}

func newResolver(cfg *config.Config, cacheRoot string) *release.Resolver {
	return &release.Resolver{
		APIURL:     cfg.ReleaseAPI,
		Repository: cfg.Repository,
		Client:     &http.Client{Timeout: cfg.HTTPTimeout},
		Token:      cfg.GitHubToken,
		UserAgent:  userAgent(),
		CacheDir:   cacheRoot,
		TTL:        cfg.ReleaseCheckInterval,
	}
}

func newLocator(cfg *config.Config) (*locator.Locator, error) {
	root, err := cachedir.Resolve(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Using cache root %q", root)
	return locator.New(locator.Options{
		OverridePath: cfg.FormatterPath,
		Version:      cfg.Version,
		CacheRoot:    root,
		Resolver:     newResolver(cfg, root),
	}), nil
}

func newExecutor(cfg *config.Config, loc *locator.Locator) *batch.Executor {
	return &batch.Executor{
		Tool:        &batch.ExternalTool{Locator: loc},
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.ProcessTimeout,
	}
}
