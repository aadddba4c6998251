// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package downloader fetches release archives into a local path, verifying
// the published digest on the fly.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
	"github.com/containerd/continuity/fs"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/httpclientutil"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/progressbar"
)

// HideProgress is used only for testing.
var HideProgress bool

type Status = string

const (
	StatusUnknown    Status = ""
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
)

type Result struct {
	Status          Status
	Size            int64
	ValidatedDigest bool
}

type options struct {
	description    string // default: url
	expectedDigest digest.Digest
	client         *http.Client
	header         http.Header
}

func (o *options) apply(opts []Opt) error {
	for _, f := range opts {
		if err := f(o); err != nil {
			return err
		}
	}
	return nil
}

type Opt func(*options) error

// WithDescription adds a user description of the download.
func WithDescription(description string) Opt {
	return func(o *options) error {
		o.description = description
		return nil
	}
}

// WithHTTPClient sets the client used for remote downloads (default: http.DefaultClient).
func WithHTTPClient(c *http.Client) Opt {
	return func(o *options) error {
		o.client = c
		return nil
	}
}

// WithHeader adds a request header for remote downloads.
func WithHeader(key, value string) Opt {
	return func(o *options) error {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Add(key, value)
		return nil
	}
}

// WithExpectedDigest is used to validate the downloaded file against the expected digest.
//
// The digest is not verified when it was not specified, or when the local target path already exists.
func WithExpectedDigest(expectedDigest digest.Digest) Opt {
	return func(o *options) error {
		if expectedDigest != "" {
			if !expectedDigest.Algorithm().Available() {
				return fmt.Errorf("expected digest algorithm %q is not available", expectedDigest.Algorithm())
			}
			if err := expectedDigest.Validate(); err != nil {
				return err
			}
		}

		o.expectedDigest = expectedDigest
		return nil
	}
}

// Download downloads the remote resource into the local path.
//
// The remote can be an http(s) URL, a file:// URL, or a plain local path.
// When the local path already exists, Download returns Result with StatusSkipped.
// The local path never holds a partial file: data is written to a temporary
// file next to it and renamed into place once the digest matched.
func Download(ctx context.Context, local, remote string, opts ...Opt) (*Result, error) {
	var o options
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if local == "" {
		return nil, errors.New("got empty local path")
	}
	localPath, err := filepath.Abs(local)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(localPath); err == nil {
		logrus.Debugf("file %q already exists, skipping downloading from %q (and skipping digest validation)", localPath, remote)
		return &Result{Status: StatusSkipped}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, err
	}

	var size int64
	if IsLocal(remote) {
		size, err = copyLocal(localPath, remote, o.expectedDigest)
	} else {
		size, err = downloadHTTP(ctx, localPath, remote, o)
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:          StatusDownloaded,
		Size:            size,
		ValidatedDigest: o.expectedDigest != "",
	}, nil
}

func IsLocal(s string) bool {
	return !strings.Contains(s, "://") || strings.HasPrefix(s, "file://")
}

// canonicalLocalPath strips the `file://` scheme and makes sure the path is absolute.
func canonicalLocalPath(s string) (string, error) {
	if s == "" {
		return "", errors.New("got empty path")
	}
	if !IsLocal(s) {
		return "", fmt.Errorf("got non-local path: %q", s)
	}
	if strings.HasPrefix(s, "file://") {
		res := strings.TrimPrefix(s, "file://")
		if !filepath.IsAbs(res) {
			return "", fmt.Errorf("got non-absolute path %q", res)
		}
		return res, nil
	}
	return filepath.Abs(s)
}

func copyLocal(dst, src string, expectedDigest digest.Digest) (int64, error) {
	srcPath, err := canonicalLocalPath(src)
	if err != nil {
		return 0, err
	}
	st, err := os.Stat(srcPath)
	if err != nil {
		return 0, err
	}
	if expectedDigest != "" {
		logrus.Debugf("verifying digest of local file %q (%s)", srcPath, expectedDigest)
	}
	if err := validateLocalFileDigest(srcPath, expectedDigest); err != nil {
		return 0, err
	}
	tmp := perProcessTempfile(dst)
	defer os.RemoveAll(tmp)
	if err := fs.CopyFile(tmp, srcPath); err != nil {
		return 0, err
	}
	return st.Size(), os.Rename(tmp, dst)
}

func validateLocalFileDigest(localPath string, expectedDigest digest.Digest) error {
	if expectedDigest == "" {
		return nil
	}
	algo := expectedDigest.Algorithm()
	if !algo.Available() {
		return fmt.Errorf("expected digest algorithm %q is not available", algo)
	}
	r, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer r.Close()
	actualDigest, err := algo.FromReader(r)
	if err != nil {
		return err
	}
	if actualDigest != expectedDigest {
		return fmt.Errorf("expected digest %q, got %q", expectedDigest, actualDigest)
	}
	return nil
}

func downloadHTTP(ctx context.Context, localPath, url string, o options) (int64, error) {
	logrus.Debugf("downloading %q into %q", url, localPath)

	client := o.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httpclientutil.Get(ctx, client, url, o.header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	description := o.description
	if description == "" {
		description = url
	}
	bar, err := progressbar.New(resp.ContentLength, filepath.Base(description))
	if err != nil {
		return 0, err
	}
	if HideProgress {
		bar.Set(pb.Static, true)
	}

	localPathTmp := perProcessTempfile(localPath)
	fileWriter, err := os.Create(localPathTmp)
	if err != nil {
		return 0, err
	}
	defer fileWriter.Close()
	defer os.RemoveAll(localPathTmp)

	writers := []io.Writer{fileWriter}
	var digester digest.Digester
	if o.expectedDigest != "" {
		digester = o.expectedDigest.Algorithm().Digester()
		writers = append(writers, digester.Hash())
	}

	if !HideProgress {
		logrus.Infof("Downloading %s", description)
	}
	bar.Start()
	n, err := io.Copy(io.MultiWriter(writers...), bar.NewProxyReader(resp.Body))
	bar.Finish()
	if err != nil {
		return 0, err
	}

	if digester != nil {
		if actualDigest := digester.Digest(); actualDigest != o.expectedDigest {
			return 0, fmt.Errorf("expected digest %q, got %q", o.expectedDigest, actualDigest)
		}
	}

	if err := fileWriter.Sync(); err != nil {
		return 0, err
	}
	if err := fileWriter.Close(); err != nil {
		return 0, err
	}
	return n, os.Rename(localPathTmp, localPath)
}

var tempfileCount atomic.Uint64

// perProcessTempfile returns a temporary name that is unique per process and per call,
// so parallel downloads into the same path never share a temporary file.
func perProcessTempfile(path string) string {
	return fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), tempfileCount.Add(1))
}
