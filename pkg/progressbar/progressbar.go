// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package progressbar

import (
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// ProgressBar reports download progress on stderr.
type ProgressBar struct {
	*pb.ProgressBar
}

// New creates a bar for size bytes. A non-positive size renders a bar without total.
// The bar is rendered statically (only on Finish) unless stderr is a terminal
// and the standard logger uses the text format.
func New(size int64, description string) (*ProgressBar, error) {
	bar := &ProgressBar{pb.New64(size)}

	bar.Set(pb.Bytes, true)
	bar.SetWriter(os.Stderr)

	if ShowProgress() {
		tmpl := `{{counters . }} {{bar . | green }} {{percent .}} {{speed . "%s/s"}}`
		if description != "" {
			tmpl = description + ": " + tmpl
		}
		bar.SetTemplateString(tmpl)
		bar.SetRefreshRate(200 * time.Millisecond)
	} else {
		bar.Set(pb.Static, true)
	}

	bar.SetWidth(80)
	if err := bar.Err(); err != nil {
		return nil, err
	}

	return bar, nil
}

// ShowProgress returns true if the progress can be rendered interactively.
func ShowProgress() bool {
	// Progress supports only text format now.
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		return false
	}

	// stdout carries the protocol stream, so only stderr is considered.
	logFd := os.Stderr.Fd()
	return isatty.IsTerminal(logFd) || isatty.IsCygwinTerminal(logFd)
}
