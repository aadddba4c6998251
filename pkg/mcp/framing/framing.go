// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package framing implements "Content-Length" framing of JSON-RPC messages
// on a byte stream:
//
//	Content-Length: <n>\r\n
//	\r\n
//	<n bytes of JSON>
package framing

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/docker/go-units"
)

// DefaultMaxBodySize bounds a single message body.
const DefaultMaxBodySize = 64 * units.MiB

var (
	// ErrBodyTooLarge is returned for a message whose declared length exceeds the limit.
	// The body has been discarded, so the next Read starts at the next message.
	ErrBodyTooLarge = errors.New("framing: message body too large")
	// ErrMissingLength is returned for a header block without Content-Length.
	ErrMissingLength = errors.New("framing: missing Content-Length header")
	// ErrInvalidLength is returned for an unparsable or negative Content-Length.
	ErrInvalidLength = errors.New("framing: invalid Content-Length header")
	// ErrMalformedHeader is returned for a header line without a colon.
	ErrMalformedHeader = errors.New("framing: malformed header line")
)

// Recoverable reports whether the stream can still be read after err.
// Only an oversized body is recoverable: every other framing error leaves
// the reader at an unknown offset.
func Recoverable(err error) bool {
	return errors.Is(err, ErrBodyTooLarge)
}

// Conn reads and writes framed messages.
type Conn struct {
	r           *bufio.Reader
	maxBodySize int64

	wmu sync.Mutex
	w   io.Writer
}

// NewConn returns a Conn. maxBodySize <= 0 means DefaultMaxBodySize.
func NewConn(r io.Reader, w io.Writer, maxBodySize int64) *Conn {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &Conn{r: bufio.NewReader(r), w: w, maxBodySize: maxBodySize}
}

// Read returns the body of the next message.
// It returns io.EOF when the stream ends cleanly between two messages,
// and io.ErrUnexpectedEOF when it ends inside a message.
func (c *Conn) Read() ([]byte, error) {
	length, err := c.readHeader()
	if err != nil {
		return nil, err
	}
	if length > c.maxBodySize {
		if _, err := io.CopyN(io.Discard, c.r, length); err != nil {
			return nil, unexpected(err)
		}
		return nil, fmt.Errorf("%w: %s > %s", ErrBodyTooLarge,
			units.BytesSize(float64(length)), units.BytesSize(float64(c.maxBodySize)))
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, unexpected(err)
	}
	return body, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (c *Conn) readHeader() (int64, error) {
	length := int64(-1)
	seenHeader := false
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && !seenHeader && strings.TrimSpace(line) == "" {
				return 0, io.EOF
			}
			return 0, unexpected(err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if !seenHeader {
				// Tolerate blank lines between messages.
				continue
			}
			break
		}
		seenHeader = true
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidLength, value)
		}
		length = n
	}
	if length < 0 {
		return 0, ErrMissingLength
	}
	return length, nil
}

// Write writes body as one framed message. It is safe for concurrent use.
func (c *Conn) Write(body []byte) error {
	msg := make([]byte, 0, len(body)+32)
	msg = append(msg, "Content-Length: "...)
	msg = strconv.AppendInt(msg, int64(len(body)), 10)
	msg = append(msg, "\r\n\r\n"...)
	msg = append(msg, body...)

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.w.Write(msg)
	return err
}
