// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// Transport is an [mcp.Transport] carrying one session of Content-Length framed
// messages over a pair of streams.
type Transport struct {
	Reader io.Reader
	Writer io.Writer
	// MaxBodySize <= 0 means DefaultMaxBodySize.
	MaxBodySize int64
}

// NewStdioTransport returns a Transport on os.Stdin and os.Stdout.
func NewStdioTransport(maxBodySize int64) *Transport {
	return &Transport{Reader: os.Stdin, Writer: os.Stdout, MaxBodySize: maxBodySize}
}

func (t *Transport) Connect(context.Context) (mcp.Connection, error) {
	c := &connection{
		conn:   NewConn(t.Reader, t.Writer, t.MaxBodySize),
		reader: t.Reader,
		frames: make(chan frame),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

type frame struct {
	body []byte
	err  error
}

type connection struct {
	conn   *Conn
	reader io.Reader
	frames chan frame

	closeOnce sync.Once
	closed    chan struct{}
}

var _ mcp.Connection = (*connection)(nil)

func (c *connection) readLoop() {
	for {
		body, err := c.conn.Read()
		select {
		case c.frames <- frame{body, err}:
		case <-c.closed:
			return
		}
		if err != nil && !Recoverable(err) {
			return
		}
	}
}

// Read returns the next decodable message.
// Undecodable messages and oversized bodies are answered with an error response
// carrying a null id, and reading continues.
func (c *connection) Read(ctx context.Context) (jsonrpc.Message, error) {
	for {
		var f frame
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.closed:
			return nil, io.EOF
		case f = <-c.frames:
		}
		if f.err != nil {
			if errors.Is(f.err, io.EOF) {
				logrus.Debug("client closed the stream")
				return nil, io.EOF
			}
			if !Recoverable(f.err) {
				return nil, fmt.Errorf("failed to read a message: %w", f.err)
			}
			logrus.WithError(f.err).Warn("discarded a message")
			if err := c.writeError(jsonrpc.CodeInvalidRequest, f.err); err != nil {
				return nil, err
			}
			continue
		}
		msg, err := jsonrpc.DecodeMessage(f.body)
		if err == nil {
			return msg, nil
		}
		code := int64(jsonrpc.CodeInvalidRequest)
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			code = jsonrpc.CodeParseError
		}
		logrus.WithError(err).Debug("received an undecodable message")
		if err := c.writeError(code, err); err != nil {
			return nil, err
		}
	}
}

// writeError writes a response to a message whose id could not be determined.
func (c *connection) writeError(code int64, cause error) error {
	b, err := json.Marshal(struct {
		JSONRPC string         `json:"jsonrpc"`
		ID      *jsonrpc.ID    `json:"id"`
		Error   *jsonrpc.Error `json:"error"`
	}{
		JSONRPC: "2.0",
		Error:   &jsonrpc.Error{Code: code, Message: cause.Error()},
	})
	if err != nil {
		return err
	}
	return c.write(b)
}

func (c *connection) Write(_ context.Context, msg jsonrpc.Message) error {
	b, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return c.write(b)
}

func (c *connection) write(b []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	if err := c.conn.Write(b); err != nil {
		return fmt.Errorf("failed to write a message: %w", err)
	}
	return nil
}

func (c *connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if closer, ok := c.reader.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (*connection) SessionID() string {
	return ""
}
