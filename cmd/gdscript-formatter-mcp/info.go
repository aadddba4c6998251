// SPDX-FileCopyrightText: Copyright The gdscript-formatter-mcp Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/poyu0692/gdscript-formatter-mcp/pkg/batch"
	"github.com/poyu0692/gdscript-formatter-mcp/pkg/reducer"
)

func newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show information about the MCP server",
		Args:  WrapArgsError(cobra.NoArgs),
		RunE:  infoAction,
	}
	return cmd
}

func infoAction(cmd *cobra.Command, _ []string) error {
	info, err := inspectInfo(cmd.Context())
	if err != nil {
		return err
	}
	j, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(j))
	return err
}

// inspectInfo lists the tools without locating the formatter.
func inspectInfo(ctx context.Context) (*Info, error) {
	server, err := newToolServer(&batch.Executor{}, reducer.DefaultCaps())
	if err != nil {
		return nil, err
	}
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, err
	}
	toolsResult, err := clientSession.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, err
	}
	protocolVersion := clientSession.InitializeResult().ProtocolVersion
	if err = clientSession.Close(); err != nil {
		return nil, err
	}
	if err = serverSession.Wait(); err != nil {
		return nil, err
	}
	info := &Info{
		ProtocolVersion: protocolVersion,
		Tools:           toolsResult.Tools,
	}
	return info, nil
}

type Info struct {
	ProtocolVersion string      `json:"protocolVersion"`
	Tools           []*mcp.Tool `json:"tools"`
}
