package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// mcpBridge exposes a running daemon's gateway API as MCP tools over stdio,
// so assistants can inspect and act on the notification shelf.
type mcpBridge struct {
	endpoint string
	client   *http.Client
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the gateway API as MCP tools over stdio",
		RunE: func(c *cobra.Command, _ []string) error {
			endpoint, _ := c.Flags().GetString("endpoint")
			bridge := &mcpBridge{
				endpoint: endpoint,
				client:   &http.Client{Timeout: 10 * time.Second},
			}
			return server.ServeStdio(bridge.buildServer())
		},
	}
	cmd.Flags().String("endpoint", "http://127.0.0.1:8080", "Gateway base URL of the running daemon")
	return cmd
}

func (b *mcpBridge) buildServer() *server.MCPServer {
	s := server.NewMCPServer("notifierd", version)

	s.AddTool(
		mcp.NewTool("list_notifications",
			mcp.WithDescription("List the currently active notifications on the shelf"),
		),
		b.handleListNotifications,
	)
	s.AddTool(
		mcp.NewTool("update_notifications",
			mcp.WithDescription("Rebuild notifications from the message store"),
			mcp.WithString("conversation_id",
				mcp.Description("Conversation whose message state changed; empty with scope messages cancels all message notifications"),
			),
			mcp.WithString("scope",
				mcp.Description("Which classes to rebuild: messages, errors or all (default all)"),
			),
		),
		b.handleUpdate,
	)
	s.AddTool(
		mcp.NewTool("mark_seen",
			mcp.WithDescription("Mark a conversation's messages seen and retire its notification"),
			mcp.WithString("conversation_id", mcp.Required(),
				mcp.Description("Conversation to mark seen"),
			),
		),
		b.handleMarkSeen,
	)
	s.AddTool(
		mcp.NewTool("mark_all_seen",
			mcp.WithDescription("Mark every message seen and retire all message notifications"),
		),
		b.handleMarkAllSeen,
	)

	return s
}

func (b *mcpBridge) handleListNotifications(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := b.call(ctx, http.MethodGet, "/api/notifications", nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (b *mcpBridge) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload := map[string]string{
		"conversation_id": req.GetString("conversation_id", ""),
		"scope":           req.GetString("scope", "all"),
	}
	if _, err := b.call(ctx, http.MethodPost, "/api/update", payload); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (b *mcpBridge) handleMarkSeen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := b.call(ctx, http.MethodPost, "/api/conversations/"+id+"/seen", nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (b *mcpBridge) handleMarkAllSeen(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := b.call(ctx, http.MethodPost, "/api/seen", nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

// call performs one gateway request and returns the response body, treating
// any non-2xx status as an error.
func (b *mcpBridge) call(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}
	return data, nil
}
