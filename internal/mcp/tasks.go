// Package mcp exposes session task actions as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/orchestrator"
)

// StatusTool is the name of the session status tool.
const StatusTool = "status"

// Runner performs actions for the tool server.
type Runner interface {
	Run(ctx context.Context, action orchestrator.Action) error
	Status() orchestrator.Status
}

type taskServerRunner func(ctx context.Context, server *mcp.Server) error

// RunTaskServer serves task tools over stdio until ctx ends or the client
// disconnects.
func RunTaskServer(ctx context.Context, version string, runner Runner) error {
	return runTaskServer(ctx, version, runner, defaultTaskServerRunner)
}

func runTaskServer(ctx context.Context, version string, runner Runner, serve taskServerRunner) error {
	if serve == nil {
		return fmt.Errorf(messages.McpRunTaskServerFailedFmt, errors.New(messages.McpRunnerRequired))
	}
	server, err := NewTaskServer(version, runner)
	if err != nil {
		return err
	}
	if err := serve(ctx, server); err != nil {
		return fmt.Errorf(messages.McpRunTaskServerFailedFmt, err)
	}
	return nil
}

// defaultTaskServerRunner runs the server over stdio.
func defaultTaskServerRunner(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewTaskServer builds a server with one tool per task action plus status.
func NewTaskServer(version string, runner Runner) (*mcp.Server, error) {
	if runner == nil {
		return nil, errors.New(messages.McpRunnerRequired)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pio-layer",
		Version: version,
	}, nil)

	for _, action := range orchestrator.Actions() {
		if !action.IsTask() {
			continue
		}
		mcp.AddTool(server, &mcp.Tool{
			Name:        string(action),
			Description: fmt.Sprintf(messages.McpTaskToolDescriptionFmt, action),
		}, taskHandler(runner, action))
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        StatusTool,
		Description: messages.McpStatusToolDescription,
	}, statusHandler(runner))
	return server, nil
}

type noInput struct{}

func taskHandler(runner Runner, action orchestrator.Action) mcp.ToolHandlerFor[noInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, any, error) {
		if err := runner.Run(ctx, action); err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			}, nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(messages.McpTaskDispatchedFmt, action)}},
		}, nil, nil
	}
}

func statusHandler(runner Runner) mcp.ToolHandlerFor[noInput, any] {
	return func(context.Context, *mcp.CallToolRequest, noInput) (*mcp.CallToolResult, any, error) {
		data, err := json.Marshal(runner.Status())
		if err != nil {
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	}
}
