package tools

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// Tool is the interface that all MCP tool implementations must satisfy
type Tool interface {
	// Definition returns the tool's definition for MCP registration
	Definition() mcp.Tool

	// Execute runs the tool with the shared logger and cache and the parsed arguments
	Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error)
}

// ExtendedHelpProvider is implemented by tools that can describe themselves
// beyond their schema, for `tools help`
type ExtendedHelpProvider interface {
	ProvideExtendedInfo() *ExtendedHelp
}

// ExtendedHelp contains examples and usage notes for a tool
type ExtendedHelp struct {
	Examples         []ToolExample     `json:"examples,omitempty"`
	ParameterDetails map[string]string `json:"parameter_details,omitempty"`
	WhenToUse        string            `json:"when_to_use,omitempty"`
	WhenNotToUse     string            `json:"when_not_to_use,omitempty"`
}

// ToolExample is a sample invocation and what it produces
type ToolExample struct {
	Description    string         `json:"description"`
	Arguments      map[string]any `json:"arguments"`
	ExpectedResult string         `json:"expected_result,omitempty"`
}
