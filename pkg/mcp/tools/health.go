package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-mapper/pkg/sqltemplate"
)

type healthResult struct {
	Status   string   `json:"status"`
	Version  string   `json:"version"`
	Actions  []string `json:"actions"`
	Dialects []string `json:"dialects"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server status, version and the supported actions
// and placeholder dialects.
func RegisterHealthTool(s *server.MCPServer, version string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := json.Marshal(healthResult{
			Status:  "ok",
			Version: version,
			Actions: []string{sqltemplate.ActionRender, sqltemplate.ActionLint},
			Dialects: []string{
				string(sqltemplate.DialectPostgres),
				string(sqltemplate.DialectMySQL),
				string(sqltemplate.DialectSQLite),
				string(sqltemplate.DialectSQLServer),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
