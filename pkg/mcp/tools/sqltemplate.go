package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-mapper/pkg/services"
	"github.com/ekaya-inc/ekaya-mapper/pkg/sqltemplate"
)

// SQLTemplateToolDeps contains dependencies for the template tools.
type SQLTemplateToolDeps struct {
	Service services.SQLTemplateService
}

// RegisterSQLTemplateTools adds render_sql_template and lint_sql_template.
func RegisterSQLTemplateTools(s *server.MCPServer, deps *SQLTemplateToolDeps) {
	registerRenderTool(s, deps)
	registerLintTool(s, deps)
}

func registerRenderTool(s *server.MCPServer, deps *SQLTemplateToolDeps) {
	tool := mcp.NewTool(
		"render_sql_template",
		mcp.WithDescription(
			"Render a MyBatis-style dynamic SQL template into a single SQL statement. "+
				"Supports <if>, <choose>/<when>/<otherwise>, <where>, <set>, <trim> and <foreach>. "+
				"#{name} values are rendered as SQL literals and listed in bindings; "+
				"${name} values are substituted raw and blocked when unsafe unless safeSubstitution is false. "+
				"Set dialect to also receive preparedSql with positional placeholders.",
		),
		mcp.WithString(
			"sqlTemplate",
			mcp.Required(),
			mcp.Description("The template text, either plain SQL or MyBatis markup"),
		),
		mcp.WithObject(
			"params",
			mcp.Description("Parameter values referenced by the template (an object, or a JSON string encoding one)"),
		),
		mcp.WithBoolean(
			"safeSubstitution",
			mcp.Description("Block unsafe ${} values (default: server setting)"),
		),
		mcp.WithString(
			"dialect",
			mcp.Description("Placeholder dialect for preparedSql"),
			mcp.Enum(
				string(sqltemplate.DialectPostgres),
				string(sqltemplate.DialectMySQL),
				string(sqltemplate.DialectSQLite),
				string(sqltemplate.DialectSQLServer),
			),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return executeAction(ctx, deps, sqltemplate.ActionRender, req)
	})
}

func registerLintTool(s *server.MCPServer, deps *SQLTemplateToolDeps) {
	tool := mcp.NewTool(
		"lint_sql_template",
		mcp.WithDescription(
			"Check a MyBatis-style SQL template for unbalanced tags and risky placeholders without rendering it. "+
				"Returns a list of issues with line numbers; an empty list means no problems were found.",
		),
		mcp.WithString(
			"sqlTemplate",
			mcp.Required(),
			mcp.Description("The template text to check"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return executeAction(ctx, deps, sqltemplate.ActionLint, req)
	})
}

// executeAction re-encodes the tool arguments as the action's request
// document, so tool calls and HTTP requests decode the same way.
func executeAction(ctx context.Context, deps *SQLTemplateToolDeps, action string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	if args == nil {
		args = map[string]any{}
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}

	result, err := deps.Service.Execute(ctx, action, payload)
	if err != nil {
		if errResult := NewInputErrorResult(err); errResult != nil {
			return errResult, nil
		}
		return nil, err
	}

	jsonResult, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonResult)), nil
}
