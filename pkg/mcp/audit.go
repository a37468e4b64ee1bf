package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/auth"
	"github.com/ekaya-inc/ekaya-mapper/pkg/logging"
	"github.com/ekaya-inc/ekaya-mapper/pkg/middleware"
)

// AuditLogger records the outcome of every MCP tool call.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger that records MCP tool calls.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	fields := a.commonFields(ctx, id, req)
	if code, isError := resultErrorCode(result); isError {
		fields = append(fields,
			zap.Bool("success", false),
			zap.String("error_code", code))
		a.logger.Info("MCP tool call rejected input", fields...)
		return
	}

	fields = append(fields, zap.Bool("success", true))
	a.logger.Info("MCP tool call", fields...)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	fields := append(a.commonFields(ctx, id, req),
		zap.Bool("success", false),
		zap.String("error", logging.SanitizeError(err)))
	a.logger.Warn("MCP tool call failed", fields...)
}

func (a *AuditLogger) commonFields(ctx context.Context, id any, req *mcplib.CallToolRequest) []zap.Field {
	startTime := a.loadAndDeleteStart(id)

	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()),
		zap.Any("arguments", sanitizeParams(req.Params.Arguments)),
	}
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID := auth.GetUserIDFromContext(ctx); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	return fields
}

func (a *AuditLogger) loadAndDeleteStart(id any) time.Time {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time)
	}
	return time.Now()
}

// sensitiveKeys are argument names whose values are hashed before logging.
var sensitiveKeys = []string{"password", "secret", "token", "api_key", "apikey", "credential"}

// sanitizeParams sanitizes tool arguments before they are logged:
// sensitive values are hashed, template text has its string literals
// redacted and long strings are truncated.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveKey(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		if isSQLParam(key) {
			return logging.SanitizeQuery(val)
		}
		return logging.TruncateString(val, logging.MaxQueryLogLength)
	case map[string]any:
		return sanitizeParams(val)
	case []any:
		return fmt.Sprintf("[%d items]", len(val))
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// isSQLParam returns true if a parameter key likely contains SQL.
func isSQLParam(key string) bool {
	lower := strings.ToLower(key)
	return lower == "sql" || lower == "sqltemplate" || strings.HasSuffix(lower, "_sql")
}

// hashSensitiveValue returns a SHA-256 hash prefix for sensitive values,
// allowing correlation across log entries without storing the actual value.
func hashSensitiveValue(value any) string {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		str = fmt.Sprintf("%v", v)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// resultErrorCode reports whether result is an error result and, if so, the
// code from its structured error body.
func resultErrorCode(result *mcplib.CallToolResult) (string, bool) {
	if result == nil || !result.IsError {
		return "", false
	}

	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		var body struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal([]byte(tc.Text), &body); err == nil && body.Code != "" {
			return body.Code, true
		}
	}
	return "unknown", true
}
