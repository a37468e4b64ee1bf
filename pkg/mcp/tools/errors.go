package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Returning it as a tool result keeps the error visible to the calling
// model instead of being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can fix (empty template, bad markup).
// System failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewInputErrorResult converts a caller error from the template engine into
// a structured tool result. Returns nil if err is not a caller error; the
// tool should return the Go error instead.
//
//	result, err := service.Execute(ctx, action, payload)
//	if err != nil {
//	    if errResult := NewInputErrorResult(err); errResult != nil {
//	        return errResult, nil
//	    }
//	    return nil, err
//	}
func NewInputErrorResult(err error) *mcp.CallToolResult {
	if !apperrors.IsInputError(err) {
		return nil
	}
	return NewErrorResult(apperrors.Code(err), err.Error())
}
