package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
)

// getTextContent extracts the text string from the first text content item
func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	jsonBytes, _ := json.Marshal(result.Content[0])
	var textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	json.Unmarshal(jsonBytes, &textContent)
	return textContent.Text
}

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("test_error", "this is a test error")

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	assert.True(t, result.IsError)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))

	assert.True(t, errResp.Error, "error field should be true")
	assert.Equal(t, "test_error", errResp.Code)
	assert.Equal(t, "this is a test error", errResp.Message)
	assert.Nil(t, errResp.Details, "details should be nil when not provided")
}

func TestNewErrorResultWithDetails(t *testing.T) {
	details := map[string]any{
		"line":  3,
		"issue": "unclosed tag <if>",
	}

	result := NewErrorResultWithDetails("invalid_markup", "invalid mybatis xml", details)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))

	assert.Equal(t, "invalid_markup", errResp.Code)
	detailsMap, ok := errResp.Details.(map[string]any)
	require.True(t, ok, "details should be a map")
	assert.Equal(t, float64(3), detailsMap["line"]) // JSON numbers are float64
	assert.Equal(t, "unclosed tag <if>", detailsMap["issue"])
}

func TestErrorResponse_JSONStructure(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		details  any
		wantJSON string
	}{
		{
			name:     "simple error without details",
			code:     "empty_template",
			message:  "sqlTemplate is empty",
			wantJSON: `{"error":true,"code":"empty_template","message":"sqlTemplate is empty"}`,
		},
		{
			name:     "error with string details",
			code:     "unsupported_dialect",
			message:  "unsupported placeholder dialect: oracle",
			details:  "supported: postgres, mysql, sqlite, sqlserver",
			wantJSON: `{"error":true,"code":"unsupported_dialect","message":"unsupported placeholder dialect: oracle","details":"supported: postgres, mysql, sqlite, sqlserver"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewErrorResultWithDetails(tt.code, tt.message, tt.details)
			assert.JSONEq(t, tt.wantJSON, getTextContent(result))
		})
	}
}

func TestNewInputErrorResult(t *testing.T) {
	t.Run("input error", func(t *testing.T) {
		err := fmt.Errorf("%w: oracle", apperrors.ErrUnsupportedDialect)

		result := NewInputErrorResult(err)
		require.NotNil(t, result)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))
		assert.Equal(t, "unsupported_dialect", errResp.Code)
		assert.Equal(t, "unsupported placeholder dialect: oracle", errResp.Message)
	})

	t.Run("server error", func(t *testing.T) {
		assert.Nil(t, NewInputErrorResult(errors.New("connection reset")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, NewInputErrorResult(nil))
	})
}
