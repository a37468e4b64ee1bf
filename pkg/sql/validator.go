// Package sql provides checks over rendered SQL text: statement counting,
// injection detection on substituted values and placeholder placement.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleStatements indicates the SQL contains more than one statement.
	ErrMultipleStatements = errors.New("multiple SQL statements detected; rendered SQL should be a single statement")
)

// ValidationResult contains the normalized SQL and any validation error.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize checks SQL for multiple statements and strips the
// trailing semicolon.
//
// The validation order is:
// 1. Strip trailing semicolon and whitespace (normalize)
// 2. Check for multiple statements (any remaining semicolons outside string
// literals, quoted identifiers and comments)
func ValidateAndNormalize(sqlText string) ValidationResult {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return ValidationResult{NormalizedSQL: sqlText}
	}

	normalized := stripTrailingSemicolon(sqlText)
	if hasSemicolonOutsideStrings(normalized) {
		return ValidationResult{NormalizedSQL: normalized, Error: ErrMultipleStatements}
	}
	return ValidationResult{NormalizedSQL: normalized}
}

// hasSemicolonOutsideStrings returns true if the SQL contains a semicolon
// that is not inside a quoted string, a quoted identifier or a comment.
func hasSemicolonOutsideStrings(sqlText string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	prev := byte(0)

	for i := 0; i < len(sqlText); i++ {
		ch := sqlText[i]
		switch state {
		case stateNormal:
			switch {
			case ch == ';':
				return true
			case ch == '\'':
				state = stateSingleQuote
			case ch == '"':
				state = stateDoubleQuote
			case ch == '-' && i+1 < len(sqlText) && sqlText[i+1] == '-':
				state = stateLineComment
				i++
			case ch == '/' && i+1 < len(sqlText) && sqlText[i+1] == '*':
				state = stateBlockComment
				i++
			}
		case stateSingleQuote:
			// A doubled quote ('') exits and immediately re-enters, which keeps
			// the scanner inside the literal.
			if ch == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' && prev != '\\' {
				state = stateNormal
			}
		case stateLineComment:
			if ch == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if ch == '*' && i+1 < len(sqlText) && sqlText[i+1] == '/' {
				state = stateNormal
				i++
			}
		}
		prev = ch
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace
// around it.
func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	if trimmed, ok := strings.CutSuffix(sqlText, ";"); ok {
		sqlText = strings.TrimRight(trimmed, " \t\n\r")
	}
	return sqlText
}
