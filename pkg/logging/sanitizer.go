package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength is the maximum length of rendered SQL or a template to log
	MaxQueryLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in URLs, DSNs and error text
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match JWT tokens (three base64 segments separated by dots)
	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// Pattern to match potential API keys and access tokens in query strings
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key|access_token|token)=[A-Za-z0-9-_.]{8,}`)

	// Pattern to match URL credentials (user:pass@host format)
	userInfoPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)

	// Pattern to match single-quoted SQL string literals, including '' escapes
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// SanitizeURL removes credentials from a URL such as a JWKS endpoint.
// Use this before logging any configured endpoint.
func SanitizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	sanitized := userInfoPattern.ReplaceAllString(rawURL, "://"+RedactedText+"@")
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// Remove potential passwords
	sanitized := passwordPattern.ReplaceAllString(errStr, "${1}="+RedactedText)

	// Remove JWT tokens
	sanitized = jwtPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)

	// Remove API keys
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	// Remove URL credentials
	sanitized = userInfoPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")

	return sanitized
}

// SanitizeQuery redacts string literals from rendered SQL and truncates it.
// Literals carry caller parameter values, which must not reach the logs.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	// Redact before truncating so a cut literal cannot leak its prefix
	sanitized := stringLiteralPattern.ReplaceAllString(query, "'"+RedactedText+"'")
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	return TruncateString(sanitized, MaxQueryLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
