package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a
// substituted value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if a SQL injection pattern was detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Name        string // Placeholder path the value was substituted for
	Value       string // The value that was checked
}

// NamedValue is a value paired with the placeholder path it was resolved from.
type NamedValue struct {
	Name  string
	Value any
}

// CheckValueForInjection uses libinjection to detect SQL injection patterns
// in a substituted value.
//
// Only string values are checked. Numbers, booleans and other types cannot
// carry an injection payload and return nil.
//
// Example:
//
//	result := CheckValueForInjection("search", "'; DROP TABLE users--")
//	// result.IsSQLi == true
//	// result.Fingerprint == "s&1c" (or similar)
func CheckValueForInjection(name string, value any) *InjectionCheckResult {
	text, ok := value.(string)
	if !ok || text == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(text)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Name:        name,
		Value:       text,
	}
}

// CheckAllValues runs CheckValueForInjection over every value and returns the
// detections in input order. Returns nil if every value is clean.
func CheckAllValues(values []NamedValue) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, v := range values {
		if result := CheckValueForInjection(v.Name, v.Value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
