package sqltemplate

import (
	"regexp"
	"strings"
)

var (
	bindPlaceholder = regexp.MustCompile(`#\{\s*([a-zA-Z0-9_.$]+)\s*\}`)
	rawPlaceholder  = regexp.MustCompile(`\$\{\s*([a-zA-Z0-9_.$]+)\s*\}`)
)

// BlockedMarker replaces a raw substitution whose content looks unsafe.
const BlockedMarker = "/*blocked*/"

// substitute rewrites the placeholders of one literal text span: #{} first,
// then ${} over the result. Every #{} appends a binding in left-to-right
// order; ${} never does.
func (rc *renderContext) substitute(text string, scope Scope) string {
	out := bindPlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		path := bindPlaceholder.FindStringSubmatch(match)[1]
		v := scope.Resolve(path)
		rc.bindings = append(rc.bindings, Binding{Name: path, Value: v, Mode: ModeBind})
		if rc.placeholder != nil {
			return rc.placeholder(len(rc.bindings))
		}
		return SQLLiteral(v)
	})

	return rawPlaceholder.ReplaceAllStringFunc(out, func(match string) string {
		path := rawPlaceholder.FindStringSubmatch(match)[1]
		raw := RawString(scope.Resolve(path))
		blocked := rc.safeSubstitution && LooksUnsafe(raw)
		rc.raw = append(rc.raw, RawSubstitution{Name: path, Value: raw, Blocked: blocked})
		if blocked {
			rc.warnings = append(rc.warnings, "unsafe '${"+path+"}' content blocked")
			return BlockedMarker
		}
		return raw
	})
}

// SQLLiteral renders v as an inline SQL literal.
func SQLLiteral(v Value) string {
	switch v.Kind() {
	case KindNull:
		return "NULL"
	case KindString:
		s, _ := v.Str()
		return quoteSQL(s)
	case KindBool:
		if v.Truthy() {
			return "1"
		}
		return "0"
	case KindNumber:
		return v.JSON()
	}
	return quoteSQL(v.JSON())
}

// RawString converts v to the text a ${} placeholder inlines.
func RawString(v Value) string {
	switch v.Kind() {
	case KindNull:
		return ""
	case KindString:
		s, _ := v.Str()
		return s
	}
	return v.JSON()
}

// LooksUnsafe reports whether raw text carries a statement separator or a
// comment token.
func LooksUnsafe(raw string) bool {
	return strings.Contains(raw, ";") ||
		strings.Contains(raw, "--") ||
		strings.Contains(raw, "/*") ||
		strings.Contains(raw, "*/")
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// normalizeWhitespace collapses every whitespace run to a single space and
// trims both ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
