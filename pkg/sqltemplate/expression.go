package sqltemplate

import (
	"strconv"
	"strings"
)

// comparisonOperators are scanned in this order so that two-character
// operators win over their one-character prefixes.
var comparisonOperators = []string{"==", "!=", ">=", "<=", ">", "<"}

// Evaluate evaluates a test attribute expression against scope.
//
// The grammar is deliberately flat: the expression is split on " or " first,
// then on " and ", so "or" always binds looser than "and" and there is no
// grouping. A leading "!" negates the rest. Otherwise the first comparison
// operator found splits the expression into a path and a literal-or-path.
// With no operator the expression is resolved as a path and tested for
// truthiness. Malformed expressions never fail; they evaluate to false or
// to the truthiness of whatever they resolve to.
func Evaluate(test string, scope Scope) bool {
	expr := strings.TrimSpace(test)
	if expr == "" {
		return false
	}

	if strings.Contains(expr, " or ") {
		for _, part := range strings.Split(expr, " or ") {
			if Evaluate(part, scope) {
				return true
			}
		}
		return false
	}

	if strings.Contains(expr, " and ") {
		for _, part := range strings.Split(expr, " and ") {
			if !Evaluate(part, scope) {
				return false
			}
		}
		return true
	}

	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		return !Evaluate(rest, scope)
	}

	for _, op := range comparisonOperators {
		if left, right, found := strings.Cut(expr, op); found {
			l := scope.Resolve(left)
			r := literalOrPath(right, scope)
			return compare(l, r, op)
		}
	}

	return scope.Resolve(expr).Truthy()
}

// literalOrPath parses the right-hand side of a comparison: null, booleans,
// quoted strings and numbers are literals, anything else is a path.
func literalOrPath(expr string, scope Scope) Value {
	s := strings.TrimSpace(expr)
	switch {
	case strings.EqualFold(s, "null"):
		return Null()
	case strings.EqualFold(s, "true"):
		return Bool(true)
	case strings.EqualFold(s, "false"):
		return Bool(false)
	}

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return String(s[1 : len(s)-1])
		}
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return scope.Resolve(s)
}

func compare(left, right Value, op string) bool {
	switch op {
	case "==":
		return left.Equal(right)
	case "!=":
		return !left.Equal(right)
	}

	if a, ok := left.Float64(); ok {
		if b, ok := right.Float64(); ok {
			switch op {
			case ">":
				return a > b
			case "<":
				return a < b
			case ">=":
				return a >= b
			case "<=":
				return a <= b
			}
			return false
		}
	}

	ls, rs := comparisonText(left), comparisonText(right)
	switch op {
	case ">":
		return ls > rs
	case "<":
		return ls < rs
	case ">=":
		return ls >= rs
	case "<=":
		return ls <= rs
	}
	return false
}

// comparisonText is the string form used when ordering falls back to
// lexicographic comparison.
func comparisonText(v Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	return v.JSON()
}
