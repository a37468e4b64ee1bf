package sql

import "regexp"

// LiteralPlaceholder is a placeholder found inside a single-quoted string
// literal.
type LiteralPlaceholder struct {
	Name string
	// Offset is the byte offset of the literal's opening quote.
	Offset int
}

// FindPlaceholdersInStringLiterals finds placeholders matched by pattern that
// sit inside single-quoted SQL string literals. The first capture group of
// pattern is the placeholder name. Results are deduplicated by name and kept
// in order of first appearance.
//
// A placeholder inside a literal is almost always a mistake: a bound value
// renders as its own quoted literal, so the result is a literal nested in a
// literal.
//
// Example:
//
//	pattern := regexp.MustCompile(`#\{\s*([a-zA-Z0-9_.$]+)\s*\}`)
//	found := FindPlaceholdersInStringLiterals("SELECT * FROM t WHERE n LIKE '%#{q}%'", pattern)
//	// found == []LiteralPlaceholder{{Name: "q", Offset: 29}}
//
// An unterminated literal runs to the end of the text.
func FindPlaceholdersInStringLiterals(text string, pattern *regexp.Regexp) []LiteralPlaceholder {
	var found []LiteralPlaceholder
	seen := make(map[string]bool)

	collect := func(start, end int) {
		for _, match := range pattern.FindAllStringSubmatch(text[start+1:end], -1) {
			name := match[1]
			if !seen[name] {
				seen[name] = true
				found = append(found, LiteralPlaceholder{Name: name, Offset: start})
			}
		}
	}

	inString := false
	stringStart := 0
	i := 0

	for i < len(text) {
		if text[i] == '\'' {
			if inString {
				// Doubled quote is an escaped quote, not the end of the literal
				if i+1 < len(text) && text[i+1] == '\'' {
					i += 2
					continue
				}
				collect(stringStart, i)
				inString = false
			} else {
				inString = true
				stringStart = i
			}
		}
		i++
	}

	if inString {
		collect(stringStart, len(text))
	}

	return found
}
