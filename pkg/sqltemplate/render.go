package sqltemplate

import (
	"strings"
	"unicode"
)

// renderContext is the mutable state threaded through one render pass.
// Bindings, raw substitutions and warnings are appended in document order,
// and only for branches that are actually rendered.
type renderContext struct {
	bindings         []Binding
	raw              []RawSubstitution
	warnings         []string
	safeSubstitution bool

	// placeholder, when set, replaces #{} with a positional marker instead
	// of an inline literal. It receives the 1-based binding index.
	placeholder func(index int) string
}

func newRenderContext(safeSubstitution bool, placeholder func(int) string) *renderContext {
	return &renderContext{
		bindings:         []Binding{},
		warnings:         []string{},
		safeSubstitution: safeSubstitution,
		placeholder:      placeholder,
	}
}

// run renders either the parsed tree or, for markup-free templates, the raw
// template text as a single span. The result is not yet normalized.
func (rc *renderContext) run(template string, root *Element, params Value) string {
	scope := GlobalScope(params)
	if root == nil {
		return rc.substitute(template, scope)
	}
	return rc.renderChildren(root, scope)
}

func (rc *renderContext) renderChildren(el *Element, scope Scope) string {
	var out strings.Builder
	for _, node := range el.Children {
		switch n := node.(type) {
		case *Text:
			out.WriteString(rc.substitute(n.Data, scope))
		case *Element:
			out.WriteString(rc.renderElement(n, scope))
		}
	}
	return out.String()
}

func (rc *renderContext) renderElement(el *Element, scope Scope) string {
	switch el.kind {
	case tagIf:
		if Evaluate(el.Attr("test"), scope) {
			return rc.renderChildren(el, scope)
		}
		return ""

	case tagWhere:
		body := trimLeadingLogic(normalizeWhitespace(rc.renderChildren(el, scope)))
		if body == "" {
			return ""
		}
		return " WHERE " + body

	case tagSet:
		body := normalizeWhitespace(rc.renderChildren(el, scope))
		body = strings.TrimSpace(strings.TrimSuffix(body, ","))
		if body == "" {
			return ""
		}
		return " SET " + body

	case tagTrim:
		body := normalizeWhitespace(rc.renderChildren(el, scope))
		body = applyOverrides(body, el.Attr("prefixOverrides"), el.Attr("suffixOverrides"))
		if body == "" {
			return ""
		}
		return " " + el.Attr("prefix") + body + el.Attr("suffix")

	case tagForeach:
		return rc.renderForeach(el, scope)

	case tagChoose:
		return rc.renderChoose(el, scope)

	case tagWhen, tagOtherwise:
		// Only meaningful as direct children of <choose>.
		return ""
	}

	return rc.renderChildren(el, scope)
}

func (rc *renderContext) renderForeach(el *Element, scope Scope) string {
	items := scope.Resolve(el.Attr("collection")).Items()
	if len(items) == 0 {
		return ""
	}

	itemName := el.AttrOr("item", "item")
	separator := el.AttrOr("separator", ",")

	parts := make([]string, 0, len(items))
	for _, item := range items {
		rendered := normalizeWhitespace(rc.renderChildren(el, scope.WithLocal(itemName, item)))
		if rendered != "" {
			parts = append(parts, rendered)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return el.Attr("open") + strings.Join(parts, separator) + el.Attr("close")
}

// renderChoose renders the first <when> whose test holds, else the first
// <otherwise>. Branches that are not chosen are never rendered.
func (rc *renderContext) renderChoose(el *Element, scope Scope) string {
	var otherwise *Element
	for _, node := range el.Children {
		child, ok := node.(*Element)
		if !ok {
			continue
		}
		switch child.kind {
		case tagWhen:
			if Evaluate(child.Attr("test"), scope) {
				return rc.renderChildren(child, scope)
			}
		case tagOtherwise:
			if otherwise == nil {
				otherwise = child
			}
		}
	}
	if otherwise != nil {
		return rc.renderChildren(otherwise, scope)
	}
	return ""
}

// trimLeadingLogic strips one leading AND/OR connective from a where body.
func trimLeadingLogic(body string) string {
	for _, connective := range []string{"AND ", "OR "} {
		if hasPrefixFold(body, connective) {
			return strings.TrimLeftFunc(body[len(connective):], unicode.IsSpace)
		}
	}
	return body
}

// applyOverrides strips the first matching prefix override and the first
// matching suffix override. Override lists are pipe-delimited and compared
// case-insensitively after trimming each token.
func applyOverrides(body, prefixOverrides, suffixOverrides string) string {
	for _, token := range overrideTokens(prefixOverrides) {
		if hasPrefixFold(body, token) {
			body = strings.TrimLeftFunc(body[len(token):], unicode.IsSpace)
			break
		}
	}
	for _, token := range overrideTokens(suffixOverrides) {
		if hasSuffixFold(body, token) {
			body = strings.TrimRightFunc(body[:len(body)-len(token)], unicode.IsSpace)
			break
		}
	}
	return body
}

func overrideTokens(list string) []string {
	var tokens []string
	for _, token := range strings.Split(list, "|") {
		if t := strings.TrimSpace(token); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && equalFoldASCII(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && equalFoldASCII(s[len(s)-len(suffix):], suffix)
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if upperASCII(a[i]) != upperASCII(b[i]) {
			return false
		}
	}
	return true
}

func upperASCII(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
