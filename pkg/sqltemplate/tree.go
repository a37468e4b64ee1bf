package sqltemplate

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
)

// rootTag wraps templates that do not bring their own root element.
const rootTag = "script"

// tagKind is the closed set of dynamic tags the renderer understands.
// Every other element name is a transparent container.
type tagKind int

const (
	tagTransparent tagKind = iota
	tagIf
	tagWhere
	tagSet
	tagTrim
	tagForeach
	tagChoose
	tagWhen
	tagOtherwise
)

func kindOf(name string) tagKind {
	switch name {
	case "if":
		return tagIf
	case "where":
		return tagWhere
	case "set":
		return tagSet
	case "trim":
		return tagTrim
	case "foreach":
		return tagForeach
	case "choose":
		return tagChoose
	case "when":
		return tagWhen
	case "otherwise":
		return tagOtherwise
	}
	return tagTransparent
}

// Node is a Template Tree node: *Text or *Element.
type Node interface {
	isNode()
}

// Text is a literal span, before placeholder substitution.
type Text struct {
	Data string
}

// Element is a tag with its attributes and children in document order.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []Node

	kind tagKind
}

func (*Text) isNode()    {}
func (*Element) isNode() {}

// Attr returns the attribute value, or "" when absent.
func (e *Element) Attr(name string) string {
	return e.Attrs[name]
}

// AttrOr returns the attribute value, or def when the attribute is absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attrs[name]; ok {
		return v
	}
	return def
}

// HasMarkup reports whether template would be routed through the markup
// parser: it must contain at least one '<' and one '>'.
func HasMarkup(template string) bool {
	return strings.Contains(template, "<") && strings.Contains(template, ">")
}

// Parse builds the Template Tree. The template is wrapped in a synthetic
// <script> root unless it already starts with a tag and contains "<script".
// Any markup error is returned wrapped in apperrors.ErrInvalidMarkup.
func Parse(template string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(wrapTemplate(template)))
	dec.Strict = true

	var (
		root     *Element
		stack    []*Element
		lastText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidMarkup, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("%w: element <%s> after the root element", apperrors.ErrInvalidMarkup, t.Name.Local)
			}
			el := newElement(t)
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			lastText = false

		case xml.EndElement:
			stack = stack[:len(stack)-1]
			lastText = false

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("%w: text outside the root element", apperrors.ErrInvalidMarkup)
				}
				continue
			}
			parent := stack[len(stack)-1]
			if lastText {
				// CDATA sections and entity runs arrive as separate tokens.
				prev := parent.Children[len(parent.Children)-1].(*Text)
				prev.Data += string(t)
			} else {
				parent.Children = append(parent.Children, &Text{Data: string(t)})
			}
			lastText = true

		default:
			// Comments, processing instructions and directives carry no SQL.
			lastText = false
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", apperrors.ErrInvalidMarkup)
	}
	return root, nil
}

func wrapTemplate(template string) string {
	if strings.HasPrefix(strings.TrimSpace(template), "<") && strings.Contains(template, "<"+rootTag) {
		return template
	}
	return "<" + rootTag + ">" + template + "</" + rootTag + ">"
}

func newElement(start xml.StartElement) *Element {
	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = a.Value
	}
	return &Element{
		Name:  start.Name.Local,
		Attrs: attrs,
		kind:  kindOf(start.Name.Local),
	}
}
