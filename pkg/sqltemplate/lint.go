package sqltemplate

import (
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-mapper/pkg/sql"
)

var tagPattern = regexp.MustCompile(`</?([a-zA-Z][\w-]*)\b[^>]*>`)

// IssueLevel is the severity of a lint Issue.
type IssueLevel string

const (
	LevelError IssueLevel = "error"
	LevelWarn  IssueLevel = "warn"
)

// Issue is one lint finding. Line is 1-based, or 0 for document-level
// findings.
type Issue struct {
	Line    int        `json:"line"`
	Level   IssueLevel `json:"level"`
	Message string     `json:"message"`
}

// LintResult is the lint response document.
type LintResult struct {
	Issues []Issue `json:"issues"`
}

// Lint scans the raw template text for unbalanced tags and risky
// placeholders. It never parses the template, so it works on markup the
// renderer would reject. Only an empty template is an error.
func Lint(template string) (*LintResult, error) {
	if strings.TrimSpace(template) == "" {
		return nil, apperrors.ErrEmptyTemplate
	}

	type openTag struct {
		name string
		line int
	}

	issues := []Issue{}
	var stack []openTag

	for _, loc := range tagPattern.FindAllStringSubmatchIndex(template, -1) {
		tag := template[loc[0]:loc[1]]
		if strings.HasSuffix(tag, "/>") {
			continue
		}
		name := template[loc[2]:loc[3]]
		line := lineAt(template, loc[0])

		if !strings.HasPrefix(tag, "</") {
			stack = append(stack, openTag{name: name, line: line})
			continue
		}

		if len(stack) == 0 {
			issues = append(issues, Issue{
				Line:    line,
				Level:   LevelError,
				Message: "unexpected closing tag </" + name + ">",
			})
			continue
		}
		last := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if last.name != name {
			issues = append(issues, Issue{
				Line:    line,
				Level:   LevelError,
				Message: "tag mismatch: expected </" + last.name + "> but got </" + name + ">",
			})
		}
	}

	// Reported in the order the tags were opened.
	for _, open := range stack {
		issues = append(issues, Issue{
			Line:    open.line,
			Level:   LevelError,
			Message: "unclosed tag <" + open.name + ">",
		})
	}

	if strings.Contains(template, "${") {
		issues = append(issues, Issue{
			Level:   LevelWarn,
			Message: "`${}` may lead to SQL injection, ensure value is sanitized.",
		})
	}

	for _, p := range sql.FindPlaceholdersInStringLiterals(maskTags(template), bindPlaceholder) {
		issues = append(issues, Issue{
			Line:    lineAt(template, p.Offset),
			Level:   LevelWarn,
			Message: "`#{" + p.Name + "}` is inside a quoted string literal; the bound value renders as a nested literal",
		})
	}

	return &LintResult{Issues: issues}, nil
}

// maskTags blanks out every tag so quotes in attribute values are not read
// as SQL string literals. Byte offsets are preserved.
func maskTags(template string) string {
	return tagPattern.ReplaceAllStringFunc(template, func(tag string) string {
		return strings.Repeat(" ", len(tag))
	})
}

// lineAt returns the 1-based line of the byte at offset.
func lineAt(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
