// Package sqltemplate renders MyBatis-style dynamic SQL templates into a
// single SQL string plus an ordered list of parameter bindings, and lints
// templates for structural problems.
//
// The engine is synchronous and holds no state between calls. Render and
// Lint may be called concurrently.
package sqltemplate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-mapper/pkg/jsonutil"
)

// Actions accepted by Execute.
const (
	ActionRender = "render"
	ActionLint   = "lint"
)

// BindingMode tells how a placeholder value reached the SQL.
type BindingMode string

const (
	// ModeBind is a #{} placeholder rendered as a quoted literal or a
	// positional marker. Only bind placeholders produce Bindings.
	ModeBind BindingMode = "bind"
	// ModeRaw is a ${} placeholder inlined as text.
	ModeRaw BindingMode = "raw"
)

// Binding records one rendered #{} placeholder.
type Binding struct {
	Name  string      `json:"name"`
	Value Value       `json:"value"`
	Mode  BindingMode `json:"mode"`
}

// RawSubstitution records one rendered ${} placeholder. Raw substitutions
// are not part of the response document.
type RawSubstitution struct {
	Name    string
	Value   string
	Blocked bool
}

// RenderOptions controls a single Render call.
type RenderOptions struct {
	// SafeSubstitution blocks ${} values containing statement separators or
	// comment tokens.
	SafeSubstitution bool
	// Dialect, when set, adds PreparedSQL to the result.
	Dialect Dialect
}

// RenderResult is the render response document.
type RenderResult struct {
	SQL         string    `json:"sql"`
	Bindings    []Binding `json:"bindings"`
	Warnings    []string  `json:"warnings"`
	PreparedSQL string    `json:"preparedSql,omitempty"`

	RawSubstitutions []RawSubstitution `json:"-"`
	Dialect          Dialect           `json:"-"`
}

// Render renders template against params.
//
// A template containing both '<' and '>' is parsed as markup and walked tag
// by tag; any other template is substituted as a single text span. The
// returned SQL is whitespace-normalized. The only errors are an empty
// template, unparseable markup and an unknown dialect.
func Render(template string, params Value, opts RenderOptions) (*RenderResult, error) {
	if strings.TrimSpace(template) == "" {
		return nil, apperrors.ErrEmptyTemplate
	}
	if !opts.Dialect.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedDialect, string(opts.Dialect))
	}

	var root *Element
	if HasMarkup(template) {
		var err error
		if root, err = Parse(template); err != nil {
			return nil, err
		}
	}

	rc := newRenderContext(opts.SafeSubstitution, nil)
	result := &RenderResult{
		SQL:              normalizeWhitespace(rc.run(template, root, params)),
		Bindings:         rc.bindings,
		Warnings:         rc.warnings,
		RawSubstitutions: rc.raw,
		Dialect:          opts.Dialect,
	}

	if opts.Dialect != DialectNone {
		// Same walk again with positional markers; bindings line up by index.
		prepared := newRenderContext(opts.SafeSubstitution, opts.Dialect.Placeholder)
		result.PreparedSQL = normalizeWhitespace(prepared.run(template, root, params))
	}

	return result, nil
}

// RenderRequest is the render request document.
type RenderRequest struct {
	SQLTemplate string `json:"sqlTemplate"`
	// Params is a JSON object, either inline or encoded as a string.
	// Missing or null means "{}".
	Params json.RawMessage `json:"params,omitempty"`
	// SafeSubstitution is a JSON boolean. Anything else uses the default.
	SafeSubstitution json.RawMessage `json:"safeSubstitution,omitempty"`
	Dialect          string          `json:"dialect,omitempty"`
}

// Run validates the request and renders it. defaults supplies the
// substitution mode and dialect used when the request leaves them unset.
func (req RenderRequest) Run(defaults RenderOptions) (*RenderResult, error) {
	if strings.TrimSpace(req.SQLTemplate) == "" {
		return nil, apperrors.ErrEmptyTemplate
	}

	params, err := ParseParams(jsonutil.FlexibleJSONText(req.Params, "{}"))
	if err != nil {
		return nil, err
	}

	opts := RenderOptions{
		SafeSubstitution: jsonutil.FlexibleBool(req.SafeSubstitution, defaults.SafeSubstitution),
		Dialect:          defaults.Dialect,
	}
	if req.Dialect != "" {
		if opts.Dialect, err = ParseDialect(req.Dialect); err != nil {
			return nil, err
		}
	}

	return Render(req.SQLTemplate, params, opts)
}

// LintRequest is the lint request document.
type LintRequest struct {
	SQLTemplate string `json:"sqlTemplate"`
}

// Run lints the request template.
func (req LintRequest) Run() (*LintResult, error) {
	return Lint(req.SQLTemplate)
}

// DefaultRenderOptions are the options used when the caller has no
// configuration of its own.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{SafeSubstitution: true}
}

// Execute dispatches a raw JSON payload to the named action using
// DefaultRenderOptions.
func Execute(action string, payload json.RawMessage) (any, error) {
	return ExecuteWith(action, payload, DefaultRenderOptions())
}

// ExecuteWith dispatches a raw JSON payload to the named action. A payload
// that is not a JSON object is treated as an empty request.
func ExecuteWith(action string, payload json.RawMessage, defaults RenderOptions) (any, error) {
	switch action {
	case ActionRender:
		return DecodeRenderRequest(payload).Run(defaults)
	case ActionLint:
		return DecodeLintRequest(payload).Run()
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedAction, action)
}

// DecodeRenderRequest fills the fields it can. Fields of the wrong JSON type
// are left at their zero value, which Run then reports.
func DecodeRenderRequest(payload json.RawMessage) RenderRequest {
	var req RenderRequest
	fields := payloadFields(payload)
	_ = json.Unmarshal(fields["sqlTemplate"], &req.SQLTemplate)
	req.Params = fields["params"]
	req.SafeSubstitution = fields["safeSubstitution"]
	_ = json.Unmarshal(fields["dialect"], &req.Dialect)
	return req
}

// DecodeLintRequest is DecodeRenderRequest for lint payloads.
func DecodeLintRequest(payload json.RawMessage) LintRequest {
	var req LintRequest
	_ = json.Unmarshal(payloadFields(payload)["sqlTemplate"], &req.SQLTemplate)
	return req
}

func payloadFields(payload json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil
	}
	return fields
}
