package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-mapper/pkg/audit"
	"github.com/ekaya-inc/ekaya-mapper/pkg/logging"
	"github.com/ekaya-inc/ekaya-mapper/pkg/middleware"
	sqlutil "github.com/ekaya-inc/ekaya-mapper/pkg/sql"
	"github.com/ekaya-inc/ekaya-mapper/pkg/sqltemplate"
)

// SQLTemplateConfig holds server-level defaults and limits for the template service.
type SQLTemplateConfig struct {
	// Defaults apply when a render request leaves substitution mode or dialect unset.
	Defaults sqltemplate.RenderOptions
	// MaxTemplateBytes rejects larger templates. Zero disables the limit.
	MaxTemplateBytes int
	// AuditBindings runs injection detection over #{} values as well as ${} values.
	AuditBindings bool
	// AuditRenders logs every successful render to the security audit trail.
	AuditRenders bool
}

// SQLTemplateService renders and lints MyBatis-style SQL templates for the
// HTTP and MCP transports. Rendering never fails on suspicious values; those
// are reported to the security auditor.
type SQLTemplateService interface {
	// Render renders a template request.
	Render(ctx context.Context, req sqltemplate.RenderRequest) (*sqltemplate.RenderResult, error)

	// Lint reports structural problems in a template.
	Lint(ctx context.Context, req sqltemplate.LintRequest) (*sqltemplate.LintResult, error)

	// Execute dispatches a raw JSON payload to the named action ("render" or "lint").
	Execute(ctx context.Context, action string, payload json.RawMessage) (any, error)
}

type sqlTemplateService struct {
	cfg     SQLTemplateConfig
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewSQLTemplateService creates a new SQLTemplateService. auditor may be nil
// to disable security auditing.
func NewSQLTemplateService(cfg SQLTemplateConfig, auditor *audit.SecurityAuditor, logger *zap.Logger) SQLTemplateService {
	return &sqlTemplateService{
		cfg:     cfg,
		auditor: auditor,
		logger:  logger.Named("sqltemplate-service"),
	}
}

var _ SQLTemplateService = (*sqlTemplateService)(nil)

func (s *sqlTemplateService) Execute(ctx context.Context, action string, payload json.RawMessage) (any, error) {
	switch action {
	case sqltemplate.ActionRender:
		return s.Render(ctx, sqltemplate.DecodeRenderRequest(payload))
	case sqltemplate.ActionLint:
		return s.Lint(ctx, sqltemplate.DecodeLintRequest(payload))
	}
	err := fmt.Errorf("%w: %s", apperrors.ErrUnsupportedAction, action)
	s.logFailure(ctx, action, err)
	return nil, err
}

func (s *sqlTemplateService) Render(ctx context.Context, req sqltemplate.RenderRequest) (*sqltemplate.RenderResult, error) {
	if err := s.checkSize(req.SQLTemplate); err != nil {
		s.logFailure(ctx, sqltemplate.ActionRender, err)
		return nil, err
	}

	result, err := req.Run(s.cfg.Defaults)
	if err != nil {
		s.logFailure(ctx, sqltemplate.ActionRender, err)
		return nil, err
	}

	s.logger.Debug("Rendered SQL template",
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
		zap.String("sql", logging.SanitizeQuery(result.SQL)),
		zap.Int("bindings", len(result.Bindings)),
		zap.Int("warnings", len(result.Warnings)),
	)

	s.auditResult(ctx, result)
	return result, nil
}

func (s *sqlTemplateService) Lint(ctx context.Context, req sqltemplate.LintRequest) (*sqltemplate.LintResult, error) {
	if err := s.checkSize(req.SQLTemplate); err != nil {
		s.logFailure(ctx, sqltemplate.ActionLint, err)
		return nil, err
	}

	result, err := req.Run()
	if err != nil {
		s.logFailure(ctx, sqltemplate.ActionLint, err)
		return nil, err
	}

	s.logger.Debug("Linted SQL template",
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
		zap.Int("issues", len(result.Issues)),
	)
	return result, nil
}

func (s *sqlTemplateService) checkSize(template string) error {
	if s.cfg.MaxTemplateBytes > 0 && len(template) > s.cfg.MaxTemplateBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", apperrors.ErrTemplateTooLarge, len(template), s.cfg.MaxTemplateBytes)
	}
	return nil
}

// logFailure logs caller mistakes at DEBUG and anything else at ERROR.
func (s *sqlTemplateService) logFailure(ctx context.Context, action string, err error) {
	fields := []zap.Field{
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
		zap.String("action", action),
		zap.String("error", logging.SanitizeError(err)),
	}
	if apperrors.IsInputError(err) {
		s.logger.Debug("SQL template request rejected", fields...)
		return
	}
	s.logger.Error("SQL template request failed", fields...)
}

// auditResult reports blocked and suspicious substitutions and multi-statement
// output. It never changes the result.
func (s *sqlTemplateService) auditResult(ctx context.Context, result *sqltemplate.RenderResult) {
	if s.auditor == nil {
		return
	}

	var rawValues []sqlutil.NamedValue
	for _, raw := range result.RawSubstitutions {
		if raw.Blocked {
			s.auditor.LogUnsafeSubstitution(ctx, raw.Name, raw.Value)
			continue
		}
		rawValues = append(rawValues, sqlutil.NamedValue{Name: raw.Name, Value: raw.Value})
	}
	s.reportInjections(ctx, sqlutil.CheckAllValues(rawValues), sqltemplate.ModeRaw)

	if s.cfg.AuditBindings {
		var bound []sqlutil.NamedValue
		for _, b := range result.Bindings {
			if text, ok := b.Value.Str(); ok {
				bound = append(bound, sqlutil.NamedValue{Name: b.Name, Value: text})
			}
		}
		s.reportInjections(ctx, sqlutil.CheckAllValues(bound), sqltemplate.ModeBind)
	}

	if v := sqlutil.ValidateAndNormalize(result.SQL); errors.Is(v.Error, sqlutil.ErrMultipleStatements) {
		s.auditor.LogMultipleStatements(ctx, result.SQL)
	}

	if s.cfg.AuditRenders {
		s.auditor.LogTemplateRendered(ctx, audit.RenderDetails{
			Dialect:      string(result.Dialect),
			BindingCount: len(result.Bindings),
			RawCount:     len(result.RawSubstitutions),
			WarningCount: len(result.Warnings),
		})
	}
}

func (s *sqlTemplateService) reportInjections(ctx context.Context, detections []*sqlutil.InjectionCheckResult, mode sqltemplate.BindingMode) {
	for _, d := range detections {
		s.auditor.LogInjectionSuspected(ctx, audit.InjectionDetails{
			ParamName:   d.Name,
			ParamValue:  d.Value,
			Fingerprint: d.Fingerprint,
			Mode:        string(mode),
		})
	}
}
