// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/auth"
	"github.com/ekaya-inc/ekaya-mapper/pkg/logging"
	"github.com/ekaya-inc/ekaya-mapper/pkg/middleware"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionSuspected is logged when libinjection flags a parameter value
	// that reached the rendered SQL.
	EventSQLInjectionSuspected SecurityEventType = "sql_injection_suspected"
	// EventUnsafeSubstitutionBlocked is logged when a `${}` value is replaced by the
	// blocked marker.
	EventUnsafeSubstitutionBlocked SecurityEventType = "unsafe_substitution_blocked"
	// EventMultipleStatements is logged when rendered SQL contains more than one statement.
	EventMultipleStatements SecurityEventType = "multiple_statements"
	// EventTemplateRendered is logged for every successful render (optional, can be high volume).
	EventTemplateRendered SecurityEventType = "template_rendered"
)

// Severity levels attached to events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// maxAuditValueLength bounds parameter values copied into audit events.
const maxAuditValueLength = 100

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	EventID   uuid.UUID         `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"`
}

// InjectionDetails contains specifics of a suspected SQL injection.
type InjectionDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
	Mode        string `json:"mode"`        // bind or raw
}

// RenderDetails summarizes a successful render without carrying parameter values.
type RenderDetails struct {
	Dialect      string `json:"dialect,omitempty"`
	BindingCount int    `json:"binding_count"`
	RawCount     int    `json:"raw_count"`
	WarningCount int    `json:"warning_count"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The logger is automatically configured with "security_audit" namespace for easy
// filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// newEvent fills the request-scoped fields from ctx. The user comes from JWT
// claims; request ID and client IP come from the request logger middleware.
func newEvent(ctx context.Context, eventType SecurityEventType, severity string, details any) SecurityEvent {
	return SecurityEvent{
		EventID:   uuid.New(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		RequestID: middleware.RequestIDFromContext(ctx),
		UserID:    auth.GetUserIDFromContext(ctx),
		ClientIP:  middleware.ClientIPFromContext(ctx),
		Details:   details,
		Severity:  severity,
	}
}

// commonFields renders the fields shared by every audit entry.
func commonFields(event SecurityEvent) []zap.Field {
	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)
	return []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_id", event.EventID.String()),
		zap.String("request_id", event.RequestID),
		zap.String("client_ip", event.ClientIP),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	}
}

// LogInjectionSuspected records a parameter value that libinjection flags.
// This is logged at ERROR level with "critical" severity for immediate alerting.
// The value is truncated before it is stored.
func (a *SecurityAuditor) LogInjectionSuspected(ctx context.Context, details InjectionDetails) {
	details.ParamValue = logging.TruncateString(details.ParamValue, maxAuditValueLength)
	event := newEvent(ctx, EventSQLInjectionSuspected, SeverityCritical, details)

	fields := append(commonFields(event),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("mode", details.Mode),
	)
	a.logger.Error("SQL injection suspected in template parameter", fields...)
}

// LogUnsafeSubstitution records a `${}` substitution replaced by the blocked marker.
// This is logged at WARN level; the value never reached the SQL.
func (a *SecurityAuditor) LogUnsafeSubstitution(ctx context.Context, paramName, value string) {
	event := newEvent(ctx, EventUnsafeSubstitutionBlocked, SeverityWarning, map[string]string{
		"param_name":  paramName,
		"param_value": logging.TruncateString(value, maxAuditValueLength),
	})

	fields := append(commonFields(event), zap.String("param_name", paramName))
	a.logger.Warn("Unsafe raw substitution blocked", fields...)
}

// LogMultipleStatements records rendered SQL that contains more than one statement.
// Only a sanitized preview of the SQL is kept.
func (a *SecurityAuditor) LogMultipleStatements(ctx context.Context, sqlText string) {
	preview := logging.SanitizeQuery(sqlText)
	event := newEvent(ctx, EventMultipleStatements, SeverityWarning, map[string]string{
		"sql_preview": preview,
	})

	fields := append(commonFields(event), zap.String("sql_preview", preview))
	a.logger.Warn("Rendered SQL contains multiple statements", fields...)
}

// LogTemplateRendered records a successful render for the audit trail.
// This is logged at INFO level and is enabled by configuration.
// Note: This can generate high log volume in production.
func (a *SecurityAuditor) LogTemplateRendered(ctx context.Context, details RenderDetails) {
	event := newEvent(ctx, EventTemplateRendered, SeverityInfo, details)

	fields := append(commonFields(event),
		zap.Int("binding_count", details.BindingCount),
		zap.Int("raw_count", details.RawCount),
	)
	a.logger.Info("Template rendered", fields...)
}
