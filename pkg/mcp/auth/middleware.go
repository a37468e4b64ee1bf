// Package mcpauth provides MCP-specific authentication middleware.
// It wraps the core auth service with RFC 6750 Bearer token error responses.
package mcpauth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/auth"
)

// Realm is reported in WWW-Authenticate challenges.
const Realm = "ekaya-mapper"

// Middleware provides MCP-specific authentication middleware.
// Unlike the general auth middleware, this returns RFC 6750 WWW-Authenticate
// headers so MCP clients can start their OAuth flow.
type Middleware struct {
	authService         auth.AuthService
	resourceMetadataURL string
	logger              *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware.
func NewMiddleware(authService auth.AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// SetResourceMetadataURL makes challenges point at the RFC 9728 protected
// resource metadata document.
func (m *Middleware) SetResourceMetadataURL(url string) {
	m.resourceMetadataURL = url
}

// Guard validates the bearer token on MCP requests. With required set,
// anonymous requests are challenged; otherwise they pass through and only
// invalid tokens are rejected. Valid claims are placed in the context.
func (m *Middleware) Guard(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, token, err := m.authService.ValidateRequest(r)
			switch {
			case errors.Is(err, auth.ErrMissingAuthorization):
				if required {
					m.logger.Debug("MCP auth failed: missing token",
						zap.String("path", r.URL.Path))
					// RFC 6750 Section 3.1: no error code when the request lacks credentials
					w.Header().Set("WWW-Authenticate", m.challenge(""))
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			case err != nil:
				m.logger.Debug("MCP auth failed: invalid token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")
			default:
				next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims, token)))
			}
		})
	}
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	w.Header().Set("WWW-Authenticate", m.challenge(`error="`+errorCode+`", error_description="`+description+`"`))
	w.WriteHeader(status)
}

func (m *Middleware) challenge(params string) string {
	value := `Bearer realm="` + Realm + `"`
	if m.resourceMetadataURL != "" {
		value += `, resource_metadata="` + m.resourceMetadataURL + `"`
	}
	if params != "" {
		value += ", " + params
	}
	return value
}
