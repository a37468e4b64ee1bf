package handlers

import (
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/config"
)

// ProtectedResourcePath serves the RFC 9728 metadata for the MCP endpoint.
const ProtectedResourcePath = "/.well-known/oauth-protected-resource"

// ProtectedResourceMetadata represents OAuth 2.0 Protected Resource Metadata (RFC 9728).
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	ResourceName           string   `json:"resource_name,omitempty"`
}

// WellKnownHandler handles /.well-known/* endpoints.
type WellKnownHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewWellKnownHandler creates a new WellKnownHandler.
func NewWellKnownHandler(cfg *config.Config, logger *zap.Logger) *WellKnownHandler {
	return &WellKnownHandler{
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterRoutes registers well-known endpoints.
func (h *WellKnownHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+ProtectedResourcePath, h.ProtectedResource)
}

// MetadataURL is the absolute URL of the protected resource document.
func (h *WellKnownHandler) MetadataURL() string {
	return strings.TrimSuffix(h.cfg.BaseURL, "/") + ProtectedResourcePath
}

// ProtectedResource tells MCP clients which issuers can mint tokens for the
// MCP endpoint. The issuers are the keys of the JWKS whitelist.
func (h *WellKnownHandler) ProtectedResource(w http.ResponseWriter, r *http.Request) {
	servers := make([]string, 0, len(h.cfg.Auth.JWKSEndpoints))
	for issuer := range h.cfg.Auth.JWKSEndpoints {
		servers = append(servers, issuer)
	}
	slices.Sort(servers)

	metadata := ProtectedResourceMetadata{
		Resource:               strings.TrimSuffix(h.cfg.BaseURL, "/") + MCPPath,
		AuthorizationServers:   servers,
		BearerMethodsSupported: []string{"header"},
		ResourceName:           ServiceName,
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := WriteJSON(w, http.StatusOK, metadata); err != nil {
		h.logger.Error("Failed to encode protected resource metadata", zap.Error(err))
	}
}
