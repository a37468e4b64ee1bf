package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/audit"
	"github.com/ekaya-inc/ekaya-mapper/pkg/auth"
	"github.com/ekaya-inc/ekaya-mapper/pkg/config"
	"github.com/ekaya-inc/ekaya-mapper/pkg/handlers"
	"github.com/ekaya-inc/ekaya-mapper/pkg/logging"
	"github.com/ekaya-inc/ekaya-mapper/pkg/mcp"
	mcpauth "github.com/ekaya-inc/ekaya-mapper/pkg/mcp/auth"
	"github.com/ekaya-inc/ekaya-mapper/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-mapper/pkg/middleware"
	"github.com/ekaya-inc/ekaya-mapper/pkg/retry"
	"github.com/ekaya-inc/ekaya-mapper/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// bodyOverhead leaves room for params and JSON escaping around a template
// of the maximum size.
const bodyOverhead = 4

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logStartup(cfg, logger)

	// Auth
	jwksConfig := &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	}
	jwksClient, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*auth.JWKSClient, error) {
		return auth.NewJWKSClient(ctx, jwksConfig)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	defer jwksClient.Close()
	authService := auth.NewAuthService(jwksClient, logger)

	// Services
	templateService := services.NewSQLTemplateService(services.SQLTemplateConfig{
		Defaults:         cfg.Engine.RenderOptions(),
		MaxTemplateBytes: cfg.Engine.MaxTemplateBytes,
		AuditBindings:    cfg.Engine.AuditBindings,
		AuditRenders:     cfg.Engine.AuditRenders,
	}, audit.NewSecurityAuditor(logger), logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	templateHandler := handlers.NewSQLTemplateHandler(templateService, int64(cfg.Engine.MaxTemplateBytes)*bodyOverhead, logger)
	templateHandler.RegisterRoutes(mux, auth.NewMiddleware(authService, logger), cfg.Auth.Required)

	if cfg.MCP.Enabled {
		auditLogger := mcp.NewAuditLogger(logger)
		mcpServer := mcp.NewServer(handlers.ServiceName, cfg.Version, logger, server.WithHooks(auditLogger.Hooks()))
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
		tools.RegisterSQLTemplateTools(mcpServer.MCP(), &tools.SQLTemplateToolDeps{Service: templateService})

		wellKnownHandler := handlers.NewWellKnownHandler(cfg, logger)
		wellKnownHandler.RegisterRoutes(mux)

		mcpAuthMiddleware := mcpauth.NewMiddleware(authService, logger)
		mcpAuthMiddleware.SetResourceMetadataURL(wellKnownHandler.MetadataURL())
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, mcpAuthMiddleware, cfg.Auth.Required)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: middleware.RequestLogger(logger)(mux),
	}

	serverErr := make(chan error, 1)
	go func() {
		tlsEnabled := cfg.TLSCertPath != "" && cfg.TLSKeyPath != ""
		logger.Info("Starting ekaya-mapper",
			zap.String("addr", httpServer.Addr),
			zap.Bool("tls", tlsEnabled),
			zap.String("version", cfg.Version))

		var err error
		if tlsEnabled {
			err = httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func logStartup(cfg *config.Config, logger *zap.Logger) {
	endpoints := make([]string, 0, len(cfg.Auth.JWKSEndpoints))
	for issuer, jwksURL := range cfg.Auth.JWKSEndpoints {
		endpoints = append(endpoints, issuer+"="+logging.SanitizeURL(jwksURL))
	}

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("auth_required", cfg.Auth.Required),
		zap.Strings("jwks_endpoints", endpoints),
		zap.Bool("safe_substitution", cfg.Engine.DefaultSafeSubstitution),
		zap.String("default_dialect", string(cfg.Engine.Dialect)),
		zap.Int("max_template_bytes", cfg.Engine.MaxTemplateBytes),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	if !cfg.Auth.EnableVerification {
		logger.Warn("JWT signature verification is disabled; do not run this configuration in production")
	}
}
