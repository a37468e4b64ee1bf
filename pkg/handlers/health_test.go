package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/config"
)

func newHealthMux() *http.ServeMux {
	cfg := &config.Config{
		Version: "test-version",
		Env:     "test",
	}
	mux := http.NewServeMux()
	NewHealthHandler(cfg, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestHealthHandler_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", response.Status)
	}
	if response.Version != "test-version" {
		t.Errorf("expected version 'test-version', got '%s'", response.Version)
	}
}

func TestHealthHandler_Ping(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response PingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Service != ServiceName {
		t.Errorf("expected service %q, got %q", ServiceName, response.Service)
	}
	if response.Environment != "test" {
		t.Errorf("expected environment 'test', got %q", response.Environment)
	}
	if response.GoVersion != runtime.Version() {
		t.Errorf("expected go version %q, got %q", runtime.Version(), response.GoVersion)
	}
	if response.Hostname == "" {
		t.Error("expected hostname to be set")
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
