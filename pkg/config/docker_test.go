package config

import (
	"testing"
)

func TestRewriteLoopbackHost(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://localhost:8080/.well-known/jwks.json", "http://host.docker.internal:8080/.well-known/jwks.json"},
		{"http://127.0.0.1/jwks", "http://host.docker.internal/jwks"},
		{"https://auth.example.com/jwks", "https://auth.example.com/jwks"},
		{"://bad url", "://bad url"},
	}

	for _, tt := range tests {
		if got := rewriteLoopbackHost(tt.input); got != tt.expected {
			t.Errorf("rewriteLoopbackHost(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestResolveURLForDocker(t *testing.T) {
	// Non-loopback hosts are never modified regardless of Docker status
	for _, u := range []string{"https://auth.example.com/jwks", "http://10.0.0.5:9000/jwks"} {
		if got := ResolveURLForDocker(u); got != u {
			t.Errorf("ResolveURLForDocker(%q) = %q, want unchanged", u, got)
		}
	}

	got := ResolveURLForDocker("http://localhost:5002/jwks")
	if IsRunningInDocker() {
		if got != "http://host.docker.internal:5002/jwks" {
			t.Errorf("in Docker: got %q", got)
		}
	} else if got != "http://localhost:5002/jwks" {
		t.Errorf("not in Docker: got %q", got)
	}
}

func TestResolveBindAddrForDocker(t *testing.T) {
	if got := ResolveBindAddrForDocker("192.168.1.10"); got != "192.168.1.10" {
		t.Errorf("non-loopback address changed to %q", got)
	}

	got := ResolveBindAddrForDocker("127.0.0.1")
	if IsRunningInDocker() {
		if got != "0.0.0.0" {
			t.Errorf("in Docker: expected 0.0.0.0, got %q", got)
		}
	} else if got != "127.0.0.1" {
		t.Errorf("not in Docker: expected unchanged, got %q", got)
	}
}
