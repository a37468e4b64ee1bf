package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateTestJWT(t *testing.T) {
	token := GenerateTestJWT("user-1", "user@example.com", "admin")

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	if parts[2] != "" {
		t.Errorf("expected empty signature, got %q", parts[2])
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}

	if claims["sub"] != "user-1" {
		t.Errorf("expected sub user-1, got %v", claims["sub"])
	}
	if claims["aud"] != TestAudience {
		t.Errorf("expected aud %q, got %v", TestAudience, claims["aud"])
	}
	if claims["email"] != "user@example.com" {
		t.Errorf("expected email, got %v", claims["email"])
	}
	if _, ok := claims["exp"]; !ok {
		t.Error("expected exp claim")
	}
}

func TestGenerateTestJWT_OmitsEmptyFields(t *testing.T) {
	parts := strings.Split(GenerateTestJWT("user-2", ""), ".")
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if _, ok := claims["email"]; ok {
		t.Error("email should be omitted")
	}
	if _, ok := claims["roles"]; ok {
		t.Error("roles should be omitted")
	}
}

func TestGenerateTestJWTWithBearer(t *testing.T) {
	if got := GenerateTestJWTWithBearer("u", ""); !strings.HasPrefix(got, "Bearer ") {
		t.Errorf("expected Bearer prefix, got %q", got)
	}
}
