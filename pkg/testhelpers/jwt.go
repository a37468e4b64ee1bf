// Package testhelpers provides utilities for testing ekaya-mapper components.
package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// TestAudience is the aud claim carried by generated tokens.
const TestAudience = "ekaya-mapper"

// GenerateTestJWT creates a token for use when verification is disabled.
// The token has a valid structure but no signature (alg: none) and expires
// in an hour.
func GenerateTestJWT(sub, email string, roles ...string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	claims := map[string]any{
		"sub": sub,
		"aud": TestAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	payload, _ := json.Marshal(claims)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

// GenerateTestJWTWithBearer returns the token with the "Bearer " prefix for
// an Authorization header.
func GenerateTestJWTWithBearer(sub, email string, roles ...string) string {
	return "Bearer " + GenerateTestJWT(sub, email, roles...)
}
