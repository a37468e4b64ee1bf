package auth

import "context"

// GetUserIDFromContext extracts the user ID (the token subject) from the
// context. Returns empty string for anonymous requests.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
