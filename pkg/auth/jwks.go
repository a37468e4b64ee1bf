package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthorizedIssuer is returned for tokens whose issuer has no
	// configured JWKS endpoint.
	ErrUnauthorizedIssuer = errors.New("unauthorized issuer")
	// ErrInvalidAudience is returned when an audience is configured and the
	// token does not name it.
	ErrInvalidAudience = errors.New("invalid token audience")
)

// TokenValidator validates JWT token strings.
type TokenValidator interface {
	// ValidateToken validates a JWT token string and returns the claims.
	ValidateToken(tokenString string) (*Claims, error)
	// Close releases any resources held by the validator.
	Close()
}

// JWKSConfig contains configuration for the JWKS client.
type JWKSConfig struct {
	// EnableVerification controls whether JWT signatures are verified.
	// When false, tokens are parsed without verification (local development).
	EnableVerification bool
	// JWKSEndpoints maps issuer URLs to their JWKS endpoint URLs.
	// Only tokens from issuers in this map are accepted.
	JWKSEndpoints map[string]string
	// Audience, when set, must appear in the token's aud claim.
	Audience string
}

// JWKSClient validates JWT tokens against JWKS endpoints, one per
// whitelisted issuer. RSA and ECDSA signatures are accepted.
type JWKSClient struct {
	endpoints map[string]keyfunc.Keyfunc
	config    *JWKSConfig
}

// NewJWKSClient creates a JWKS client. With verification enabled it fetches
// the key sets of every configured issuer and fails if any cannot be loaded.
func NewJWKSClient(ctx context.Context, config *JWKSConfig) (*JWKSClient, error) {
	client := &JWKSClient{
		endpoints: make(map[string]keyfunc.Keyfunc),
		config:    config,
	}

	if !config.EnableVerification {
		return client, nil
	}

	for issuer, jwksURL := range config.JWKSEndpoints {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client for %s: %w", issuer, err)
		}
		client.endpoints[issuer] = jwks
	}

	return client, nil
}

// ValidateToken validates a JWT and returns its claims. Without verification
// the token is only parsed.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	var (
		claims *Claims
		err    error
	)
	if c.config.EnableVerification {
		claims, err = c.parseVerifiedToken(tokenString)
	} else {
		claims, err = c.parseUnverifiedToken(tokenString)
	}
	if err != nil {
		return nil, err
	}

	if c.config.Audience != "" && !slices.Contains(claims.Audience, c.config.Audience) {
		return nil, ErrInvalidAudience
	}
	return claims, nil
}

func (c *JWKSClient) parseVerifiedToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			return nil, errors.New("invalid claims type")
		}

		jwks, exists := c.endpoints[claims.Issuer]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorizedIssuer, claims.Issuer)
		}
		return jwks.KeyfuncCtx(context.Background())(token)
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

func (c *JWKSClient) parseUnverifiedToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// Close is a no-op; keyfunc v3 needs no explicit cleanup.
func (c *JWKSClient) Close() {}

var _ TokenValidator = (*JWKSClient)(nil)
