package session

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// TokenClaims are the registered claims readable from a bearer token.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var inspectSigAlgs = []jose.SignatureAlgorithm{
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
}

// InspectToken decodes the claims of a JWT bearer token WITHOUT verifying its
// signature. The client treats tokens as opaque; this is for display only and
// must never drive an authorisation decision.
func InspectToken(token string) (TokenClaims, error) {
	parsed, err := jwt.ParseSigned(token, inspectSigAlgs)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("parsing token: %w", err)
	}

	var claims jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return TokenClaims{}, fmt.Errorf("reading token claims: %w", err)
	}

	var tc TokenClaims
	tc.Subject = claims.Subject
	if claims.IssuedAt != nil {
		tc.IssuedAt = claims.IssuedAt.Time()
	}
	if claims.Expiry != nil {
		tc.ExpiresAt = claims.Expiry.Time()
	}

	return tc, nil
}

// Expired reports whether the token carried an expiry that has passed.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
