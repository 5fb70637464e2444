package refresh

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry peeks at a token's exp claim without verifying the
// signature. Verification belongs to the backend; the client only needs a
// hint for proactive refresh of restored sessions. Returns ok=false for
// opaque (non-JWT) tokens and tokens without an exp claim.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiresWithin reports whether the token is a JWT expiring within d.
// Opaque tokens report false (fail-open): they are trusted until the
// backend rejects them.
func ExpiresWithin(token string, d time.Duration) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return time.Until(exp) < d
}
