package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken indicates the stored token is not a JWT.
var ErrMalformedToken = errors.New("session: malformed token")

// Claims are the fields the backend puts in its access tokens.
type Claims struct {
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the token expiry lies before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type tokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// InspectToken decodes the token payload without verifying the signature.
// The signing key lives on the server; this is for display only.
func InspectToken(token string) (Claims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}
	out := Claims{UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
