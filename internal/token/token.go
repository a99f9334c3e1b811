// Package token decodes and mints the bearer tokens issued by the Veyra
// service. Parse does not verify the signature; the client only needs the
// embedded expiry to decide when to log in again. Generate and Verify serve
// the in-process test server.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformed = errors.New("malformed token")

// Claims mirrors the payload the Veyra service signs into its tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Parse decodes the claims of tokenString without verifying the signature.
func Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the embedded expiry of tokenString.
func ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := Parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether tokenString is no longer valid at now.
// Empty, undecodable or exp-less tokens are always expired.
func IsExpired(tokenString string, now time.Time) bool {
	exp, err := ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}

// Subject returns the user id carried by the token, falling back to the
// registered "sub" claim.
func Subject(tokenString string) (string, error) {
	claims, err := Parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.UserID != 0 {
		return strconv.FormatInt(claims.UserID, 10), nil
	}
	return claims.Subject, nil
}

// Generate signs a HS256 token for the given user that expires after
// validity. It is what the test server hands out on login.
func Generate(userID int64, username, role string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	})
	return t.SignedString(secretKey)
}

// Verify checks the HS256 signature and expiry of tokenString.
func Verify(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}
