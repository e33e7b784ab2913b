// Package auth signs and verifies the session cookie token.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jengacalc/jengacalc/internal/common"
)

// Claims carries the server-side session id and the verified email.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Email     string `json:"email"`
}

// GenerateToken signs an HS256 token for the session that expires at expiresAt.
func GenerateToken(sessionID, email string, secretKey []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		SessionID: sessionID,
		Email:     email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString.
// Expired tokens yield common.ErrSessionExpired, anything else that fails
// yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrSessionExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.SessionID == "" || claims.Email == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
