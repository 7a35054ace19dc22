// Package auth mints and verifies the JWT access tokens that carry a user's
// custom claims to the client.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"recordkeeper/internal/common"
	"recordkeeper/internal/server/models"
)

// Claims embeds the registered JWT claims and mirrors the user's custom
// claims. The client reads Roles/IsManager straight off the token; a change
// reaches it only after the token is re-minted.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string   `json:"uid"`
	Roles     []string `json:"roles"`
	IsManager bool     `json:"isManager"`
}

// GenerateToken signs an HS256 access token for userID embedding the given
// custom claims.
func GenerateToken(userID string, custom models.CustomClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:    userID,
		Roles:     custom.Roles,
		IsManager: custom.IsManager,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry of tokenString and returns the
// embedded claims. Expired tokens map to common.ErrTokenExpired, everything
// else that fails verification to common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
