package utils

import (
	"errors"
	"time"

	"filmclub/server/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of a session token.
const TokenTTL = 24 * time.Hour

// Claims represents the session token claims issued by the identity provider
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the identity asserted by the claims.
func (c *Claims) Principal() models.Principal {
	return models.Principal{Email: c.Email, Name: c.Name, Image: c.Picture}
}

// GenerateToken signs an HS256 session token for p.
func GenerateToken(secret []byte, p models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		Email:   p.Email,
		Name:    p.Name,
		Picture: p.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses a session token.
// Only HS256 is accepted and the email claim is required.
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}

	return claims, nil
}
