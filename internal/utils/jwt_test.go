package utils

import (
	"testing"
	"time"

	"filmclub/server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndValidateToken(t *testing.T) {
	p := models.Principal{Email: "ana@example.com", Name: "Ana", Image: "https://img/a.png"}

	token, err := GenerateToken(secret, p, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, p, claims.Principal())
}

func TestValidateToken_Rejects(t *testing.T) {
	valid, err := GenerateToken(secret, models.Principal{Email: "ana@example.com"}, time.Hour)
	require.NoError(t, err)

	expired, err := GenerateToken(secret, models.Principal{Email: "ana@example.com"}, -time.Minute)
	require.NoError(t, err)

	noEmail, err := GenerateToken(secret, models.Principal{}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Email: "ana@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"wrong secret", []byte("other"), valid},
		{"expired", secret, expired},
		{"missing email", secret, noEmail},
		{"unsigned", secret, none},
		{"garbage", secret, "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}
