package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)

	token, err := svc.GenerateToken(Claims{UserID: "u1", FirstName: "Ada", Role: "student"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Ada", claims.FirstName)
	assert.Equal(t, "student", claims.Role)
}

func TestValidateRejects(t *testing.T) {
	svc := New("secret", time.Hour)

	other, err := New("other", time.Hour).GenerateToken(Claims{UserID: "u1"})
	require.NoError(t, err)
	expired, err := New("secret", -time.Minute).GenerateToken(Claims{UserID: "u1"})
	require.NoError(t, err)
	anonymous, err := svc.GenerateToken(Claims{Role: "student"})
	require.NoError(t, err)

	tests := map[string]struct {
		token string
		err   error
	}{
		"garbage":      {"not-a-jwt", ErrInvalidToken},
		"wrong secret": {other, ErrInvalidToken},
		"expired":      {expired, ErrInvalidToken},
		"missing user": {anonymous, ErrInvalidClaims},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
