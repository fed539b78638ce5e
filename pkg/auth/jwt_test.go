package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", 1)
	require.NoError(t, err)

	token, err := svc.GenerateToken(42, "admin")
	require.NoError(t, err)

	claims, err := svc.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTService_Rejects(t *testing.T) {
	svc, err := NewJWTService("secret", 1)
	require.NoError(t, err)

	_, err = svc.ParseToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	other, err := NewJWTService("another-secret", 1)
	require.NoError(t, err)
	foreign, err := other.GenerateToken(1, "student")
	require.NoError(t, err)
	_, err = svc.ParseToken(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// токен, выпущенный два часа назад со сроком в час
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.GenerateToken(1, "student")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ParseToken(context.Background(), expired)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc, err := NewJWTService("secret", 1)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTCustomClaims{UserID: 1, Role: "admin"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ParseToken(context.Background(), raw)
	assert.Error(t, err)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 1)
	assert.Error(t, err)
}
