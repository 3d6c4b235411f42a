package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-min-32-bytes-long"

func TestNewHS256Verifier(t *testing.T) {
	v, err := NewHS256Verifier("")
	require.Error(t, err)
	require.Nil(t, v)
}

func TestHS256Verifier_Verify(t *testing.T) {
	ctx := context.Background()
	v, err := NewHS256Verifier(testSecret)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken(testSecret, "user-123", "alice@example.com", time.Hour)
		require.NoError(t, err)

		p, err := v.Verify(ctx, token)
		require.NoError(t, err)
		require.Equal(t, "user-123", p.UserID)
		require.Equal(t, "alice@example.com", p.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := IssueToken(testSecret, "user-123", "alice@example.com", -time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := IssueToken("another-secret-that-is-long-enough", "user-123", "", time.Hour)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := IssueToken(testSecret, "", "alice@example.com", time.Hour)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-123"}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = v.Verify(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
