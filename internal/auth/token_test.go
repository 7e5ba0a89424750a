// ABOUTME: Tests for JWT token generation and verification
// ABOUTME: Covers roundtrips, expiry, tampering, and HTTP extraction

package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier([]byte("test-secret"))
	require.NoError(t, err)

	token, err := v.Generate("client-42", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "client-42", sub)
}

func TestJWTVerifier_Expired(t *testing.T) {
	v, err := NewJWTVerifier([]byte("test-secret"))
	require.NoError(t, err)

	token, err := v.Generate("client-42", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	signer, err := NewJWTVerifier([]byte("secret-a"))
	require.NoError(t, err)
	verifier, err := NewJWTVerifier([]byte("secret-b"))
	require.NoError(t, err)

	token, err := signer.Generate("client-42", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_Garbage(t *testing.T) {
	v, err := NewJWTVerifier([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	_, err := NewJWTVerifier(nil)
	assert.Error(t, err)
}

func TestFromRequest(t *testing.T) {
	t.Run("authorization header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/sse", nil)
		r.Header.Set("Authorization", "Bearer abc123")

		token, err := FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
	})

	t.Run("query parameter fallback", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/sse?token=xyz789", nil)

		token, err := FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "xyz789", token)
	})

	t.Run("header wins over query", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/sse?token=query-token", nil)
		r.Header.Set("Authorization", "Bearer header-token")

		token, err := FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "header-token", token)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/sse", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		_, err := FromRequest(r)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/sse", nil)

		_, err := FromRequest(r)
		assert.ErrorIs(t, err, ErrNoToken)
	})
}
