package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute).UTC()

	token, err := NewAccessToken(userID, RoleAdmin, exp, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_Rejections(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")

	expired, err := NewAccessToken("u", RoleUser, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, secret)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	other, err := NewAccessToken("u", RoleUser, time.Now().Add(time.Minute), []byte("other"))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(other, secret)
	assert.Error(t, err)

	_, err = AccessClaimsFromToken("not-a-jwt", secret)
	assert.Error(t, err)
}
