package service

import (
	"biteswipe/internal/model"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, err := auth.GenerateUserToken("U1")
	require.NoError(t, err)

	claims, err := auth.ValidateUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID)
	assert.Equal(t, "U1", claims.Subject)
}

func TestValidateUserTokenRejects(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	other, err := NewAuthService("other-secret", time.Hour).GenerateUserToken("U1")
	require.NoError(t, err)

	expired, err := NewAuthService("secret", -time.Minute).GenerateUserToken("U1")
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.UserClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS384, &model.UserClaims{UserID: "U1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"other secret": other,
		"expired":      expired,
		"no user":      noUser,
		"wrong alg":    wrongAlg,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateUserToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
