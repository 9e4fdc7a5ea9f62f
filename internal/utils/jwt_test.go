package utils

import (
	"os"
	"testing"

	"adboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	// The env var must play no part in signing
	os.Unsetenv("JWT_SECRET")

	user := models.User{
		Username: "alice",
		Role:     models.UserRoleAdmin,
	}
	user.ID = "user-1"

	token, err := GenerateSessionToken(user, "session-secret")
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, "session-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestSessionTokenRejectsWrongSecret(t *testing.T) {
	user := models.User{Username: "alice"}
	user.ID = "user-1"

	token, err := GenerateSessionToken(user, "session-secret")
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "another-secret")
	assert.Error(t, err)
}
