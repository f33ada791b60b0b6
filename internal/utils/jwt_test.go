package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dentamart/internal/models"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(testSecret, userID, models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsedID, role, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, uuid.New(), models.RoleUser, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, uuid.New(), models.RoleUser, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, _, err := ParseToken(testSecret, "not.a.token")
	assert.Error(t, err)
}
