package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticateAdminToken(t *testing.T) {
	Init()

	token, err := CreateAdminToken("lobby-1")
	require.NoError(t, err)

	assert.NoError(t, AuthenticateAdminToken(token, "lobby-1"))
	assert.Error(t, AuthenticateAdminToken(token, "lobby-2"), "a token scoped to one lobby must not authenticate another")
}

func TestAuthenticateAdminTokenRejectsGarbage(t *testing.T) {
	Init()
	assert.Error(t, AuthenticateAdminToken("not-a-jwt", "lobby-1"))
}

func TestParseTokenTTLDefaultsToNoExpiry(t *testing.T) {
	t.Setenv("ADMIN_TOKEN_TTL", "")
	assert.Equal(t, int64(0), int64(parseTokenTTL()))
}

func TestParseTokenTTLParsesDuration(t *testing.T) {
	t.Setenv("ADMIN_TOKEN_TTL", "1h")
	assert.Equal(t, "1h0m0s", parseTokenTTL().String())
}
