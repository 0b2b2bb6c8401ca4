package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const credentialsJSON = `{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"shh",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestTokenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(credentialsJSON), 0o600))

	config, err := loadOAuthConfig(creds)
	require.NoError(t, err)
	assert.Equal(t, "cid.apps.googleusercontent.com", config.ClientID)
	assert.Equal(t, Scopes, config.Scopes)

	expiry := time.Date(2025, 1, 10, 12, 0, 0, 123456000, time.UTC)
	tokenPath := filepath.Join(dir, "token.json")
	require.NoError(t, savePythonToken(tokenPath, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}, config))

	info, err := os.Stat(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := loadPythonToken(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))
}

func TestMissingTokenAsksForAuth(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(credentialsJSON), 0o600))

	_, err := getClient(context.Background(), Paths{
		Credentials: creds,
		Token:       filepath.Join(dir, "token.json"),
	}, logrus.New())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestMissingCredentials(t *testing.T) {
	_, err := loadOAuthConfig(filepath.Join(t.TempDir(), "credentials.json"))
	assert.ErrorContains(t, err, "read credentials")
}
