package dbx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCredentialsTokenSource_NoCredentials(t *testing.T) {
	_, err := CredentialsTokenSource(context.Background(), "", "", "", "", testLogger())
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestCredentialsTokenSource_RefreshTokenRequiresAppKey(t *testing.T) {
	_, err := CredentialsTokenSource(context.Background(), "", "refresh-token", "", "", testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app key is required")
}

func TestCredentialsTokenSource_StaticAccessToken(t *testing.T) {
	src, err := CredentialsTokenSource(context.Background(), "access-token", "", "", "", testLogger())
	require.NoError(t, err)

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-token", tok)
}

func TestCredentialsTokenSource_RefreshTokenTakesPrecedence(t *testing.T) {
	src, err := CredentialsTokenSource(
		context.Background(), "access-token", "refresh-token", "app-key", "app-secret", testLogger(),
	)
	require.NoError(t, err)

	_, isStatic := src.(staticToken)
	assert.False(t, isStatic, "a refresh token must win over a static access token")
}

func TestRefreshingToken(t *testing.T) {
	src := &refreshingToken{src: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fresh"})}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
}

func TestRefreshingToken_ExchangesRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-token", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"exchanged","token_type":"bearer","expires_in":14400}`))
	}))
	defer server.Close()

	cfg := &oauth2.Config{
		ClientID: "app-key",
		Endpoint: oauth2.Endpoint{TokenURL: server.URL},
	}

	src := &refreshingToken{
		src: cfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: "refresh-token"}),
	}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "exchanged", tok)
}
