package dbx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

// Dropbox OAuth2 token endpoint, used to exchange refresh tokens for
// short-lived access tokens.
const tokenURL = "https://api.dropboxapi.com/oauth2/token"

// ErrNoCredentials is returned when neither an access token nor a refresh
// token is configured.
var ErrNoCredentials = errors.New("dbx: either an access token or a refresh token is required")

// staticToken is a TokenSource wrapping a long-lived access token.
type staticToken string

func (t staticToken) Token() (string, error) {
	return string(t), nil
}

// refreshingToken adapts an oauth2.TokenSource (which caches and silently
// refreshes the access token) to the package's TokenSource interface.
type refreshingToken struct {
	src oauth2.TokenSource
}

func (t *refreshingToken) Token() (string, error) {
	tok, err := t.src.Token()
	if err != nil {
		return "", fmt.Errorf("dbx: refreshing access token: %w", err)
	}

	return tok.AccessToken, nil
}

// CredentialsTokenSource builds a TokenSource from the configured
// credentials. A refresh token takes precedence over an access token
// because access tokens are short-lived. The app secret is only required
// for refresh tokens not acquired using PKCE.
//
// ctx must outlive the returned TokenSource: it is bound to the
// underlying oauth2 source for silent refresh. Callers should pass
// context.Background() for long-lived clients.
func CredentialsTokenSource(
	ctx context.Context, accessToken, refreshToken, appKey, appSecret string, logger *slog.Logger,
) (TokenSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if refreshToken != "" {
		if appKey == "" {
			return nil, errors.New("dbx: app key is required when using a refresh token")
		}

		logger.Debug("using refresh token credentials")

		cfg := &oauth2.Config{
			ClientID:     appKey,
			ClientSecret: appSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}

		return &refreshingToken{
			src: cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}),
		}, nil
	}

	if accessToken != "" {
		logger.Debug("using static access token credentials")

		return staticToken(accessToken), nil
	}

	return nil, ErrNoCredentials
}
