// Package auth mints bearer tokens for authenticated load runs using the
// OAuth2 client credentials grant.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// Config holds client credentials grant settings.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Header obtains an access token and wraps it as an Authorization header.
// The token is fetched once, before any worker starts; a failure here aborts
// the whole run.
func (c Config) Header(ctx context.Context) (types.Header, error) {
	if c.TokenURL == "" {
		return types.Header{}, fmt.Errorf("token URL is required")
	}
	if c.ClientID == "" {
		return types.Header{}, fmt.Errorf("client ID is required")
	}

	cfg := clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
		// Credentials go in the request body, where every provider accepts them.
		AuthStyle: oauth2.AuthStyleInParams,
	}

	token, err := cfg.Token(ctx)
	if err != nil {
		return types.Header{}, fmt.Errorf("failed to obtain access token: %w", err)
	}

	return types.Header{Name: "Authorization", Value: token.Type() + " " + token.AccessToken}, nil
}
