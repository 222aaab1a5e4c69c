package remote

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"vn.io.arda/console-sync/internal/domain"
)

// CredentialConfig describes the session credential. Every remote call,
// foreground or background, runs as this one identity.
type CredentialConfig struct {
	// Token is a static bearer token.
	Token string
	// TokenURL, ClientID and ClientSecret enable the client-credentials
	// grant; they take precedence over Token when ClientID is set.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// NewTokenSource builds the service credential source, or nil when neither a
// static token nor client credentials are configured.
func NewTokenSource(ctx context.Context, cfg CredentialConfig) oauth2.TokenSource {
	if cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		return cc.TokenSource(ctx)
	}
	if cfg.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	}
	return nil
}

// bearer returns the session credential, or "" when none is configured.
func (c *Client) bearer() (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("obtain session credential: %v: %w", err, domain.ErrUnauthorized)
	}
	return tok.AccessToken, nil
}
