// Google OAuth 2.0 / OpenID Connect 클라이언트
//
// 환경변수:
//   - GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET: Google Cloud OAuth 클라이언트
//   - GOOGLE_REDIRECT_URI: /auth/google/callback 의 외부 URL
//   - GOOGLE_ISSUER (default: https://accounts.google.com)
//
// ID 토큰은 go-oidc 로 서명/aud/만료를 검증한 뒤에만 사용합니다.

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/model"
	"golang.org/x/oauth2"
)

type GoogleClient struct {
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// NewGoogleClient discovers the provider metadata from cfg.Issuer.
func NewGoogleClient(ctx context.Context, cfg config.GoogleConfig) (*GoogleClient, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider: %w", err)
	}

	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient: httpClient,
	}, nil
}

func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a verified identity.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*model.Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("failed to get token from Google: %s", string(retrieveErr.Body))
		}
		return nil, fmt.Errorf("failed to get token from Google: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("ID token not found")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("invalid ID token: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("invalid ID token claims: %w", err)
	}
	if !claims.EmailVerified {
		return nil, errors.New("email not verified by Google")
	}

	return &model.Identity{
		Email:   claims.Email,
		Subject: idToken.Subject,
		Name:    claims.Name,
	}, nil
}
