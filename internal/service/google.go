package service

import (
	"context"
	"fmt"

	"github.com/kube-rca/accounts/internal/model"
)

// IdentityExchanger - 외부 IdP 의 authorization code 를 검증된 Identity 로 교환
type IdentityExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*model.Identity, error)
}

type GoogleAuthService struct {
	auth     *AuthService
	provider IdentityExchanger
}

func NewGoogleAuthService(auth *AuthService, provider IdentityExchanger) *GoogleAuthService {
	return &GoogleAuthService{auth: auth, provider: provider}
}

func (s *GoogleAuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// Callback exchanges code, resolves the local account and issues an access token.
func (s *GoogleAuthService) Callback(ctx context.Context, code string) (*model.Token, error) {
	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if identity.Email == "" || identity.Subject == "" {
		return nil, ErrInvalidInput
	}

	account, err := s.auth.ResolveFederated(ctx, *identity)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrInactiveAccount
	}
	return s.auth.IssueAccessToken(account)
}
