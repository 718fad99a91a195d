package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kube-rca/accounts/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeExchanger struct {
	identity *model.Identity
	err      error
}

func (f *fakeExchanger) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*model.Identity, error) {
	return f.identity, f.err
}

func TestGoogleCallback(t *testing.T) {
	f := newFixture(t, testConfig())
	provider := &fakeExchanger{identity: &model.Identity{Email: "jane@example.com", Subject: "google-1", Name: "Jane"}}
	google := NewGoogleAuthService(f.auth, provider)

	require.Equal(t, "https://accounts.example.com/auth?state=s1", google.LoginURL("s1"))

	token, err := google.Callback(context.Background(), "code")
	require.NoError(t, err)
	user, err := f.auth.ParseAccessToken(token.AccessToken)
	require.NoError(t, err)

	account, err := f.store.GetAccountByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, account.ID, user.ID)
}

func TestGoogleCallbackProviderError(t *testing.T) {
	f := newFixture(t, testConfig())
	google := NewGoogleAuthService(f.auth, &fakeExchanger{err: errors.New(`failed to get token from Google: {"error":"invalid_grant"}`)})

	_, err := google.Callback(context.Background(), "code")
	require.ErrorIs(t, err, ErrUpstream)
	require.Contains(t, err.Error(), "invalid_grant")
	require.Equal(t, 0, f.store.AccountCount())
}

func TestGoogleCallbackInactive(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	account := f.register(t, "jane@example.com", "password1")
	_, err := f.users.Update(ctx, account.ID, model.UserUpdate{IsActive: boolPtr(false)})
	require.NoError(t, err)

	google := NewGoogleAuthService(f.auth, &fakeExchanger{identity: &model.Identity{Email: "jane@example.com", Subject: "google-1"}})
	_, err = google.Callback(ctx, "code")
	require.ErrorIs(t, err, ErrInactiveAccount)
}

func TestGoogleCallbackMissingClaims(t *testing.T) {
	f := newFixture(t, testConfig())
	google := NewGoogleAuthService(f.auth, &fakeExchanger{identity: &model.Identity{Subject: "google-1"}})

	_, err := google.Callback(context.Background(), "code")
	require.ErrorIs(t, err, ErrInvalidInput)
}
