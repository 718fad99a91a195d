package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kube-rca/accounts/internal/db/dbtest"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/stretchr/testify/require"
)

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.SecretKey = " "
	_, err := NewAuthService(nil, nil, nil, cfg)
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	account := f.register(t, "User@Example.com", "correct-horse")

	got, err := f.auth.Authenticate(ctx, "user@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)

	_, err = f.auth.Authenticate(ctx, "user@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrIncorrectCredentials)

	_, err = f.auth.Authenticate(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrIncorrectCredentials)
}

func TestLoginInactive(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	account := f.register(t, "user@example.com", "correct-horse")

	_, err := f.users.Update(ctx, account.ID, model.UserUpdate{IsActive: boolPtr(false)})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "user@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrIncorrectCredentials)

	_, err = f.auth.Login(ctx, "user@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrInactiveAccount)
}

func TestLoginIssuesToken(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	account := f.register(t, "user@example.com", "correct-horse")

	token, err := f.auth.Login(ctx, "user@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "bearer", token.TokenType)
	require.Equal(t, int64(3600), token.ExpiresIn)

	user, err := f.auth.ParseAccessToken(token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, account.ID, user.ID)

	current, err := f.auth.CurrentAccount(ctx, token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", current.Email)
}

func TestAccessTokenExpires(t *testing.T) {
	f := newFixture(t, testConfig())
	account := f.register(t, "user@example.com", "correct-horse")

	now := time.Now()
	f.auth.setClock(func() time.Time { return now })
	token, err := f.auth.IssueAccessToken(account)
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Minute)
	_, err = f.auth.ParseAccessToken(token.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseAccessTokenRejectsForeignKey(t *testing.T) {
	f := newFixture(t, testConfig())
	account := f.register(t, "user@example.com", "correct-horse")

	cfg := testConfig()
	cfg.Auth.SecretKey = "another-secret"
	other, err := NewAuthService(f.store, f.hasher, nil, cfg)
	require.NoError(t, err)
	token, err := other.IssueAccessToken(account)
	require.NoError(t, err)

	_, err = f.auth.ParseAccessToken(token.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.auth.ParseAccessToken("not-a-jwt")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCurrentAccountDeleted(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	account := f.register(t, "user@example.com", "correct-horse")
	token, err := f.auth.IssueAccessToken(account)
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteMe(ctx, account))
	_, err = f.auth.CurrentAccount(ctx, token.AccessToken)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	f.register(t, "user@example.com", "old-password")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "USER@example.com"))
	mail := f.mailer.last(t)
	require.Equal(t, "user@example.com", mail.to)
	require.Equal(t, "Accounts - Password recovery for user user@example.com", mail.subject)
	require.Contains(t, mail.body, "http://localhost:5173/reset-password?token=")
	token := f.mailer.resetToken(t)

	require.NoError(t, f.auth.ResetPassword(ctx, token, "new-password"))

	_, err := f.auth.Authenticate(ctx, "user@example.com", "new-password")
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, "user@example.com", "old-password")
	require.ErrorIs(t, err, ErrIncorrectCredentials)

	// 같은 토큰은 한 번만 사용 가능
	err = f.auth.ResetPassword(ctx, token, "third-password")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetRejectsOverlongPassword(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	f.register(t, "user@example.com", "old-password")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "user@example.com"))
	err := f.auth.ResetPassword(ctx, f.mailer.resetToken(t), strings.Repeat("비", 30))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPasswordResetExpired(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	f.register(t, "user@example.com", "old-password")

	now := time.Now()
	f.auth.setClock(func() time.Time { return now })
	require.NoError(t, f.auth.RequestPasswordReset(ctx, "user@example.com"))
	token := f.mailer.resetToken(t)

	now = now.Add(time.Hour + time.Second)
	err := f.auth.ResetPassword(ctx, token, "new-password")
	require.ErrorIs(t, err, ErrResetTokenExpired)

	_, err = f.auth.Authenticate(ctx, "user@example.com", "old-password")
	require.NoError(t, err)
}

func TestPasswordResetNewRequestReplacesToken(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	f.register(t, "user@example.com", "old-password")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "user@example.com"))
	first := f.mailer.resetToken(t)
	require.NoError(t, f.auth.RequestPasswordReset(ctx, "user@example.com"))
	second := f.mailer.resetToken(t)
	require.NotEqual(t, first, second)

	require.ErrorIs(t, f.auth.ResetPassword(ctx, first, "new-password"), ErrInvalidResetToken)
	require.NoError(t, f.auth.ResetPassword(ctx, second, "new-password"))
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t, testConfig())

	require.NoError(t, f.auth.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.Empty(t, f.mailer.sent)
}

func TestPasswordResetInvalidToken(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	require.ErrorIs(t, f.auth.ResetPassword(ctx, "", "new-password"), ErrInvalidResetToken)
	require.ErrorIs(t, f.auth.ResetPassword(ctx, "bogus-token", "new-password"), ErrInvalidResetToken)
}

func TestPasswordResetMailFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	f.register(t, "user@example.com", "old-password")
	f.mailer.err = errors.New("dial tcp: connection refused")

	err := f.auth.RequestPasswordReset(context.Background(), "user@example.com")
	require.ErrorIs(t, err, ErrUpstream)
	require.NotContains(t, err.Error(), "connection refused")
}

func TestPasswordResetWithoutMailer(t *testing.T) {
	cfg := testConfig()
	f := newFixture(t, cfg)
	auth, err := NewAuthService(f.store, f.hasher, nil, cfg)
	require.NoError(t, err)
	account := f.register(t, "user@example.com", "old-password")

	require.NoError(t, auth.RequestPasswordReset(context.Background(), "user@example.com"))
	stored, err := f.store.GetAccountByID(context.Background(), account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
}

func TestResolveFederatedCreatesOnce(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	identity := model.Identity{Email: "Jane@Example.com", Subject: "google-1", Name: "Jane"}

	first, err := f.auth.ResolveFederated(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", first.Email)
	require.True(t, first.FederatedOnly())
	require.Equal(t, "Jane", *first.FullName)
	require.Equal(t, "google-1", *first.ExternalID)

	second, err := f.auth.ResolveFederated(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, f.store.AccountCount())

	// 외부 전용 계정은 비밀번호 로그인 불가
	_, err = f.auth.Authenticate(ctx, "jane@example.com", "")
	require.ErrorIs(t, err, ErrIncorrectCredentials)
}

func TestResolveFederatedLinksExistingAccount(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	account := f.register(t, "jane@example.com", "local-password")

	linked, err := f.auth.ResolveFederated(ctx, model.Identity{Email: "jane@example.com", Subject: "google-1"})
	require.NoError(t, err)
	require.Equal(t, account.ID, linked.ID)
	require.Equal(t, "google-1", *linked.ExternalID)
	require.Equal(t, 1, f.store.AccountCount())

	_, err = f.auth.Authenticate(ctx, "jane@example.com", "local-password")
	require.NoError(t, err)
}

func TestResolveFederatedRejectsMismatch(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	_, err := f.auth.ResolveFederated(ctx, model.Identity{Email: "jane@example.com", Subject: "google-1"})
	require.NoError(t, err)

	_, err = f.auth.ResolveFederated(ctx, model.Identity{Email: "jane@example.com", Subject: "google-2"})
	require.ErrorIs(t, err, ErrIdentityConflict)
}

func TestResolveFederatedSubjectTakenByOtherEmail(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	f.register(t, "other@example.com", "local-password")

	_, err := f.auth.ResolveFederated(ctx, model.Identity{Email: "jane@example.com", Subject: "google-1"})
	require.NoError(t, err)

	_, err = f.auth.ResolveFederated(ctx, model.Identity{Email: "other@example.com", Subject: "google-1"})
	require.ErrorIs(t, err, ErrIdentityConflict)
}

func TestResolveFederatedConcurrentCreate(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	identity := model.Identity{Email: "jane@example.com", Subject: "google-1"}

	f.store.BeforeCreateAccount = func(m *dbtest.Memory, params model.NewAccount) {
		_, err := m.CreateAccount(ctx, params)
		require.NoError(t, err)
	}

	account, err := f.auth.ResolveFederated(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, "google-1", *account.ExternalID)
	require.Equal(t, 1, f.store.AccountCount())
}

func TestResolveFederatedRequiresIdentity(t *testing.T) {
	f := newFixture(t, testConfig())
	_, err := f.auth.ResolveFederated(context.Background(), model.Identity{Email: "jane@example.com"})
	require.ErrorIs(t, err, ErrInvalidInput)
}
