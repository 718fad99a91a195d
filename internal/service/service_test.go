package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/db/dbtest"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var resetTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no mail sent")
	return f.sent[len(f.sent)-1]
}

func (f *fakeMailer) resetToken(t *testing.T) string {
	t.Helper()
	m := resetTokenPattern.FindStringSubmatch(f.last(t).body)
	require.Len(t, m, 2, "reset link not found in mail body")
	return m[1]
}

func testConfig() config.Config {
	return config.Config{
		HTTP: config.HTTPConfig{FrontendHost: "http://localhost:5173"},
		Auth: config.AuthConfig{
			SecretKey:      "test-secret-key",
			AccessTokenTTL: time.Hour,
			ResetTokenTTL:  time.Hour,
			BcryptCost:     bcrypt.MinCost,
			AllowSignup:    true,
		},
		SMTP: config.SMTPConfig{ProjectName: "Accounts"},
	}
}

type fixture struct {
	store   *dbtest.Memory
	hasher  *security.PasswordHasher
	mailer  *fakeMailer
	auth    *AuthService
	users   *UserService
	clients *ClientService
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	store := dbtest.NewMemory()
	hasher, err := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	require.NoError(t, err)
	mailer := &fakeMailer{}

	auth, err := NewAuthService(store, hasher, mailer, cfg)
	require.NoError(t, err)
	return &fixture{
		store:   store,
		hasher:  hasher,
		mailer:  mailer,
		auth:    auth,
		users:   NewUserService(store, hasher, mailer, cfg),
		clients: NewClientService(store, hasher),
	}
}

func (f *fixture) register(t *testing.T, email, password string) *model.Account {
	t.Helper()
	account, err := f.users.Register(context.Background(), model.UserRegister{Email: email, Password: password})
	require.NoError(t, err)
	return account
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
