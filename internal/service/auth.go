package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/db"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/security"
	tmpl "github.com/kube-rca/accounts/internal/template"
)

const tokenTypeBearer = "bearer"

// AccountStore - users 테이블 접근 인터페이스
type AccountStore interface {
	CreateAccount(ctx context.Context, params model.NewAccount) (*model.Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByResetTokenHash(ctx context.Context, digest string) (*model.Account, error)
	UpdateAccount(ctx context.Context, a *model.Account) (*model.Account, error)
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, id uuid.UUID, digest, passwordHash string) error
	LinkExternalID(ctx context.Context, id uuid.UUID, externalID string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	ListAccounts(ctx context.Context, offset, limit int) ([]model.Account, int, error)
}

// Mailer delivers one html message. A nil Mailer means emails are disabled.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type AuthService struct {
	accounts     AccountStore
	hasher       *security.PasswordHasher
	tokens       *security.TokenIssuer
	mailer       Mailer
	accessTTL    time.Duration
	resetTTL     time.Duration
	projectName  string
	frontendHost string
	now          func() time.Time
}

func NewAuthService(accounts AccountStore, hasher *security.PasswordHasher, mailer Mailer, cfg config.Config) (*AuthService, error) {
	if strings.TrimSpace(cfg.Auth.SecretKey) == "" {
		return nil, fmt.Errorf("%w: SECRET_KEY is required", ErrMisconfigured)
	}
	if cfg.Auth.AccessTokenTTL <= 0 || cfg.Auth.ResetTokenTTL <= 0 {
		return nil, fmt.Errorf("%w: token TTLs must be positive", ErrMisconfigured)
	}

	return &AuthService{
		accounts:     accounts,
		hasher:       hasher,
		tokens:       security.NewTokenIssuer([]byte(cfg.Auth.SecretKey)),
		mailer:       mailer,
		accessTTL:    cfg.Auth.AccessTokenTTL,
		resetTTL:     cfg.Auth.ResetTokenTTL,
		projectName:  cfg.SMTP.ProjectName,
		frontendHost: cfg.HTTP.FrontendHost,
		now:          time.Now,
	}, nil
}

func (s *AuthService) setClock(now func() time.Time) {
	s.now = now
	s.tokens = s.tokens.WithClock(now)
}

// Authenticate checks email and password. Unknown email and wrong password
// both return ErrIncorrectCredentials after one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.hasher.Verify(password, "")
			return nil, ErrIncorrectCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, derefString(account.PasswordHash)) {
		return nil, ErrIncorrectCredentials
	}
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Token, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrInactiveAccount
	}
	return s.IssueAccessToken(account)
}

func (s *AuthService) IssueAccessToken(account *model.Account) (*model.Token, error) {
	signed, _, err := s.tokens.Issue(account.ID.String(), s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &model.Token{
		AccessToken: signed,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	subject, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	return &model.AuthUser{ID: id}, nil
}

// CurrentAccount resolves a bearer token to its stored account.
// Deactivation does not invalidate issued tokens.
func (s *AuthService) CurrentAccount(ctx context.Context, tokenStr string) (*model.Account, error) {
	user, err := s.ParseAccessToken(tokenStr)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccountByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// RequestPasswordReset issues a reset token for email and mails it.
// An unknown email is not an error, so the caller cannot tell accounts apart.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			slog.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.issueResetToken(ctx, account)
	if err != nil {
		return err
	}

	if s.mailer == nil {
		slog.Warn("emails disabled, password reset token not delivered", "user_id", account.ID)
		return nil
	}

	content, err := tmpl.RenderPasswordReset(tmpl.PasswordResetData{
		ProjectName: s.projectName,
		Email:       account.Email,
		Link:        s.resetLink(token),
		ValidFor:    s.resetTTL,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, account.Email, content.Subject, content.HTML); err != nil {
		slog.Error("failed to send password reset email", "user_id", account.ID, "error", err)
		return fmt.Errorf("%w: send password reset email", ErrUpstream)
	}
	return nil
}

// issueResetToken replaces any pending token for account and returns the raw token.
func (s *AuthService) issueResetToken(ctx context.Context, account *model.Account) (string, error) {
	token, digest, err := security.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.accounts.SetResetToken(ctx, account.ID, digest, s.now().Add(s.resetTTL)); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) resetLink(token string) string {
	return strings.TrimRight(s.frontendHost, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// ResetPassword redeems a reset token. Expired tokens are left in place.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	digest := security.DigestToken(token)

	account, err := s.accounts.GetAccountByResetTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if security.Expired(account.ResetTokenExpiresAt, s.now()) {
		return ErrResetTokenExpired
	}

	hash, err := hashPassword(s.hasher, newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.ConsumeResetToken(ctx, account.ID, digest, hash); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	slog.Info("password reset completed", "user_id", account.ID)
	return nil
}

// ResolveFederated finds or creates the account for an external identity.
// An existing account linked to a different external id is rejected.
func (s *AuthService) ResolveFederated(ctx context.Context, identity model.Identity) (*model.Account, error) {
	email := normalizeEmail(identity.Email)
	if email == "" || strings.TrimSpace(identity.Subject) == "" {
		return nil, ErrInvalidInput
	}

	// 두 번째 시도는 동시 콜백이 먼저 계정을 만든 경우
	for attempt := 0; attempt < 2; attempt++ {
		account, err := s.accounts.GetAccountByEmail(ctx, email)
		if err == nil {
			return s.linkExternalID(ctx, account, identity.Subject)
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}

		created, err := s.accounts.CreateAccount(ctx, model.NewAccount{
			Email:      email,
			FullName:   optionalString(identity.Name),
			IsActive:   true,
			ExternalID: &identity.Subject,
		})
		if err == nil {
			slog.Info("created federated account", "user_id", created.ID)
			return created, nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return nil, err
		}
		slog.Info("federated account create raced, retrying lookup", "attempt", attempt)
	}
	return nil, ErrIdentityConflict
}

func (s *AuthService) linkExternalID(ctx context.Context, account *model.Account, subject string) (*model.Account, error) {
	if account.ExternalID != nil {
		if *account.ExternalID != subject {
			slog.Warn("external id mismatch for existing account", "user_id", account.ID)
			return nil, ErrIdentityConflict
		}
		return account, nil
	}

	linked, err := s.accounts.LinkExternalID(ctx, account.ID, subject)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrIdentityConflict
		}
		return nil, err
	}
	if linked.ExternalID == nil || *linked.ExternalID != subject {
		return nil, ErrIdentityConflict
	}
	slog.Info("linked external identity", "user_id", linked.ID)
	return linked, nil
}

// hashPassword maps passwords bcrypt cannot take to ErrInvalidInput.
func hashPassword(hasher *security.PasswordHasher, plain string) (string, error) {
	hash, err := hasher.Hash(plain)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return hash, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
