package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/db"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/security"
	tmpl "github.com/kube-rca/accounts/internal/template"
)

type UserService struct {
	accounts     AccountStore
	hasher       *security.PasswordHasher
	mailer       Mailer
	allowSignup  bool
	projectName  string
	frontendHost string
}

func NewUserService(accounts AccountStore, hasher *security.PasswordHasher, mailer Mailer, cfg config.Config) *UserService {
	return &UserService{
		accounts:     accounts,
		hasher:       hasher,
		mailer:       mailer,
		allowSignup:  cfg.Auth.AllowSignup,
		projectName:  cfg.SMTP.ProjectName,
		frontendHost: cfg.HTTP.FrontendHost,
	}
}

// EnsureSuperuser creates the bootstrap superuser if it does not exist yet.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: FIRST_SUPERUSER/FIRST_SUPERUSER_PASSWORD are required", ErrMisconfigured)
	}

	_, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	created, err := s.create(ctx, email, password, nil, true, true)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return err
	}
	slog.Info("created first superuser", "user_id", created.ID)
	return nil
}

func (s *UserService) List(ctx context.Context, skip, limit int) (*model.UsersPublic, error) {
	accounts, count, err := s.accounts.ListAccounts(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := &model.UsersPublic{Data: make([]model.UserPublic, 0, len(accounts)), Count: count}
	for i := range accounts {
		out.Data = append(out.Data, accounts[i].Public())
	}
	return out, nil
}

// Create is the superuser path; it mails the new user when emails are enabled.
func (s *UserService) Create(ctx context.Context, req model.UserCreate) (*model.Account, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	account, err := s.create(ctx, req.Email, req.Password, req.FullName, active, req.IsSuperuser)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		content, err := tmpl.RenderNewAccount(tmpl.NewAccountData{
			ProjectName: s.projectName,
			Username:    account.Email,
			Link:        s.frontendHost,
		})
		if err == nil {
			err = s.mailer.Send(ctx, account.Email, content.Subject, content.HTML)
		}
		if err != nil {
			// 계정은 이미 생성됨 - 메일 실패는 로그만
			slog.Error("failed to send new account email", "user_id", account.ID, "error", err)
		}
	}
	return account, nil
}

func (s *UserService) Register(ctx context.Context, req model.UserRegister) (*model.Account, error) {
	if !s.allowSignup {
		return nil, ErrSignupDisabled
	}
	return s.create(ctx, req.Email, req.Password, req.FullName, true, false)
}

func (s *UserService) create(ctx context.Context, email, password string, fullName *string, active, superuser bool) (*model.Account, error) {
	hash, err := hashPassword(s.hasher, password)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.CreateAccount(ctx, model.NewAccount{
		Email:        normalizeEmail(email),
		FullName:     fullName,
		PasswordHash: &hash,
		IsActive:     active,
		IsSuperuser:  superuser,
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return account, nil
}

// Get returns the account with id. Non-superusers may only read themselves.
func (s *UserService) Get(ctx context.Context, requester *model.Account, id uuid.UUID) (*model.Account, error) {
	if requester.ID == id {
		return requester, nil
	}
	if !requester.IsSuperuser {
		return nil, ErrForbidden
	}
	return s.load(ctx, id)
}

func (s *UserService) UpdateMe(ctx context.Context, current *model.Account, req model.UserUpdateMe) (*model.Account, error) {
	updated := *current
	if req.Email != nil {
		updated.Email = normalizeEmail(*req.Email)
	}
	if req.FullName != nil {
		updated.FullName = req.FullName
	}
	return s.save(ctx, &updated)
}

// UpdatePasswordMe changes the caller's password. Federated-only accounts
// have nothing to compare against and must go through password recovery.
func (s *UserService) UpdatePasswordMe(ctx context.Context, current *model.Account, req model.UpdatePassword) error {
	if current.FederatedOnly() {
		return ErrNoLocalPassword
	}
	if !s.hasher.Verify(req.CurrentPassword, derefString(current.PasswordHash)) {
		return ErrIncorrectPassword
	}
	if req.CurrentPassword == req.NewPassword {
		return ErrSamePassword
	}
	hash, err := hashPassword(s.hasher, req.NewPassword)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, current.ID, hash)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, req model.UserUpdate) (*model.Account, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		account.Email = normalizeEmail(*req.Email)
	}
	if req.FullName != nil {
		account.FullName = req.FullName
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		account.IsSuperuser = *req.IsSuperuser
	}

	var hash string
	if req.Password != nil {
		if hash, err = hashPassword(s.hasher, *req.Password); err != nil {
			return nil, err
		}
	}
	saved, err := s.save(ctx, account)
	if err != nil {
		return nil, err
	}
	if req.Password != nil {
		if err := s.setPassword(ctx, saved.ID, hash); err != nil {
			return nil, err
		}
		saved.PasswordHash = &hash
	}
	return saved, nil
}

func (s *UserService) DeleteMe(ctx context.Context, current *model.Account) error {
	if current.IsSuperuser {
		return ErrForbidden
	}
	return s.delete(ctx, current.ID)
}

func (s *UserService) Delete(ctx context.Context, current *model.Account, id uuid.UUID) error {
	if current.ID == id {
		return ErrForbidden
	}
	return s.delete(ctx, id)
}

func (s *UserService) delete(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	slog.Info("deleted user", "user_id", id)
	return nil
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func (s *UserService) setPassword(ctx context.Context, id uuid.UUID, hash string) error {
	if err := s.accounts.SetPassword(ctx, id, hash); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *UserService) save(ctx context.Context, account *model.Account) (*model.Account, error) {
	saved, err := s.accounts.UpdateAccount(ctx, account)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicate):
			return nil, ErrConflict
		case errors.Is(err, db.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return saved, nil
}
