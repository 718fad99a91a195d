// Package dbtest provides an in-memory store with the same key-uniqueness
// rules as the Postgres schema, for service and handler tests.
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/db"
	"github.com/kube-rca/accounts/internal/model"
)

type Memory struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	clients  map[uuid.UUID]model.ClientApplication
	seq      int

	// BeforeCreateAccount, if set, runs inside CreateAccount before the
	// uniqueness check (used to simulate a concurrent insert).
	BeforeCreateAccount func(m *Memory, params model.NewAccount)
}

func NewMemory() *Memory {
	return &Memory{
		accounts: map[uuid.UUID]model.Account{},
		clients:  map[uuid.UUID]model.ClientApplication{},
	}
}

// AccountCount returns the number of stored accounts.
func (m *Memory) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *Memory) nextTime() time.Time {
	m.seq++
	return time.Unix(1_700_000_000, 0).Add(time.Duration(m.seq) * time.Second)
}

func (m *Memory) CreateAccount(ctx context.Context, params model.NewAccount) (*model.Account, error) {
	if hook := m.BeforeCreateAccount; hook != nil {
		m.BeforeCreateAccount = nil
		hook(m, params)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a := model.Account{
		ID:           uuid.New(),
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		IsActive:     params.IsActive,
		IsSuperuser:  params.IsSuperuser,
		ExternalID:   params.ExternalID,
	}
	if err := m.checkAccountUnique(a); err != nil {
		return nil, err
	}
	a.CreatedAt = m.nextTime()
	a.UpdatedAt = a.CreatedAt
	m.accounts[a.ID] = a
	return &a, nil
}

func (m *Memory) checkAccountUnique(a model.Account) error {
	for id, other := range m.accounts {
		if id == a.ID {
			continue
		}
		if other.Email == a.Email {
			return fmt.Errorf("%w: users_email_key", db.ErrDuplicate)
		}
		if a.ExternalID != nil && other.ExternalID != nil && *a.ExternalID == *other.ExternalID {
			return fmt.Errorf("%w: users_google_id_key", db.ErrDuplicate)
		}
		if a.ResetTokenHash != nil && other.ResetTokenHash != nil && *a.ResetTokenHash == *other.ResetTokenHash {
			return fmt.Errorf("%w: users_password_reset_token_hash_key", db.ErrDuplicate)
		}
	}
	return nil
}

func (m *Memory) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return m.findAccount(func(a model.Account) bool { return a.Email == email })
}

func (m *Memory) GetAccountByResetTokenHash(ctx context.Context, digest string) (*model.Account, error) {
	return m.findAccount(func(a model.Account) bool {
		return a.ResetTokenHash != nil && *a.ResetTokenHash == digest
	})
}

func (m *Memory) findAccount(match func(model.Account) bool) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if match(a) {
			found := a
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *Memory) UpdateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.accounts[a.ID]
	if !ok {
		return nil, db.ErrNotFound
	}
	stored.Email = a.Email
	stored.FullName = a.FullName
	stored.IsActive = a.IsActive
	stored.IsSuperuser = a.IsSuperuser
	if err := m.checkAccountUnique(stored); err != nil {
		return nil, err
	}
	stored.UpdatedAt = m.nextTime()
	m.accounts[a.ID] = stored
	return &stored, nil
}

func (m *Memory) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return db.ErrNotFound
	}
	a.ResetTokenHash = &digest
	a.ResetTokenExpiresAt = &expiresAt
	if err := m.checkAccountUnique(a); err != nil {
		return err
	}
	m.accounts[id] = a
	return nil
}

func (m *Memory) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return db.ErrNotFound
	}
	a.PasswordHash = &passwordHash
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	a.UpdatedAt = m.nextTime()
	m.accounts[id] = a
	return nil
}

// SetResetTokenExpiry overrides the stored expiry of a pending reset token.
func (m *Memory) SetResetTokenExpiry(id uuid.UUID, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.accounts[id]
	a.ResetTokenExpiresAt = &expiresAt
	m.accounts[id] = a
}

func (m *Memory) ConsumeResetToken(ctx context.Context, id uuid.UUID, digest, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.ResetTokenHash == nil || *a.ResetTokenHash != digest {
		return db.ErrNotFound
	}
	a.PasswordHash = &passwordHash
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	a.UpdatedAt = m.nextTime()
	m.accounts[id] = a
	return nil
}

func (m *Memory) LinkExternalID(ctx context.Context, id uuid.UUID, externalID string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if a.ExternalID == nil {
		a.ExternalID = &externalID
		if err := m.checkAccountUnique(a); err != nil {
			return nil, err
		}
		a.UpdatedAt = m.nextTime()
		m.accounts[id] = a
	}
	return &a, nil
}

func (m *Memory) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.accounts, id)
	for key, c := range m.clients {
		if c.OwnerID == id {
			delete(m.clients, key)
		}
	}
	return nil
}

func (m *Memory) ListAccounts(ctx context.Context, offset, limit int) ([]model.Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return page(all, offset, limit), len(all), nil
}

func (m *Memory) CreateClient(ctx context.Context, c model.ClientApplication) (*model.ClientApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[c.OwnerID]; !ok {
		return nil, fmt.Errorf("foreign key violation: owner %s", c.OwnerID)
	}
	if _, ok := m.clients[c.ClientID]; ok {
		return nil, fmt.Errorf("%w: clients_client_id_key", db.ErrDuplicate)
	}
	c.ID = uuid.New()
	c.CreatedAt = m.nextTime()
	c.UpdatedAt = c.CreatedAt
	m.clients[c.ClientID] = c
	return &c, nil
}

func (m *Memory) GetClientByClientID(ctx context.Context, clientID uuid.UUID) (*model.ClientApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[clientID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) UpdateClient(ctx context.Context, c *model.ClientApplication) (*model.ClientApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.clients[c.ClientID]
	if !ok {
		return nil, db.ErrNotFound
	}
	stored.Name = c.Name
	stored.RedirectURIs = c.RedirectURIs
	stored.Scopes = c.Scopes
	stored.IsActive = c.IsActive
	stored.UpdatedAt = m.nextTime()
	m.clients[c.ClientID] = stored
	return &stored, nil
}

func (m *Memory) DeleteClient(ctx context.Context, clientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[clientID]; !ok {
		return db.ErrNotFound
	}
	delete(m.clients, clientID)
	return nil
}

func (m *Memory) ListClients(ctx context.Context, offset, limit int) ([]model.ClientApplication, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]model.ClientApplication, 0, len(m.clients))
	for _, c := range m.clients {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return page(all, offset, limit), len(all), nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
