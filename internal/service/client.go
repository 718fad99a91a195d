package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/db"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/security"
)

// ClientStore - clients 테이블 접근 인터페이스
type ClientStore interface {
	CreateClient(ctx context.Context, c model.ClientApplication) (*model.ClientApplication, error)
	GetClientByClientID(ctx context.Context, clientID uuid.UUID) (*model.ClientApplication, error)
	UpdateClient(ctx context.Context, c *model.ClientApplication) (*model.ClientApplication, error)
	DeleteClient(ctx context.Context, clientID uuid.UUID) error
	ListClients(ctx context.Context, offset, limit int) ([]model.ClientApplication, int, error)
}

type ClientService struct {
	clients ClientStore
	hasher  *security.PasswordHasher
}

func NewClientService(clients ClientStore, hasher *security.PasswordHasher) *ClientService {
	return &ClientService{clients: clients, hasher: hasher}
}

// Create registers a client. The plain secret is only returned here.
func (s *ClientService) Create(ctx context.Context, owner *model.Account, req model.ClientCreate) (*model.ClientCreateResponse, error) {
	secret, _, err := security.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := s.clients.CreateClient(ctx, model.ClientApplication{
		ClientID:     uuid.New(),
		Name:         req.Name,
		SecretHash:   hash,
		OwnerID:      owner.ID,
		RedirectURIs: req.RedirectURIs,
		Scopes:       req.Scopes,
		IsActive:     active,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("registered client", "client_id", created.ClientID, "owner_id", owner.ID)

	return &model.ClientCreateResponse{
		ClientPublic: created.Public(),
		ClientSecret: secret,
	}, nil
}

func (s *ClientService) Get(ctx context.Context, clientID uuid.UUID) (*model.ClientApplication, error) {
	client, err := s.clients.GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, skip, limit int) (*model.ClientsPublic, error) {
	clients, count, err := s.clients.ListClients(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := &model.ClientsPublic{Data: make([]model.ClientPublic, 0, len(clients)), Count: count}
	for i := range clients {
		out.Data = append(out.Data, clients[i].Public())
	}
	return out, nil
}

// Update applies the fields present in req.
func (s *ClientService) Update(ctx context.Context, clientID uuid.UUID, req model.ClientUpdate) (*model.ClientApplication, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.RedirectURIs != nil {
		client.RedirectURIs = req.RedirectURIs
	}
	if req.Scopes != nil {
		client.Scopes = req.Scopes
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	updated, err := s.clients.UpdateClient(ctx, client)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *ClientService) Delete(ctx context.Context, clientID uuid.UUID) error {
	if err := s.clients.DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	slog.Info("deleted client", "client_id", clientID)
	return nil
}

// Authenticate verifies a client's credentials. Unknown, inactive and
// mismatching clients all return ErrUnauthorized.
func (s *ClientService) Authenticate(ctx context.Context, clientID uuid.UUID, secret string) (*model.ClientApplication, error) {
	client, err := s.clients.GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.hasher.Verify(secret, "")
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !s.hasher.Verify(secret, client.SecretHash) || !client.IsActive {
		return nil, ErrUnauthorized
	}
	return client, nil
}
