package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/stretchr/testify/require"
)

func TestClientLifecycle(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	owner := f.register(t, "owner@example.com", "password1")

	created, err := f.clients.Create(ctx, owner, model.ClientCreate{
		Name:         "dashboard",
		RedirectURIs: []string{"https://app.example.com/callback"},
	})
	require.NoError(t, err)
	require.Len(t, created.ClientSecret, 43)
	require.Equal(t, owner.ID, created.OwnerID)
	require.True(t, created.IsActive)
	require.Equal(t, []string{}, created.Scopes)

	stored, err := f.clients.Get(ctx, created.ClientID)
	require.NoError(t, err)
	require.NotEqual(t, created.ClientSecret, stored.SecretHash)

	updated, err := f.clients.Update(ctx, created.ClientID, model.ClientUpdate{Scopes: []string{"read"}})
	require.NoError(t, err)
	require.Equal(t, "dashboard", updated.Name)
	require.Equal(t, []string{"read"}, updated.Scopes)
	require.Equal(t, []string{"https://app.example.com/callback"}, updated.RedirectURIs)

	list, err := f.clients.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)

	require.NoError(t, f.clients.Delete(ctx, created.ClientID))
	_, err = f.clients.Get(ctx, created.ClientID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, f.clients.Delete(ctx, created.ClientID), ErrNotFound)
}

func TestClientAuthenticate(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	owner := f.register(t, "owner@example.com", "password1")

	created, err := f.clients.Create(ctx, owner, model.ClientCreate{Name: "cli"})
	require.NoError(t, err)

	got, err := f.clients.Authenticate(ctx, created.ClientID, created.ClientSecret)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = f.clients.Authenticate(ctx, created.ClientID, "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.clients.Authenticate(ctx, uuid.New(), created.ClientSecret)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.clients.Update(ctx, created.ClientID, model.ClientUpdate{IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = f.clients.Authenticate(ctx, created.ClientID, created.ClientSecret)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClientsRemovedWithOwner(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	owner := f.register(t, "owner@example.com", "password1")

	created, err := f.clients.Create(ctx, owner, model.ClientCreate{Name: "cli"})
	require.NoError(t, err)
	require.NoError(t, f.users.DeleteMe(ctx, owner))

	_, err = f.clients.Get(ctx, created.ClientID)
	require.ErrorIs(t, err, ErrNotFound)
}
