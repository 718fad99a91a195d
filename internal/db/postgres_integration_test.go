package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kube-rca/accounts/internal/config"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/stretchr/testify/require"
)

// 실제 PostgreSQL 이 필요한 테스트. TEST_DATABASE_URL 이 없으면 skip
func newIntegrationStore(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, ApplyMigrations(dsn))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPostgresPool(ctx, config.PostgresConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return &Postgres{Pool: pool}
}

func createTestAccount(t *testing.T, store *Postgres) *model.Account {
	t.Helper()
	hash := "initial-hash"
	account, err := store.CreateAccount(context.Background(), model.NewAccount{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: &hash,
		IsActive:     true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteAccount(context.Background(), account.ID) })
	return account
}

func TestPostgresConsumeResetTokenOnce(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	account := createTestAccount(t, store)

	digest := uuid.NewString()
	require.NoError(t, store.SetResetToken(ctx, account.ID, digest, time.Now().Add(time.Hour)))
	require.ErrorIs(t, store.ConsumeResetToken(ctx, account.ID, "other-digest", "hash-x"), ErrNotFound)

	require.NoError(t, store.ConsumeResetToken(ctx, account.ID, digest, "hash-1"))
	require.ErrorIs(t, store.ConsumeResetToken(ctx, account.ID, digest, "hash-2"), ErrNotFound)

	stored, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-1", *stored.PasswordHash)
	require.Nil(t, stored.ResetTokenHash)
	require.Nil(t, stored.ResetTokenExpiresAt)
}

func TestPostgresLinkExternalID(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	first := createTestAccount(t, store)
	second := createTestAccount(t, store)
	subject := "google-" + uuid.NewString()

	linked, err := store.LinkExternalID(ctx, first.ID, subject)
	require.NoError(t, err)
	require.Equal(t, subject, *linked.ExternalID)

	// 이미 연결된 계정은 그대로 반환
	again, err := store.LinkExternalID(ctx, first.ID, "google-other")
	require.NoError(t, err)
	require.Equal(t, subject, *again.ExternalID)

	_, err = store.LinkExternalID(ctx, second.ID, subject)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestPostgresUpdateAccountKeepsPassword(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	account := createTestAccount(t, store)

	digest := uuid.NewString()
	require.NoError(t, store.SetResetToken(ctx, account.ID, digest, time.Now().Add(time.Hour)))
	require.NoError(t, store.SetPassword(ctx, account.ID, "hash-new"))

	stale := *account
	name := "Renamed"
	stale.FullName = &name
	updated, err := store.UpdateAccount(ctx, &stale)
	require.NoError(t, err)
	require.Equal(t, "hash-new", *updated.PasswordHash)
	require.Nil(t, updated.ResetTokenHash)

	require.ErrorIs(t, store.SetPassword(ctx, uuid.New(), "hash"), ErrNotFound)
}
