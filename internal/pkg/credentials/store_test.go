package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/security"
)

type memoryAccounts struct {
	byKey map[string]*models.ProviderAccount
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byKey: map[string]*models.ProviderAccount{}}
}

func (m *memoryAccounts) GetByProviderUserID(_ context.Context, provider, providerUserID string) (*models.ProviderAccount, error) {
	if pa, ok := m.byKey[provider+"/"+providerUserID]; ok {
		cp := *pa
		return &cp, nil
	}
	return nil, models.ErrNotFound
}

func (m *memoryAccounts) GetByUserID(_ context.Context, userID, provider string) (*models.ProviderAccount, error) {
	for _, pa := range m.byKey {
		if pa.UserID == userID && pa.Provider == provider {
			cp := *pa
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memoryAccounts) Save(_ context.Context, account *models.ProviderAccount) error {
	cp := *account
	m.byKey[account.Provider+"/"+account.ProviderUserID] = &cp
	return nil
}

func newStore(t *testing.T) (*Store, *memoryAccounts) {
	t.Helper()
	box, err := security.NewTokenBox("test-secret")
	require.NoError(t, err)
	accounts := newMemoryAccounts()
	return NewStore(accounts, box), accounts
}

func TestLinkAndForUser(t *testing.T) {
	store, accounts := newStore(t)
	ctx := context.Background()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Link(ctx, "user-1", "g-1", calendar.Credentials{AccessToken: "at", RefreshToken: "rt", Expiry: exp}))

	stored := accounts.byKey["google/g-1"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "at", stored.AccessTokenEnc)
	assert.NotEqual(t, "rt", stored.RefreshTokenEnc)

	creds, ok := store.ForUser(ctx, "user-1")
	require.True(t, ok)
	assert.Equal(t, "at", creds.AccessToken)
	assert.Equal(t, "rt", creds.RefreshToken)
	assert.Equal(t, exp, creds.Expiry)

	id, err := store.UserIDFor(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestLinkKeepsRefreshToken(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Link(ctx, "user-1", "g-1", calendar.Credentials{AccessToken: "at1", RefreshToken: "rt"}))
	require.NoError(t, store.Link(ctx, "user-1", "g-1", calendar.Credentials{AccessToken: "at2"}))

	creds, ok := store.ForUser(ctx, "user-1")
	require.True(t, ok)
	assert.Equal(t, "at2", creds.AccessToken)
	assert.Equal(t, "rt", creds.RefreshToken)
}

func TestForUserWithoutAccount(t *testing.T) {
	store, _ := newStore(t)
	_, ok := store.ForUser(context.Background(), "nobody")
	assert.False(t, ok)

	_, err := store.UserIDFor(context.Background(), "g-unknown")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
