package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sefazor/storefront/internal/models"
)

func TestManagerLoginAndCurrent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), nil)

	assert.Equal(t, RouteLogin, m.StartRoute(ctx))
	_, err := m.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, m.Login(ctx, Identity{AccessToken: "tok", UserID: "u1"}))

	id, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Identity{AccessToken: "tok", UserID: "u1", Role: models.RoleUser}, id)
	assert.Equal(t, RouteHome, m.StartRoute(ctx))

	token, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestManagerLoginRequiresTokenAndUser(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	assert.ErrorIs(t, m.Login(context.Background(), Identity{UserID: "u1"}), ErrNoSession)
	assert.ErrorIs(t, m.Login(context.Background(), Identity{AccessToken: "tok", UserID: "  "}), ErrNoSession)
}

func TestManagerAdminRoute(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), nil)
	require.NoError(t, m.Login(ctx, Identity{AccessToken: "tok", UserID: "u1", Role: models.RoleAdmin}))
	assert.Equal(t, RouteAdmin, m.StartRoute(ctx))
}

func TestManagerUpdateRole(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, nil)

	_, err := m.UpdateRole(ctx, models.RolePremium)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, m.Login(ctx, Identity{AccessToken: "tok", UserID: "u1"}))

	prev, err := m.UpdateRole(ctx, models.RolePremium)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, prev)

	stored, err := store.Get(ctx, KeyUserRole)
	require.NoError(t, err)
	assert.Equal(t, "premium", stored)

	_, err = m.UpdateRole(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestManagerLogoutKeepsTheme(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), nil)
	require.NoError(t, m.Login(ctx, Identity{AccessToken: "tok", UserID: "u1"}))
	require.NoError(t, m.SetTheme(ctx, ThemeDark))

	require.NoError(t, m.Logout(ctx))

	_, err := m.UserID(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, ThemeDark, m.Theme(ctx))
	assert.Error(t, m.SetTheme(ctx, "neon"))
}

func TestManagerConcurrentRoleUpdates(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), nil)
	require.NoError(t, m.Login(ctx, Identity{AccessToken: "tok", UserID: "u1"}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.UpdateRole(ctx, models.RolePremium)
			_, _ = m.Current(ctx)
		}()
	}
	wg.Wait()

	role, err := m.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, role)
}
