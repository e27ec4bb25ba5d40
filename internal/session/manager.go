package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sefazor/storefront/internal/models"
)

var (
	ErrNoSession   = errors.New("user id not found, please log in again")
	ErrInvalidRole = errors.New("role must not be empty")
)

type Identity struct {
	AccessToken string
	UserID      string
	Role        models.Role
}

// Route is the first screen picked at startup.
type Route string

const (
	RouteLogin Route = "login"
	RouteHome  Route = "home"
	RouteAdmin Route = "admin"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Manager owns every write to the session keys. Reads and writes are
// serialized so a role update cannot interleave with a login or logout.
type Manager struct {
	store  Store
	logger *zap.Logger
	mu     sync.RWMutex
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

func (m *Manager) Login(ctx context.Context, id Identity) error {
	id.AccessToken = strings.TrimSpace(id.AccessToken)
	id.UserID = strings.TrimSpace(id.UserID)
	if id.AccessToken == "" || id.UserID == "" {
		return ErrNoSession
	}
	if id.Role == "" {
		id.Role = models.RoleUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, KeyAccessToken, id.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := m.store.Set(ctx, KeyUserID, id.UserID); err != nil {
		return fmt.Errorf("store user id: %w", err)
	}
	if err := m.store.Set(ctx, KeyUserRole, string(id.Role)); err != nil {
		return fmt.Errorf("store user role: %w", err)
	}
	m.logger.Info("session started", zap.String("user_id", id.UserID), zap.String("role", string(id.Role)))
	return nil
}

// Logout clears identity keys. The theme preference survives.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, KeyAccessToken, KeyUserID, KeyUserRole); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.Info("session cleared")
	return nil
}

func (m *Manager) Current(ctx context.Context) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current(ctx)
}

func (m *Manager) current(ctx context.Context) (Identity, error) {
	token, err := m.read(ctx, KeyAccessToken)
	if err != nil {
		return Identity{}, err
	}
	userID, err := m.read(ctx, KeyUserID)
	if err != nil {
		return Identity{}, err
	}
	if token == "" || userID == "" {
		return Identity{}, ErrNoSession
	}
	role, err := m.read(ctx, KeyUserRole)
	if err != nil {
		return Identity{}, err
	}
	if role == "" {
		role = string(models.RoleUser)
	}
	return Identity{AccessToken: token, UserID: userID, Role: models.Role(role)}, nil
}

// AccessToken lets the manager act as the HTTP client's token source.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, err := m.read(ctx, KeyAccessToken)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

func (m *Manager) UserID(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, err := m.read(ctx, KeyUserID)
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", ErrNoSession
	}
	return userID, nil
}

func (m *Manager) Role(ctx context.Context) (models.Role, error) {
	id, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	return id.Role, nil
}

// UpdateRole overwrites the stored role and returns the previous one.
func (m *Manager) UpdateRole(ctx context.Context, role models.Role) (models.Role, error) {
	role = models.Role(strings.TrimSpace(string(role)))
	if role == "" {
		return "", ErrInvalidRole
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.current(ctx)
	if err != nil {
		return "", err
	}
	if current.Role == role {
		return current.Role, nil
	}
	if err := m.store.Set(ctx, KeyUserRole, string(role)); err != nil {
		return current.Role, fmt.Errorf("store user role: %w", err)
	}
	m.logger.Info("user role updated",
		zap.String("user_id", current.UserID),
		zap.String("from", string(current.Role)),
		zap.String("to", string(role)),
	)
	return current.Role, nil
}

func (m *Manager) Theme(ctx context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	theme, err := m.store.Get(ctx, KeyTheme)
	if err != nil || theme == "" {
		return ThemeLight
	}
	return theme
}

func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Set(ctx, KeyTheme, theme)
}

// StartRoute decides the first screen from what is persisted.
func (m *Manager) StartRoute(ctx context.Context) Route {
	id, err := m.Current(ctx)
	if err != nil {
		return RouteLogin
	}
	if id.Role == models.RoleAdmin {
		return RouteAdmin
	}
	return RouteHome
}

func (m *Manager) read(ctx context.Context, key string) (string, error) {
	value, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		if key == KeyUserRole {
			return "", nil
		}
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
