package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/session"
	"github.com/sefazor/storefront/pkg/apiclient"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

// SessionWriter is the part of the session manager the auth flow drives.
type SessionWriter interface {
	Login(ctx context.Context, id session.Identity) error
	Logout(ctx context.Context) error
	StartRoute(ctx context.Context) session.Route
}

type AuthService struct {
	api       API
	sessions  SessionWriter
	validator StructValidator
	logger    *zap.Logger
}

func NewAuthService(api API, sessions SessionWriter, validate StructValidator, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = utils.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		api:       api,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
	}
}

// Login exchanges credentials for a token, fetches the user behind it and
// persists both. The returned route is the screen to open next.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (session.Route, error) {
	if err := s.validator.Struct(req); err != nil {
		return session.RouteLogin, err
	}

	var tokens models.LoginResponse
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("users", "login"), req, &tokens); err != nil {
		return session.RouteLogin, err
	}
	if tokens.AccessToken == "" {
		return session.RouteLogin, errors.New("login response carried no access token")
	}

	user, err := s.Me(apiclient.WithToken(ctx, tokens.AccessToken))
	if err != nil {
		return session.RouteLogin, err
	}

	if err := s.sessions.Login(ctx, session.Identity{
		AccessToken: tokens.AccessToken,
		UserID:      user.ID,
		Role:        user.Role,
	}); err != nil {
		return session.RouteLogin, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.sessions.StartRoute(ctx), nil
}

func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := s.api.Do(ctx, http.MethodGet, endpoint("users", "current"), nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("current user response carried no id")
	}
	return &user, nil
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	var user models.User
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("users"), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.Logout(ctx)
}
