package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
	"github.com/sefazor/storefront/pkg/bcrypt"
	"github.com/sefazor/storefront/pkg/jwt"
	"go.uber.org/zap"
)

type WelcomeMailer interface {
	SendWelcomeEmail(to, fullName string) error
}

type AuthService struct {
	users     *repository.UserRepository
	jwtSecret string
	mailer    WelcomeMailer
	logger    *zap.Logger
}

// NewAuthService builds the user service. mailer may be nil.
func NewAuthService(users *repository.UserRepository, jwtSecret string, mailer WelcomeMailer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		mailer:    mailer,
		logger:    logger,
	}
}

func (s *AuthService) Register(req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.Exists(req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("Username or email already in use")
	}

	hashed, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: hashed,
		Role:     models.RoleUser,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(user.Email, user.FullName); err != nil {
			s.logger.Warn("welcome email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return user, nil
}

func (s *AuthService) Login(req models.LoginRequest) (string, error) {
	user, err := s.users.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", newError(http.StatusUnauthorized, "Invalid username or password")
		}
		return "", err
	}
	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return "", newError(http.StatusUnauthorized, "Invalid username or password")
	}
	return jwt.GenerateToken(s.jwtSecret, user.ID, user.Username)
}

func (s *AuthService) Current(userID string) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookup(err, "User not found")
	}
	return user, nil
}

// Authenticate resolves a bearer token to its user id.
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := jwt.ValidateToken(s.jwtSecret, token)
	if err != nil {
		return "", newError(http.StatusUnauthorized, "Invalid token")
	}
	return claims.UserID, nil
}
