package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/internal/models"
)

type UserHandler struct {
	base
	auth *backend.AuthService
}

func NewUserHandler(auth *backend.AuthService, b base) *UserHandler {
	return &UserHandler{base: b, auth: auth}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	user, err := h.auth.Register(req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, user, "User registered successfully")
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	token, err := h.auth.Login(req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, models.LoginResponse{AccessToken: token}, "Login successful")
}

func (h *UserHandler) Current(c *fiber.Ctx) error {
	user, err := h.auth.Current(middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, user, "")
}
