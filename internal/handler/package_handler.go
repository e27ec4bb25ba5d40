package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/internal/models"
)

type PackageHandler struct {
	base
	packages *backend.PackageService
}

func NewPackageHandler(packages *backend.PackageService, b base) *PackageHandler {
	return &PackageHandler{base: b, packages: packages}
}

func (h *PackageHandler) Search(c *fiber.Ctx) error {
	var req models.SearchRequest[models.PackageSearchCondition]
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	page, err := h.packages.Search(req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, page, "")
}

func (h *PackageHandler) Get(c *fiber.Ctx) error {
	pkg, err := h.packages.Get(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, pkg, "")
}

func (h *PackageHandler) Access(c *fiber.Ctx) error {
	var req models.AccessRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	if same, err := sameUser(c, req.UserID); !same {
		return err
	}

	result, err := h.packages.Access(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, result, "")
}
