package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/internal/models"
)

type PurchaseHandler struct {
	base
	purchases *backend.PurchaseService
}

func NewPurchaseHandler(purchases *backend.PurchaseService, b base) *PurchaseHandler {
	return &PurchaseHandler{base: b, purchases: purchases}
}

// Check answers data: null when the user holds no open purchase of the package.
func (h *PurchaseHandler) Check(c *fiber.Ctx) error {
	var req models.PurchaseRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	if same, err := sameUser(c, req.UserID); !same {
		return err
	}

	purchase, err := h.purchases.Check(middleware.UserID(c), req.PackageID)
	if err != nil {
		return h.fail(c, err)
	}
	if purchase == nil {
		return respond(c, fiber.StatusOK, nil, "No purchase found")
	}
	return respond(c, fiber.StatusOK, purchase, "")
}

func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var req models.PurchaseRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	if same, err := sameUser(c, req.UserID); !same {
		return err
	}

	purchase, err := h.purchases.Create(middleware.UserID(c), req.PackageID)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, purchase, "Purchase created")
}

func (h *PurchaseHandler) UpgradePremium(c *fiber.Ctx) error {
	var req models.UpgradePremiumRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	purchase, err := h.purchases.UpgradePremium(middleware.UserID(c), req.PackageID)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, purchase, "Purchase created")
}

func (h *PurchaseHandler) Complete(c *fiber.Ctx) error {
	var req models.CompletePurchaseRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	result, err := h.purchases.Complete(middleware.UserID(c), req.PurchaseID)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, result, "Purchase completed")
}

func (h *PurchaseHandler) Search(c *fiber.Ctx) error {
	var req models.SearchRequest[models.PurchaseSearchCondition]
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	page, err := h.purchases.Search(middleware.UserID(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, page, "")
}
