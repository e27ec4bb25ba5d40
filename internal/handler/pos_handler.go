package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/internal/models"
)

type PosHandler struct {
	base
	pos *backend.PosService
}

func NewPosHandler(pos *backend.PosService, b base) *PosHandler {
	return &PosHandler{base: b, pos: pos}
}

func (h *PosHandler) SearchFoods(c *fiber.Ctx) error {
	var req models.SearchRequest[models.FoodSearchCondition]
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	page, err := h.pos.SearchFoods(req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, page, "")
}

func (h *PosHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.pos.GetCart(middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	if cart == nil {
		return respond(c, fiber.StatusOK, nil, "Cart is empty")
	}
	return respond(c, fiber.StatusOK, cart, "")
}

func (h *PosHandler) GetCartByID(c *fiber.Ctx) error {
	cart, err := h.pos.GetCartByID(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "")
}

func (h *PosHandler) AddToCart(c *fiber.Ctx) error {
	return h.cartChange(c, h.pos.AddToCart)
}

func (h *PosHandler) UpdateCart(c *fiber.Ctx) error {
	return h.cartChange(c, h.pos.UpdateCart)
}

func (h *PosHandler) RemoveFromCart(c *fiber.Ctx) error {
	return h.cartChange(c, func(userID string, req models.CartItemRequest) (*models.Cart, error) {
		return h.pos.RemoveFromCart(userID, req.FoodID)
	})
}

func (h *PosHandler) cartChange(c *fiber.Ctx, change func(string, models.CartItemRequest) (*models.Cart, error)) error {
	var req models.CartItemRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	cart, err := change(middleware.UserID(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "Cart updated")
}

func (h *PosHandler) ClearCart(c *fiber.Ctx) error {
	if err := h.pos.ClearCart(middleware.UserID(c)); err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Cart cleared")
}

func (h *PosHandler) CreateOrder(c *fiber.Ctx) error {
	var req models.CreateOrderRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	order, err := h.pos.CreateOrder(middleware.UserID(c), req.CartID)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, order, "Order created")
}

func (h *PosHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.pos.GetOrder(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, order, "")
}

func (h *PosHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.pos.ListOrders(middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, orders, "")
}

func (h *PosHandler) ProcessPayment(c *fiber.Ctx) error {
	var req models.ProcessPaymentRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	p, err := h.pos.ProcessPayment(middleware.UserID(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, p, "Payment created")
}

func (h *PosHandler) UpdatePayment(c *fiber.Ctx) error {
	var req models.UpdatePosPaymentRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	p, err := h.pos.UpdatePayment(middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, p, "Payment updated")
}

func (h *PosHandler) ListPayments(c *fiber.Ctx) error {
	payments, err := h.pos.ListPayments(middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, payments, "")
}
