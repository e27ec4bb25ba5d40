package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/payment"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	base
	payments      *backend.PaymentService
	webhookSecret string
}

func NewPaymentHandler(payments *backend.PaymentService, webhookSecret string, b base) *PaymentHandler {
	return &PaymentHandler{base: b, payments: payments, webhookSecret: webhookSecret}
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req models.CreatePaymentRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	if same, err := sameUser(c, req.UserID); !same {
		return err
	}

	p, err := h.payments.Create(middleware.UserID(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, p, "Payment created")
}

func (h *PaymentHandler) Check(c *fiber.Ctx) error {
	var req models.CheckPaymentRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}
	if same, err := sameUser(c, req.UserID); !same {
		return err
	}

	p, err := h.payments.Check(middleware.UserID(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, p, "")
}

func (h *PaymentHandler) QRCode(c *fiber.Ctx) error {
	png, err := h.payments.QRImage(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func (h *PaymentHandler) Settle(c *fiber.Ctx) error {
	var req models.SettlePaymentRequest
	if parsed, err := h.parse(c, &req); !parsed {
		return err
	}

	p, err := h.payments.Settle(middleware.UserID(c), c.Params("id"), req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, p, "Payment settled")
}

func (h *PaymentHandler) StripeWebhook(c *fiber.Ctx) error {
	if h.webhookSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse(fiber.StatusServiceUnavailable, "Webhook is not configured"))
	}

	event, err := payment.ParseWebhook(c.Body(), c.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("stripe webhook rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	if err := h.payments.HandleCheckoutEvent(event); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
