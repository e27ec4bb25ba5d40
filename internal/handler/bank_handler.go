package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/models"
	"go.uber.org/zap"
)

// BankHandler speaks the feed's own envelope, {error, message, data}, not the API one.
type BankHandler struct {
	bank   *backend.BankService
	logger *zap.Logger
}

func NewBankHandler(bank *backend.BankService, logger *zap.Logger) *BankHandler {
	return &BankHandler{bank: bank, logger: logger}
}

func (h *BankHandler) Transactions(c *fiber.Ctx) error {
	feed, err := h.bank.Transactions()
	if err != nil {
		h.logger.Error("read bank feed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": 1, "message": "Internal server error"})
	}
	return c.JSON(fiber.Map{
		"error":   0,
		"message": "success",
		"data": fiber.Map{
			"totalRecords": feed.TotalRecords,
			"records":      feed.Records,
		},
	})
}

func (h *BankHandler) Record(c *fiber.Ctx) error {
	var tx models.BankTransaction
	if err := c.BodyParser(&tx); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": 1, "message": "Invalid request body"})
	}
	saved, err := h.bank.Record(tx)
	if err != nil {
		status := backend.StatusOf(err)
		return c.Status(status).JSON(fiber.Map{"error": 1, "message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"error": 0, "message": "success", "data": saved})
}
