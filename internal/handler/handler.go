package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/internal/models"
	"go.uber.org/zap"
)

// StructValidator checks decoded request bodies.
type StructValidator interface {
	Struct(s interface{}) error
}

type base struct {
	validate StructValidator
	logger   *zap.Logger
}

// parse decodes and validates the request body into req. When it reports
// false the error response is already written and err is what to return.
func (b base) parse(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := b.validate.Struct(req); err != nil {
		msg := validationMessage(err)
		return false, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(fiber.StatusBadRequest, msg))
	}
	return true, nil
}

// fail answers with the status carried by err. Unexpected errors are logged and hidden.
func (b base) fail(c *fiber.Ctx, err error) error {
	status := backend.StatusOf(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		b.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		message = "Internal server error"
	}
	return c.Status(status).JSON(models.ErrorResponse(status, message))
}

func respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(models.SuccessResponse(status, data, message))
}

// sameUser rejects bodies that name a user other than the caller, same contract as parse.
func sameUser(c *fiber.Ctx, bodyUserID string) (bool, error) {
	if bodyUserID != "" && bodyUserID != middleware.UserID(c) {
		return false, c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse(fiber.StatusForbidden, "User id does not match the session"))
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Sprintf("Invalid or missing fields: %s", strings.Join(fields, ", "))
}
