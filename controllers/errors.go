package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"leadengine/services"
	"leadengine/store"
	"leadengine/utils"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	var derr *services.DeliveryError
	switch {
	case errors.As(err, &verr):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, verr.Error(), nil)
	case errors.As(err, &derr):
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send email", nil)
	case errors.Is(err, store.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Prospect not found", nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
