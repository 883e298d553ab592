package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"library-lending/library"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func jsonMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(MessageResponse{Message: message})
}

// storeError maps err onto a response. Domain errors get their fixed status
// and message; anything else is logged and answered with 500 and fallback,
// without leaking the cause.
func storeError(c *fiber.Ctx, log *logrus.Logger, err error, fallback string) error {
	var verr *library.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: verr.Message, Fields: verr.Fields})
	case errors.Is(err, library.ErrNothingToUpdate):
		return jsonError(c, fiber.StatusBadRequest, "Provide at least one field to update.")
	case errors.Is(err, library.ErrBookNotFound):
		return jsonError(c, fiber.StatusNotFound, "Book not found")
	case errors.Is(err, library.ErrProductNotFound):
		return jsonError(c, fiber.StatusNotFound, "Product not found")
	case errors.Is(err, library.ErrNotAvailable):
		return jsonError(c, fiber.StatusBadRequest, "Book not available")
	case errors.Is(err, library.ErrAllReturned):
		return jsonError(c, fiber.StatusBadRequest, "All copies are already returned")
	}

	log.WithFields(logrus.Fields{
		"id":     requestID(c),
		"method": c.Method(),
		"path":   c.Path(),
	}).WithError(err).Error(fallback)
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}
