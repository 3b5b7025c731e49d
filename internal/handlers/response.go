package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/services"
)

func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.MessageResponse{Message: message})
}

// respondError maps service errors to HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var inProgress *services.JobInProgressError
	switch {
	case errors.As(err, &inProgress):
		return c.Status(fiber.StatusConflict).JSON(models.MessageResponse{
			Message: "Job is already in progress",
			JobID:   inProgress.JobID,
		})
	case errors.Is(err, services.ErrInvalidJobDescription),
		errors.Is(err, services.ErrMissingJobID),
		errors.Is(err, services.ErrMissingCandidates):
		return respondMessage(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrJobStoreUnavailable):
		return respondMessage(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return respondMessage(c, fiber.StatusInternalServerError, err.Error())
	}
}

// ErrorHandler renders errors that escape handlers as {message, code}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
		"code":    code,
	})
}
