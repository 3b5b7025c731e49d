package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/services"
)

type StatusHandler struct {
	materializer services.Materializer
}

func NewStatusHandler(materializer services.Materializer) *StatusHandler {
	return &StatusHandler{
		materializer: materializer,
	}
}

// HandleStatus handles POST /status
func (h *StatusHandler) HandleStatus(c *fiber.Ctx) error {
	var req models.StatusRequest

	if err := c.BodyParser(&req); err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	outcome, err := h.materializer.Fetch(c.UserContext(), req.JobID, req.Candidates)
	if err != nil {
		return respondError(c, err)
	}

	switch outcome.State {
	case services.JobStateDone:
		return c.JSON(models.StatusResponse{Data: outcome.Data})
	case services.JobStateProcessing:
		return c.Status(fiber.StatusAccepted).JSON(models.JobProgressResponse{
			Message:         "Job is still processing",
			FinishedBatches: outcome.FinishedBatches,
			TotalBatches:    outcome.TotalBatches,
		})
	case services.JobStateNotFound:
		return respondMessage(c, fiber.StatusNotFound, outcome.Reason)
	default:
		return respondMessage(c, fiber.StatusInternalServerError, outcome.Reason)
	}
}
