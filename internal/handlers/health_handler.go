package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
)

type HealthHandler struct {
	store jobstore.Store
}

// NewHealthHandler reports the scoring mode; a nil store always means sync.
func NewHealthHandler(store jobstore.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	mode := "sync"
	if h.store != nil && h.store.Ping(c.UserContext()) == nil {
		mode = "async"
	}

	return c.JSON(fiber.Map{
		"status": "healthy",
		"mode":   mode,
		"time":   time.Now(),
	})
}
