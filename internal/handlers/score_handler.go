package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
	"alfredoptarigan/candidate-ranker/internal/services"
)

type ScoreHandler struct {
	orchestrator  services.Orchestrator
	candidateRepo repositories.CandidateRepository
	pdfParser     services.PDFParserService
	maxFileSize   int64
	log           *zap.Logger
}

func NewScoreHandler(
	orchestrator services.Orchestrator,
	candidateRepo repositories.CandidateRepository,
	pdfParser services.PDFParserService,
	maxFileSize int64,
	log *zap.Logger,
) *ScoreHandler {
	return &ScoreHandler{
		orchestrator:  orchestrator,
		candidateRepo: candidateRepo,
		pdfParser:     pdfParser,
		maxFileSize:   maxFileSize,
		log:           log.Named("score_handler"),
	}
}

// HandleScore handles POST /score
func (h *ScoreHandler) HandleScore(c *fiber.Ctx) error {
	var req models.ScoreRequest

	if err := c.BodyParser(&req); err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	return h.score(c, req.JobDescription, req.Candidates)
}

func (h *ScoreHandler) score(c *fiber.Ctx, jobDescription string, candidates []models.Candidate) error {
	ctx := c.UserContext()

	if len(candidates) == 0 {
		stored, err := h.candidateRepo.FindAll(ctx)
		if err != nil {
			h.log.Error("❌ Failed to load candidates", zap.Error(err))
			return respondMessage(c, fiber.StatusInternalServerError, "Failed to load candidates")
		}
		candidates = stored
	}

	outcome, err := h.orchestrator.Score(ctx, jobDescription, candidates)
	if err != nil {
		return respondError(c, err)
	}

	if outcome.Mode == services.ScoreModeAsync {
		return c.Status(fiber.StatusAccepted).JSON(models.JobAcceptedResponse{
			JobID:      outcome.JobID,
			Status:     models.JobStatusProcessing,
			Candidates: outcome.Candidates,
		})
	}

	return c.JSON(models.ScoreResponse{Data: outcome.Results})
}
