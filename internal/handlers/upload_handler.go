package handlers

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/services"
)

// HandleUpload handles POST /score/upload. The job description is read
// from the "job_description" PDF; candidates may be passed as a JSON array
// in the "candidates" form field.
func (h *ScoreHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("job_description")
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "job_description file is required")
	}

	if fileHeader.Size > h.maxFileSize {
		return respondMessage(c, fiber.StatusBadRequest,
			fmt.Sprintf("Job description file too large. Max size: %d bytes", h.maxFileSize))
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		return respondMessage(c, fiber.StatusBadRequest, "Job description must be a PDF file")
	}

	var candidates []models.Candidate
	if raw := c.FormValue("candidates"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
			return respondMessage(c, fiber.StatusBadRequest, "Invalid candidates payload")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	text, err := h.pdfParser.ExtractText(file, fileHeader.Size)
	if err != nil {
		h.log.Warn("⚠️  Unable to read job description PDF", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return respondMessage(c, fiber.StatusBadRequest, "failed to extract text from PDF")
	}

	return h.score(c, services.CleanText(text), candidates)
}
