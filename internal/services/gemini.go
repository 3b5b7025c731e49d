package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/candidate-ranker/internal/models"
)

const defaultGeminiModel = "gemini-2.5-flash"

// TextGenerator produces a text completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

type geminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (TextGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}

	return &geminiClient{client: client, modelName: model}, nil
}

// GenerateText implements TextGenerator.
func (g *geminiClient) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}

type geminiEngine struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	maxAttempts   int
	log           *zap.Logger
}

// NewGeminiEngine returns a ScoringEngine that prompts the LLM directly. A
// reply that does not parse into valid scores is re-prompted up to
// maxAttempts times.
func NewGeminiEngine(generator TextGenerator, maxAttempts int, log *zap.Logger) ScoringEngine {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &geminiEngine{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		maxAttempts:   maxAttempts,
		log:           log.Named("gemini"),
	}
}

// ScoreBatch implements ScoringEngine.
func (g *geminiEngine) ScoreBatch(ctx context.Context, jobDescription string, batch []models.Candidate) ([]models.RawScore, error) {
	if len(batch) == 0 || len(batch) > BatchSize {
		return nil, fmt.Errorf("batch must hold between 1 and %d candidates, got %d", BatchSize, len(batch))
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidates: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		prompt := g.promptBuilder.BuildScoringPrompt(jobDescription, string(payload), attempt > 1)

		response, err := g.generator.GenerateText(ctx, prompt, 0.3)
		if err != nil {
			return nil, fmt.Errorf("failed to generate scores: %w", err)
		}

		scores, err := parseScoringResult([]byte(extractJSON(response)))
		if err == nil {
			return scores, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		g.log.Warn("⚠️ Scoring response could not be parsed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.maxAttempts),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("data received could not be parsed after %d attempts: %w", g.maxAttempts, lastErr)
}
