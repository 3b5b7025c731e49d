package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"alfredoptarigan/candidate-ranker/internal/logger"
	"alfredoptarigan/candidate-ranker/internal/models"
)

// ScoringEngine scores one batch of candidates against a job description.
type ScoringEngine interface {
	ScoreBatch(ctx context.Context, jobDescription string, batch []models.Candidate) ([]models.RawScore, error)
}

const rawScoreSchema = `{
  "type": "object",
  "required": ["candidateId", "highlights", "overallExperience", "education", "questionAlignment", "completion"],
  "properties": {
    "candidateId": {"type": "string", "minLength": 1},
    "highlights": {"type": "string"},
    "overallExperience": {"type": "integer", "minimum": 0, "maximum": 50},
    "education": {"type": "integer", "minimum": 0, "maximum": 20},
    "questionAlignment": {"type": "integer", "minimum": 0, "maximum": 20},
    "completion": {"type": "integer", "minimum": 0, "maximum": 10}
  }
}`

// scoringResultSchema describes {"candidates": [RawScore...]}.
var scoringResultSchema = map[string]any{
	"type":     "object",
	"required": []string{"candidates"},
	"properties": map[string]any{
		"candidates": map[string]any{
			"type":  "array",
			"items": json.RawMessage(rawScoreSchema),
		},
	},
}

// engineResponseSchema describes {"result": {"candidates": [RawScore...]}}.
var engineResponseSchema = map[string]any{
	"type":     "object",
	"required": []string{"result"},
	"properties": map[string]any{
		"result": scoringResultSchema,
	},
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*jsonschema.Schema{}
)

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[name]; ok {
		return s, nil
	}

	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	schemaCache[name] = schema
	return schema, nil
}

// validateJSON checks data against the named schema. Any mismatch is
// reported as ErrMalformedEngineResponse.
func validateJSON(name string, schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(name, schemaMap)
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEngineResponse, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEngineResponse, err)
	}
	return nil
}

// ParseEngineResponse validates and decodes a scoring engine response body.
func ParseEngineResponse(body []byte) ([]models.RawScore, error) {
	if err := validateJSON("engine_response.json", engineResponseSchema, body); err != nil {
		return nil, err
	}

	var resp models.EngineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEngineResponse, err)
	}
	if resp.Result == nil {
		return nil, ErrMalformedEngineResponse
	}
	return resp.Result.Candidates, nil
}

// requestTimeout shortens timeout to what is left of the ctx deadline.
func requestTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}
	left := time.Until(deadline)
	if left <= 0 {
		left = time.Millisecond
	}
	if timeout <= 0 || left < timeout {
		return left
	}
	return timeout
}

// parseScoringResult validates and decodes the inner {"candidates": [...]}
// object produced by an LLM.
func parseScoringResult(body []byte) ([]models.RawScore, error) {
	if err := validateJSON("scoring_result.json", scoringResultSchema, body); err != nil {
		return nil, err
	}

	var result models.EngineResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEngineResponse, err)
	}
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", ErrMalformedEngineResponse)
	}
	return result.Candidates, nil
}

type httpEngine struct {
	url     string
	timeout time.Duration
}

// NewHTTPEngine returns a ScoringEngine that POSTs each batch to url.
//
// A request in flight cannot be aborted through ctx, so each call is bounded
// by timeout or by the ctx deadline, whichever is sooner. Without a deadline a
// worker shutdown may wait up to timeout for a running batch.
func NewHTTPEngine(url string, timeout time.Duration) ScoringEngine {
	return &httpEngine{url: url, timeout: timeout}
}

// ScoreBatch implements ScoringEngine.
func (e *httpEngine) ScoreBatch(ctx context.Context, jobDescription string, batch []models.Candidate) ([]models.RawScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	agent := fiber.Post(e.url)
	if timeout := requestTimeout(ctx, e.timeout); timeout > 0 {
		agent.Timeout(timeout)
	}
	agent.JSON(models.EngineRequest{
		Job:            HashJobDescription(jobDescription),
		JobDescription: jobDescription,
		Candidates:     batch,
	})
	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("failed to build scoring request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to call scoring engine: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("scoring engine returned status %d: %s", code, logger.TruncateForLog(string(body), 200))
	}

	return ParseEngineResponse(body)
}
