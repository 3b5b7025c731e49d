// Package client talks to the status endpoint of a candidate-ranker server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-ranker/internal/models"
)

// ErrTransport reports that the server could not be reached or the body
// could not be read. It never carries a server message.
var ErrTransport = errors.New("status request failed")

// StatusError is a non-success answer from the server other than 202.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status check failed with code %d", e.Code)
	}
	return fmt.Sprintf("status check failed with code %d: %s", e.Code, e.Message)
}

// StatusReply is a decoded status response.
type StatusReply struct {
	Code int
	Data []models.ScoreResult
}

// Processing reports whether the job is still running.
func (r *StatusReply) Processing() bool {
	return r.Code == fiber.StatusAccepted
}

type Client struct {
	baseURL string
	timeout time.Duration
}

// New returns a client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Score submits a scoring request. The reply is either a 202 job
// acceptance or a 200 with ranked data.
func (c *Client) Score(ctx context.Context, jobDescription string, candidates []models.Candidate) (int, []byte, error) {
	return c.post(ctx, "/api/v1/score", models.ScoreRequest{
		JobDescription: jobDescription,
		Candidates:     candidates,
	})
}

// Status asks the server for the state of jobID.
func (c *Client) Status(ctx context.Context, jobID string, candidates []models.Candidate) (*StatusReply, error) {
	code, body, err := c.post(ctx, "/api/v1/status", models.StatusRequest{
		JobID:      jobID,
		Candidates: candidates,
	})
	if err != nil {
		return nil, err
	}

	switch code {
	case fiber.StatusOK:
		var resp models.StatusResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		return &StatusReply{Code: code, Data: resp.Data}, nil
	case fiber.StatusAccepted:
		return &StatusReply{Code: code}, nil
	default:
		var msg models.MessageResponse
		_ = json.Unmarshal(body, &msg)
		return nil, &StatusError{Code: code, Message: msg.Message}
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	agent := fiber.Post(c.baseURL + path)
	if c.timeout > 0 {
		agent.Timeout(c.timeout)
	}
	agent.JSON(payload)

	if err := agent.Parse(); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, errors.Join(errs...))
	}
	return code, body, nil
}
