package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/services"
)

type fakeOrchestrator struct {
	outcome       *services.ScoreOutcome
	err           error
	gotJD         string
	gotCandidates []models.Candidate
}

func (f *fakeOrchestrator) Score(_ context.Context, jd string, candidates []models.Candidate) (*services.ScoreOutcome, error) {
	f.gotJD = jd
	f.gotCandidates = candidates
	return f.outcome, f.err
}

func (f *fakeOrchestrator) CreateOrReuseJob(context.Context, string, int, []models.RawScore) (string, error) {
	return "", errors.New("not used")
}

type fakeMaterializer struct {
	outcome *services.JobOutcome
	err     error
}

func (f *fakeMaterializer) Fetch(context.Context, string, []models.Candidate) (*services.JobOutcome, error) {
	return f.outcome, f.err
}

type fakeCandidateRepo struct {
	candidates []models.Candidate
	err        error
}

func (f *fakeCandidateRepo) FindAll(context.Context) ([]models.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeCandidateRepo) Upsert(context.Context, []models.Candidate) error { return nil }

type fakePDFParser struct {
	text string
	err  error
}

func (f *fakePDFParser) ExtractText(io.ReaderAt, int64) (string, error) {
	return f.text, f.err
}

func newTestApp(orch services.Orchestrator, mat services.Materializer, repo *fakeCandidateRepo, parser services.PDFParserService, store jobstore.Store) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	scoreHandler := NewScoreHandler(orch, repo, parser, 1024, zap.NewNop())
	statusHandler := NewStatusHandler(mat)
	healthHandler := NewHealthHandler(store)

	api := app.Group("/api/v1")
	api.Get("/health", healthHandler.HandleHealth)
	api.Post("/score", scoreHandler.HandleScore)
	api.Post("/score/upload", scoreHandler.HandleUpload)
	api.Post("/status", statusHandler.HandleStatus)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

var testCandidates = []models.Candidate{
	{CandidateID: "c1", CandidateName: "Ada"},
	{CandidateID: "c2", CandidateName: "Grace"},
}

func TestHandleScore_Accepted(t *testing.T) {
	orch := &fakeOrchestrator{outcome: &services.ScoreOutcome{
		Mode:       services.ScoreModeAsync,
		JobID:      "abc",
		Candidates: testCandidates,
	}}
	app := newTestApp(orch, &fakeMaterializer{}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

	resp, body := postJSON(t, app, "/api/v1/score", models.ScoreRequest{
		JobDescription: "Backend engineer",
		Candidates:     testCandidates,
	})

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "abc", body["jobId"])
	assert.Equal(t, "processing", body["status"])
	assert.Len(t, body["candidates"], 2)
	assert.Equal(t, "Backend engineer", orch.gotJD)
}

func TestHandleScore_ReturnsDataForSyncAndCached(t *testing.T) {
	for _, mode := range []services.ScoreMode{services.ScoreModeSync, services.ScoreModeCached} {
		t.Run(string(mode), func(t *testing.T) {
			orch := &fakeOrchestrator{outcome: &services.ScoreOutcome{
				Mode: mode,
				Results: []models.ScoreResult{{
					Score:     models.Score{CandidateID: "c1", GeneralScoring: 80},
					Candidate: testCandidates[0],
				}},
			}}
			app := newTestApp(orch, &fakeMaterializer{}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

			resp, body := postJSON(t, app, "/api/v1/score", models.ScoreRequest{
				JobDescription: "Backend engineer",
				Candidates:     testCandidates,
			})

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			data, ok := body["data"].([]any)
			require.True(t, ok)
			require.Len(t, data, 1)
			first := data[0].(map[string]any)
			assert.Equal(t, float64(80), first["generalScoring"])
			assert.Equal(t, "Ada", first["candidate"].(map[string]any)["candidateName"])
		})
	}
}

func TestHandleScore_LoadsStoredCandidatesWhenBodyHasNone(t *testing.T) {
	orch := &fakeOrchestrator{outcome: &services.ScoreOutcome{Mode: services.ScoreModeCached}}
	repo := &fakeCandidateRepo{candidates: testCandidates}
	app := newTestApp(orch, &fakeMaterializer{}, repo, &fakePDFParser{}, nil)

	resp, _ := postJSON(t, app, "/api/v1/score", models.ScoreRequest{JobDescription: "Backend engineer"})

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, testCandidates, orch.gotCandidates)
}

func TestHandleScore_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		jobID  string
	}{
		{"invalid job description", services.ErrInvalidJobDescription, fiber.StatusBadRequest, ""},
		{"missing candidates", services.ErrMissingCandidates, fiber.StatusBadRequest, ""},
		{"conflict", &services.JobInProgressError{JobID: "abc"}, fiber.StatusConflict, "abc"},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &fakeOrchestrator{err: tt.err}
			app := newTestApp(orch, &fakeMaterializer{}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

			resp, body := postJSON(t, app, "/api/v1/score", models.ScoreRequest{
				JobDescription: "Backend engineer",
				Candidates:     testCandidates,
			})

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body["message"])
			if tt.jobID != "" {
				assert.Equal(t, tt.jobID, body["jobId"])
			}
		})
	}
}

func TestHandleStatus_StateMapping(t *testing.T) {
	tests := []struct {
		name    string
		outcome *services.JobOutcome
		status  int
		message string
	}{
		{"done", &services.JobOutcome{State: services.JobStateDone, Data: []models.ScoreResult{}}, fiber.StatusOK, ""},
		{"processing", &services.JobOutcome{State: services.JobStateProcessing}, fiber.StatusAccepted, "Job is still processing"},
		{"not found", &services.JobOutcome{State: services.JobStateNotFound, Reason: "Job not found"}, fiber.StatusNotFound, "Job not found"},
		{"failed", &services.JobOutcome{State: services.JobStateFailed, Reason: "Job failed"}, fiber.StatusInternalServerError, "Job failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeOrchestrator{}, &fakeMaterializer{outcome: tt.outcome}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

			resp, body := postJSON(t, app, "/api/v1/status", models.StatusRequest{JobID: "abc", Candidates: testCandidates})

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
			} else {
				assert.Contains(t, body, "data")
			}
		})
	}
}

func TestHandleStatus_ReportsProgress(t *testing.T) {
	outcome := &services.JobOutcome{State: services.JobStateProcessing, FinishedBatches: 1, TotalBatches: 3}
	app := newTestApp(&fakeOrchestrator{}, &fakeMaterializer{outcome: outcome}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

	resp, body := postJSON(t, app, "/api/v1/status", models.StatusRequest{JobID: "abc", Candidates: testCandidates})

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, float64(1), body["finishedBatches"])
	assert.Equal(t, float64(3), body["totalBatches"])
}

func TestHandleStatus_InputErrors(t *testing.T) {
	app := newTestApp(&fakeOrchestrator{}, &fakeMaterializer{err: services.ErrMissingJobID}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

	resp, body := postJSON(t, app, "/api/v1/status", models.StatusRequest{Candidates: testCandidates})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, services.ErrMissingJobID.Error(), body["message"])
}

func TestHandleUpload(t *testing.T) {
	orch := &fakeOrchestrator{outcome: &services.ScoreOutcome{Mode: services.ScoreModeAsync, JobID: "abc"}}
	parser := &fakePDFParser{text: "  Backend\n\n engineer  "}
	app := newTestApp(orch, &fakeMaterializer{}, &fakeCandidateRepo{candidates: testCandidates}, parser, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("job_description", "jd.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "Backend engineer", orch.gotJD)
	assert.Equal(t, testCandidates, orch.gotCandidates)
}

func TestHandleUpload_RejectsNonPDF(t *testing.T) {
	app := newTestApp(&fakeOrchestrator{}, &fakeMaterializer{}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("job_description", "jd.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Backend engineer"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleHealth_ReportsMode(t *testing.T) {
	get := func(app *fiber.App) map[string]any {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	syncApp := newTestApp(&fakeOrchestrator{}, &fakeMaterializer{}, &fakeCandidateRepo{}, &fakePDFParser{}, nil)
	assert.Equal(t, "sync", get(syncApp)["mode"])

	asyncApp := newTestApp(&fakeOrchestrator{}, &fakeMaterializer{}, &fakeCandidateRepo{}, &fakePDFParser{}, jobstore.NewMemoryStore(time.Minute))
	assert.Equal(t, "async", get(asyncApp)["mode"])
}
