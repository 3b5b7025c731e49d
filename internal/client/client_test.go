package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/candidate-ranker/internal/models"
)

func statusServer(t *testing.T, code int, body any) (*httptest.Server, *models.StatusRequest) {
	t.Helper()

	var got models.StatusRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/status", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestClientStatus_Done(t *testing.T) {
	srv, got := statusServer(t, http.StatusOK, models.StatusResponse{Data: []models.ScoreResult{{
		Score:     models.Score{CandidateID: "c1", GeneralScoring: 88},
		Candidate: models.Candidate{CandidateID: "c1", CandidateName: "Ada"},
	}}})

	candidates := []models.Candidate{{CandidateID: "c1", CandidateName: "Ada"}}
	reply, err := New(srv.URL+"/", 5*time.Second).Status(context.Background(), "job-1", candidates)

	require.NoError(t, err)
	assert.False(t, reply.Processing())
	require.Len(t, reply.Data, 1)
	assert.Equal(t, 88, reply.Data[0].GeneralScoring)
	assert.Equal(t, "Ada", reply.Data[0].Candidate.CandidateName)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, candidates, got.Candidates)
}

func TestClientStatus_Processing(t *testing.T) {
	srv, _ := statusServer(t, http.StatusAccepted, models.MessageResponse{Message: "Job is still processing"})

	reply, err := New(srv.URL, 5*time.Second).Status(context.Background(), "job-1", nil)

	require.NoError(t, err)
	assert.True(t, reply.Processing())
	assert.Empty(t, reply.Data)
}

func TestClientStatus_ErrorCarriesMessage(t *testing.T) {
	srv, _ := statusServer(t, http.StatusNotFound, models.MessageResponse{Message: "Job not found"})

	_, err := New(srv.URL, 5*time.Second).Status(context.Background(), "job-1", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "Job not found", statusErr.Message)
}

func TestClientStatus_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Status(context.Background(), "job-1", nil)

	assert.ErrorIs(t, err, ErrTransport)
}

func TestClientPoller_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n < 3 {
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(models.MessageResponse{Message: "Job is still processing"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.StatusResponse{Data: []models.ScoreResult{}})
	}))
	defer srv.Close()

	poller := NewPoller(New(srv.URL, time.Second), WithInterval(time.Millisecond))
	data, err := poller.Poll(context.Background(), "job-1", nil)

	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Equal(t, int32(3), calls.Load())
}
