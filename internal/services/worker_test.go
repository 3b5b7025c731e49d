package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type processorFunc func(ctx context.Context, task BatchTask) error

func (f processorFunc) ProcessBatch(ctx context.Context, task BatchTask) error {
	return f(ctx, task)
}

func TestWorker_StopDrainsQueue(t *testing.T) {
	var processed atomic.Int32
	w := NewWorker(processorFunc(func(context.Context, BatchTask) error {
		time.Sleep(5 * time.Millisecond)
		processed.Add(1)
		return nil
	}), 1, 10, nil, zap.NewNop())
	w.Start(context.Background())

	var handles []*TaskHandle
	for i := 0; i < 5; i++ {
		h, err := w.Submit(context.Background(), BatchTask{JobID: "job", Index: i})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	w.Stop()

	assert.Equal(t, int32(5), processed.Load())
	for _, h := range handles {
		select {
		case <-h.Done():
		default:
			t.Fatal("handle not settled after Stop")
		}
	}
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	w := NewWorker(processorFunc(func(context.Context, BatchTask) error { return nil }), 1, 1, nil, zap.NewNop())
	w.Start(context.Background())
	w.Stop()
	w.Stop()

	_, err := w.Submit(context.Background(), BatchTask{JobID: "job"})

	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestWorker_HandleReportsError(t *testing.T) {
	boom := errors.New("boom")
	w := NewWorker(processorFunc(func(_ context.Context, task BatchTask) error {
		if task.Index == 1 {
			return boom
		}
		return nil
	}), 2, 4, nil, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	ok, err := w.Submit(context.Background(), BatchTask{JobID: "job", Index: 0})
	require.NoError(t, err)
	bad, err := w.Submit(context.Background(), BatchTask{JobID: "job", Index: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, ok.Wait(ctx))
	assert.ErrorIs(t, bad.Wait(ctx), boom)
	assert.ErrorIs(t, WaitAll(ctx, []*TaskHandle{ok, bad}), boom)
}

func TestWorker_SubmitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	w := NewWorker(processorFunc(func(context.Context, BatchTask) error {
		<-block
		return nil
	}), 1, 0, nil, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	_, err := w.Submit(context.Background(), BatchTask{JobID: "job", Index: 0})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = w.Submit(ctx, BatchTask{JobID: "job", Index: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
}
