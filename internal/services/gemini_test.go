package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedGenerator struct {
	replies []string
	prompts []string
	err     error
}

func (g *scriptedGenerator) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	i := len(g.prompts) - 1
	if i >= len(g.replies) {
		i = len(g.replies) - 1
	}
	return g.replies[i], nil
}

const validGeminiReply = "```json\n" + `{"candidates":[{"candidateId":"c00","highlights":"good","overallExperience":30,"education":10,"questionAlignment":10,"completion":5}]}` + "\n```"

func TestGeminiEngine_ParsesFencedJSON(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{validGeminiReply}}
	engine := NewGeminiEngine(gen, 3, zap.NewNop())

	scores, err := engine.ScoreBatch(context.Background(), testJD, makeCandidates(1))

	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 55, scores[0].Total())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], testJD)
	assert.Contains(t, gen.prompts[0], `"candidateId":"c00"`)
}

func TestGeminiEngine_RepromptsOnBadReply(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"I think they are all great!", validGeminiReply}}
	engine := NewGeminiEngine(gen, 3, zap.NewNop())

	scores, err := engine.ScoreBatch(context.Background(), testJD, makeCandidates(1))

	require.NoError(t, err)
	assert.Len(t, scores, 1)
	require.Len(t, gen.prompts, 2)
	assert.False(t, strings.HasPrefix(gen.prompts[0], scoringRetryPreface))
	assert.True(t, strings.HasPrefix(gen.prompts[1], scoringRetryPreface))
}

func TestGeminiEngine_GivesUpAfterMaxAttempts(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{`{"candidates":[]}`}}
	engine := NewGeminiEngine(gen, 3, zap.NewNop())

	_, err := engine.ScoreBatch(context.Background(), testJD, makeCandidates(1))

	assert.ErrorIs(t, err, ErrMalformedEngineResponse)
	assert.Len(t, gen.prompts, 3)
}

func TestGeminiEngine_GeneratorErrorIsNotRetried(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("quota exceeded")}
	engine := NewGeminiEngine(gen, 3, zap.NewNop())

	_, err := engine.ScoreBatch(context.Background(), testJD, makeCandidates(1))

	assert.Error(t, err)
	assert.Len(t, gen.prompts, 1)
}

func TestGeminiEngine_BatchBounds(t *testing.T) {
	engine := NewGeminiEngine(&scriptedGenerator{replies: []string{validGeminiReply}}, 1, zap.NewNop())

	_, err := engine.ScoreBatch(context.Background(), testJD, nil)
	assert.Error(t, err)

	_, err = engine.ScoreBatch(context.Background(), testJD, makeCandidates(BatchSize+1))
	assert.Error(t, err)
}
