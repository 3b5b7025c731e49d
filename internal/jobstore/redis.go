package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"alfredoptarigan/candidate-ranker/internal/models"
)

// Reusing a done job keeps its results list: entries are only ever appended,
// so the seed is written only for a brand new job.
var createJobScript = redis.NewScript(`
local status = redis.call('GET', KEYS[1])
if status and status ~= 'done' then
  return status
end
local ttl = tonumber(ARGV[1])
redis.call('SET', KEYS[1], 'processing', 'PX', ttl)
redis.call('SET', KEYS[3], ARGV[2], 'PX', ttl)
redis.call('SET', KEYS[4], '0', 'PX', ttl)
if status then
  redis.call('PEXPIRE', KEYS[2], ttl)
  return ''
end
redis.call('DEL', KEYS[2])
for i = 3, #ARGV do
  redis.call('RPUSH', KEYS[2], ARGV[i])
end
if #ARGV > 2 then
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return ''
`)

// The results list inherits whatever is left of the status key's TTL.
var appendResultsScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then
  return 0
end
for i = 1, #ARGV do
  redis.call('RPUSH', KEYS[2], ARGV[i])
end
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

var completeBatchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1, 0}
end
local finished = redis.call('INCR', KEYS[2])
local total = tonumber(redis.call('GET', KEYS[3]) or '0')
if finished >= total and redis.call('GET', KEYS[1]) == 'processing' then
  redis.call('SET', KEYS[1], 'done', 'KEEPTTL')
  return {finished, 1}
end
return {finished, 0}
`)

var failJobScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == 'processing' then
  redis.call('SET', KEYS[1], 'failed', 'KEEPTTL')
  return 1
end
return 0
`)

// RedisStore is the Store backed by Redis.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) CreateJob(ctx context.Context, jobID string, totalBatches int, seed []models.RawScore) error {
	encoded, err := encodeResults(seed)
	if err != nil {
		return err
	}

	args := make([]interface{}, 0, len(encoded)+2)
	args = append(args, s.ttl.Milliseconds(), strconv.Itoa(totalBatches))
	for _, e := range encoded {
		args = append(args, e)
	}

	keys := []string{statusKey(jobID), resultsKey(jobID), totalKey(jobID), finishedKey(jobID)}
	current, err := createJobScript.Run(ctx, s.client, keys, args...).Text()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if current != "" {
		return fmt.Errorf("%w: %s is %s", ErrJobExists, jobID, current)
	}
	return nil
}

func (s *RedisStore) Status(ctx context.Context, jobID string) (models.JobStatus, bool, error) {
	status, err := s.client.Get(ctx, statusKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read job status: %w", err)
	}
	return models.JobStatus(status), true, nil
}

func (s *RedisStore) Results(ctx context.Context, jobID string) ([]models.RawScore, error) {
	values, err := s.client.LRange(ctx, resultsKey(jobID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job results: %w", err)
	}
	return decodeResults(values)
}

func (s *RedisStore) AppendResults(ctx context.Context, jobID string, results []models.RawScore) error {
	if len(results) == 0 {
		return nil
	}

	encoded, err := encodeResults(results)
	if err != nil {
		return err
	}
	args := make([]interface{}, len(encoded))
	for i, e := range encoded {
		args[i] = e
	}

	appended, err := appendResultsScript.Run(ctx, s.client, []string{statusKey(jobID), resultsKey(jobID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to append job results: %w", err)
	}
	if appended == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return nil
}

func (s *RedisStore) CompleteBatch(ctx context.Context, jobID string) (int, bool, error) {
	keys := []string{statusKey(jobID), finishedKey(jobID), totalKey(jobID)}
	reply, err := completeBatchScript.Run(ctx, s.client, keys).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("failed to complete batch: %w", err)
	}
	if len(reply) != 2 {
		return 0, false, fmt.Errorf("failed to complete batch: unexpected reply %v", reply)
	}
	if reply[0] < 0 {
		return 0, false, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return int(reply[0]), reply[1] == 1, nil
}

func (s *RedisStore) FailJob(ctx context.Context, jobID string) error {
	if err := failJobScript.Run(ctx, s.client, []string{statusKey(jobID)}).Err(); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, jobID string) error {
	keys := []string{statusKey(jobID), resultsKey(jobID), totalKey(jobID), finishedKey(jobID)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear job: %w", err)
	}
	return nil
}

func (s *RedisStore) Job(ctx context.Context, jobID string) (*models.Job, error) {
	pipe := s.client.Pipeline()
	statusCmd := pipe.Get(ctx, statusKey(jobID))
	totalCmd := pipe.Get(ctx, totalKey(jobID))
	finishedCmd := pipe.Get(ctx, finishedKey(jobID))
	resultsCmd := pipe.LRange(ctx, resultsKey(jobID), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}

	status, err := statusCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job status: %w", err)
	}

	results, err := decodeResults(resultsCmd.Val())
	if err != nil {
		return nil, err
	}
	total, _ := strconv.Atoi(totalCmd.Val())
	finished, _ := strconv.Atoi(finishedCmd.Val())

	return &models.Job{
		ID:              jobID,
		Status:          models.JobStatus(status),
		TotalBatches:    total,
		FinishedBatches: finished,
		Results:         results,
	}, nil
}

func encodeResults(results []models.RawScore) ([]string, error) {
	encoded := make([]string, 0, len(results))
	for _, r := range results {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	return encoded, nil
}

func decodeResults(values []string) ([]models.RawScore, error) {
	results := make([]models.RawScore, 0, len(values))
	for _, v := range values {
		var r models.RawScore
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
