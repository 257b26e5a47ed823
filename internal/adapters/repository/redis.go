package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/pkg/metrics"
)

const (
	maxTxRetries   = 8
	scanBatchCount = 100
)

// RedisConfig holds connection settings for NewRedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// redisRecord is the stored form of a job. The session is kept here
// because model.Job never serialises it to clients.
type redisRecord struct {
	model.Job
	Session string `json:"session_id,omitempty"`
}

// RedisStore keeps each job as a JSON value under prefix+id with a TTL
// that is refreshed on every write.
type RedisStore struct {
	client *redis.Client
	opts   options
	now    func() time.Time
}

// NewRedisStore wraps an existing client. Close closes the client.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		client: client,
		opts:   defaultOptions(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return s.opts.keyPrefix + id
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam: stored by value
	now := s.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	data, err := json.Marshal(redisRecord{Job: job, Session: job.SessionID})
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(job.ID), data, s.opts.ttl).Result()
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Job, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("load job: %w", err)
	}
	return decode(raw)
}

// UpdateProgress implements Store.
func (s *RedisStore) UpdateProgress(ctx context.Context, id string, p int) error {
	return s.mutate(ctx, id, func(job *model.Job) error {
		return applyProgress(job, p, s.now())
	})
}

// Complete implements Store.
func (s *RedisStore) Complete(ctx context.Context, id string, r model.ScoreReport) error {
	return s.mutate(ctx, id, func(job *model.Job) error {
		return applyComplete(job, r, s.now())
	})
}

// Fail implements Store.
func (s *RedisStore) Fail(ctx context.Context, id string, reason string) error {
	return s.mutate(ctx, id, func(job *model.Job) error {
		return applyFail(job, reason, s.now())
	})
}

// Count implements Store. Errors count as an empty store.
func (s *RedisStore) Count(ctx context.Context) int {
	n := 0
	iter := s.client.Scan(ctx, 0, s.opts.keyPrefix+"*", scanBatchCount).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if iter.Err() != nil {
		return 0
	}
	metrics.UpdateJobsStored(n)
	return n
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// mutate applies fn under WATCH so concurrent writers never lose updates.
func (s *RedisStore) mutate(ctx context.Context, id string, fn func(*model.Job) error) error {
	key := s.key(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load job: %w", err)
		}
		job, err := decode(raw)
		if err != nil {
			return err
		}
		if err := fn(&job); err != nil {
			return err
		}
		data, err := json.Marshal(redisRecord{Job: job, Session: job.SessionID})
		if err != nil {
			return fmt.Errorf("encode job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.opts.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update job %s: %w", id, redis.TxFailedErr)
}

func decode(raw []byte) (model.Job, error) {
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Job{}, fmt.Errorf("decode job: %w", err)
	}
	job := rec.Job
	job.SessionID = rec.Session
	return job, nil
}
