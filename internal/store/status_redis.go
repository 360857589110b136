package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Job states written to the status feed.
const (
	StateAcquiring  = "acquiring"
	StateProcessing = "processing"
	StateAssembling = "assembling"
	StateDone       = "done"
	StateFailed     = "failed"
)

// Status is a point-in-time view of a scan job.
type Status struct {
	State    string
	Progress int // percent of pages finished
	Message  string
	Pages    int
	Start    *time.Time
	End      *time.Time
	Metadata map[string]interface{}
}

// Reporter publishes job status. The pipeline never reads it back.
type Reporter interface {
	Set(ctx context.Context, jobID string, st Status) error
	Close() error
}

// Nop discards every status update.
type Nop struct{}

// Set ignores the update.
func (Nop) Set(context.Context, string, Status) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// RedisStatus keeps one hash per job, expiring after ttl.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

// NewRedisStatus connects to redisURL and checks the server is reachable.
func NewRedisStatus(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &RedisStatus{client: c, keyNS: "scanpdf:job", ttl: ttl}, nil
}

func (s *RedisStatus) key(jobID string) string { return statusKey(s.keyNS, jobID) }

func statusKey(ns, jobID string) string { return fmt.Sprintf("%s:%s:status", ns, jobID) }

// Set overwrites the job's status hash and refreshes its expiry.
func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
	key := s.key(jobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, encodeStatus(st))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the Redis connection.
func (s *RedisStatus) Close() error { return s.client.Close() }

// encodeStatus flattens st into hash fields; unset times are omitted.
func encodeStatus(st Status) map[string]interface{} {
	m := map[string]interface{}{
		"status":   st.State,
		"progress": strconv.Itoa(st.Progress),
		"message":  st.Message,
		"pages":    strconv.Itoa(st.Pages),
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if len(st.Metadata) > 0 {
		b, _ := json.Marshal(st.Metadata)
		m["metadata"] = string(b)
	}
	return m
}
