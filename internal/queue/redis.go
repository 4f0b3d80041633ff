package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis-backed queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

// RedisQueue implements Queue on a Redis list: LPUSH to produce,
// blocking BRPOP to consume, so the list behaves as a FIFO.
type RedisQueue struct {
	client *redis.Client
	queue  string
}

// NewRedisQueue creates a new RedisQueue.
// Parameters:
//   - cfg: Redis connection settings; empty queue name uses DefaultQueueName.
// Returns:
//   - *RedisQueue: queue client bound to the configured list.
func NewRedisQueue(cfg *RedisConfig) *RedisQueue {
	name := cfg.Queue
	if name == "" {
		name = DefaultQueueName
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisQueue{client: client, queue: name}
}

// Enqueue pushes a task message onto the head of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, msg *TaskMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.queue, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// Dequeue blocks up to timeout on the tail of the list. An expired wait
// returns (nil, nil); transport faults wrap ErrQueueUnavailable.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*TaskMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	// BRPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}

	var msg TaskMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &msg, nil
}

// Close releases the underlying Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
