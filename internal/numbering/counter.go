package numbering

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryCounter keeps sequences in process memory. Values are lost on restart,
// so it only suits tests and a single local instance (NUMBERING_BACKEND=memory).
type MemoryCounter struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{seqs: make(map[string]int64)}
}

func (c *MemoryCounter) Next(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs[key]++
	return c.seqs[key], nil
}

// RedisCounter uses INCR so several API replicas share one sequence.
type RedisCounter struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: "seq:"}
}

func (c *RedisCounter) Next(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, c.prefix+key).Result()
}
