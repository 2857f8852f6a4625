package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lovenotes/anniversary/internal/content"
)

// RedisRepo keeps each content document in a hash under
// "<prefix><collection>:<id>". HSET gives merge semantics for free.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo creates a Redis-backed repository. Prefix may be empty.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "content:"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(collection, id string) string {
	return r.prefix + collection + ":" + id
}

func (r *RedisRepo) Fetch(ctx context.Context, collection, id string) (content.Document, error) {
	m, err := r.client.HGetAll(ctx, r.key(collection, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return content.Document(m), nil
}

func (r *RedisRepo) MergeWrite(ctx context.Context, collection, id string, fields content.Document) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	if err := r.client.HSet(ctx, r.key(collection, id), values).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}
