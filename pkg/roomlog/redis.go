package roomlog

import (
	"context"
	"encoding/json"
	"fmt"

	"blackjack-server/pkg/blackjack"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix prefixes the Redis list of every room
const KeyPrefix = "blackjack:log:"

// Redis keeps each room's log in a capped Redis list
type Redis struct {
	client *redis.Client
	limit  int
}

var _ Store = (*Redis)(nil)

// NewRedis returns a store backed by the client
func NewRedis(client *redis.Client, limit int) *Redis {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Redis{
		client: client,
		limit:  limit,
	}
}

func key(room string) string {
	return KeyPrefix + room
}

// Append pushes entries and trims the list to the limit
func (r *Redis) Append(ctx context.Context, room string, entries []blackjack.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]interface{}, len(entries))
	for i, entry := range entries {
		b, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		values[i] = b
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key(room), values...)
		pipe.LTrim(ctx, key(room), int64(-r.limit), -1)
		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to append to Redis list '%s': %w", key(room), err)
	}

	return nil
}

// Recent returns the latest entries of the room
func (r *Redis) Recent(ctx context.Context, room string, limit int) ([]blackjack.LogEntry, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	values, err := r.client.LRange(ctx, key(room), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read Redis list '%s': %w", key(room), err)
	}

	entries := make([]blackjack.LogEntry, 0, len(values))
	for _, value := range values {
		var entry blackjack.LogEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
