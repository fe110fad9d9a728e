package dedupe

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSet is an optional distributed dedupe set for deployments running
// more than one orchestrator process against the same catalog, so the
// bronze B1 dedupe check is shared rather than re-seeded per process. It
// satisfies the same membership contract as Set but backs it with a Redis
// set keyed per (processID, preIngestionDatasetID).
type RedisSet struct {
	client *redis.Client
	key    string
}

// NewRedisSet wraps an already-connected redis.Client.
func NewRedisSet(client *redis.Client, processID, preIngestionDatasetID int) *RedisSet {
	return &RedisSet{
		client: client,
		key:    fmt.Sprintf("dedupe:acquisition:%d:%d", processID, preIngestionDatasetID),
	}
}

// Contains reports whether location is a member of the Redis set.
func (r *RedisSet) Contains(ctx context.Context, location string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, location).Result()
	if err != nil {
		return false, fmt.Errorf("checking redis dedupe membership: %w", err)
	}

	return ok, nil
}

// Add inserts location into the Redis set.
func (r *RedisSet) Add(ctx context.Context, location string) error {
	if err := r.client.SAdd(ctx, r.key, location).Err(); err != nil {
		return fmt.Errorf("adding redis dedupe member: %w", err)
	}

	return nil
}

// Seed loads the current SUCCEEDED set from the catalog into Redis, used
// once when a process first runs against a dataset so subsequent processes
// don't need to re-derive membership from the catalog store.
func (r *RedisSet) Seed(ctx context.Context, locations map[string]bool) error {
	if len(locations) == 0 {
		return nil
	}

	members := make([]any, 0, len(locations))
	for loc, ok := range locations {
		if ok {
			members = append(members, loc)
		}
	}

	if err := r.client.SAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("seeding redis dedupe set: %w", err)
	}

	return nil
}
