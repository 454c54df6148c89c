package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

const statusKeyPrefix = "inventory_import:job:"

// RedisStatusStore keeps job snapshots as JSON values that expire after the
// retention window.
type RedisStatusStore struct {
	client redis.Cmdable
}

func NewRedisStatusStore(client redis.Cmdable) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

func statusKey(jobID string) string {
	return statusKeyPrefix + jobID
}

func (s *RedisStatusStore) Save(ctx context.Context, snapshot domain.JobSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode job snapshot: %w", err)
	}
	if err := s.client.Set(ctx, statusKey(snapshot.JobID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store job snapshot %s: %w", snapshot.JobID, err)
	}
	return nil
}

func (s *RedisStatusStore) Get(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	data, err := s.client.Get(ctx, statusKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.JobSnapshot{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.JobSnapshot{}, fmt.Errorf("load job snapshot %s: %w", jobID, err)
	}

	var snapshot domain.JobSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.JobSnapshot{}, fmt.Errorf("decode job snapshot %s: %w", jobID, err)
	}
	return snapshot, nil
}
