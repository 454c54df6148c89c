package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/cache"
)

func TestRedisStatusStoreIntegration(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	ctx := context.Background()
	client, err := cache.NewRedisClient(ctx, redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := cache.NewRedisStatusStore(client)
	jobID := uuid.NewString()

	_, err = store.Get(ctx, jobID)
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	submitted := time.Now().UTC().Truncate(time.Second)
	snapshot := domain.JobSnapshot{
		JobID:       jobID,
		Status:      domain.JobCompleted,
		FileName:    "parts.csv",
		Attempts:    1,
		Result:      &domain.ProcessingResult{Success: true, Message: "ok"},
		SubmittedAt: submitted,
	}
	require.NoError(t, store.Save(ctx, snapshot, time.Minute))

	got, err := store.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.True(t, submitted.Equal(got.SubmittedAt))

	ttl, err := client.TTL(ctx, "inventory_import:job:"+jobID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, store.Save(ctx, snapshot, 50*time.Millisecond))
	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, jobID)
		return err == domain.ErrJobNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := cache.NewRedisClient(context.Background(), "not-a-url")
	require.Error(t, err)
}
