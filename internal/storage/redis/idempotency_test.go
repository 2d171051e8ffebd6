package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/ermay/internal/service/record"
)

var _ record.IdempotencyStore = (*IdempotencyStore)(nil)

func openTest(t *testing.T) *IdempotencyStore {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping Redis tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIdempotencyStore_FirstWriteWins(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	owner := uuid.New()
	key := "key-" + uuid.NewString()
	first, second := uuid.New(), uuid.New()

	bound, reserved, err := s.ReserveIdempotencyKey(ctx, owner, key, first)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, first, bound)

	bound, reserved, err = s.ReserveIdempotencyKey(ctx, owner, key, second)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, first, bound)

	// other owners do not see the key
	_, reserved, err = s.ReserveIdempotencyKey(ctx, uuid.New(), key, second)
	require.NoError(t, err)
	assert.True(t, reserved)

	ttl, err := s.client.TTL(ctx, redisKey(owner, key)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestIdempotencyStore_ReleaseOnlyByHolder(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	owner := uuid.New()
	key := "key-" + uuid.NewString()
	first, second := uuid.New(), uuid.New()

	_, _, err := s.ReserveIdempotencyKey(ctx, owner, key, first)
	require.NoError(t, err)
	require.NoError(t, s.ReleaseIdempotencyKey(ctx, owner, key, second))
	_, reserved, err := s.ReserveIdempotencyKey(ctx, owner, key, second)
	require.NoError(t, err)
	assert.False(t, reserved)

	require.NoError(t, s.ReleaseIdempotencyKey(ctx, owner, key, first))
	bound, reserved, err := s.ReserveIdempotencyKey(ctx, owner, key, second)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, second, bound)
}

func TestRedisKey(t *testing.T) {
	owner := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	assert.Equal(t, "ermay:idem:00000000-0000-0000-0000-000000000001:abc", redisKey(owner, "abc"))
}
