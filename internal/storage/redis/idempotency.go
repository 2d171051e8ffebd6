// Package redis keeps record-creation idempotency keys in Redis so several
// API replicas share them. Keys expire after a TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const namespace = "ermay:idem"

// DefaultTTL is how long a key is remembered when Open is given zero.
const DefaultTTL = 24 * time.Hour

// IdempotencyStore implements record.IdempotencyStore.
type IdempotencyStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// Open parses a redis:// URL and verifies the connection.
func Open(ctx context.Context, url string, ttl time.Duration) (*IdempotencyStore, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis.Open: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.Open: ping: %w", err)
	}
	return New(client, ttl), nil
}

// New wraps an existing client.
func New(client goredis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func redisKey(ownerID uuid.UUID, key string) string {
	return namespace + ":" + ownerID.String() + ":" + key
}

// ReserveIdempotencyKey binds key to recordID with SET NX. When the key is
// already bound the existing record id is returned with reserved=false.
func (s *IdempotencyStore) ReserveIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) (uuid.UUID, bool, error) {
	rk := redisKey(ownerID, key)
	ok, err := s.client.SetNX(ctx, rk, recordID.String(), s.ttl).Result()
	if err != nil {
		return uuid.Nil, false, err
	}
	if ok {
		return recordID, true, nil
	}
	v, err := s.client.Get(ctx, rk).Result()
	if errors.Is(err, goredis.Nil) {
		// expired between SETNX and GET
		return s.ReserveIdempotencyKey(ctx, ownerID, key, recordID)
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency key %q: %w", key, err)
	}
	return id, false, nil
}

// releaseScript deletes the key only while it still points at the record.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseIdempotencyKey frees a key whose record was never written.
func (s *IdempotencyStore) ReleaseIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) error {
	return releaseScript.Run(ctx, s.client, []string{redisKey(ownerID, key)}, recordID.String()).Err()
}

func (s *IdempotencyStore) Ready(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *IdempotencyStore) Close() error { return s.client.Close() }
