package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/models"
)

// Store is a Redis-backed level/dedup store for multi-replica deployments,
// where the in-process maps would let replicas fight over the same items.
// Freshness decisions stay with the callers; the Redis TTL only bounds
// memory, like the in-memory sweeper does. Failures are absorbed: a failed
// read is a miss, a failed write is logged and dropped.
type Store struct {
	client    redis.UniversalClient
	retention time.Duration
	keyPrefix string
}

// NewStore creates a Redis store with cluster support
func NewStore(addrs []string, password string, clusterMode bool, retention time.Duration, keyPrefix string) *Store {
	var client redis.UniversalClient

	if clusterMode {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:          addrs,
			Password:       password,
			MaxRetries:     3,
			PoolSize:       50,
			MinIdleConns:   5,
			PoolTimeout:    30 * time.Second,
			MaxRedirects:   8,
			RouteByLatency: true,
		})
	} else {
		addr := "localhost:6379"
		if len(addrs) > 0 {
			addr = addrs[0]
		}
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
			PoolSize: 10,
		})
	}

	return &Store{
		client:    client,
		retention: retention,
		keyPrefix: keyPrefix,
	}
}

func (s *Store) GetLevel(ctx context.Context, key models.LevelKey) (models.LevelEntry, bool) {
	var entry models.LevelEntry
	if !s.get(ctx, s.levelKey(key), &entry) {
		return models.LevelEntry{}, false
	}
	return entry, true
}

func (s *Store) PutLevel(ctx context.Context, key models.LevelKey, entry models.LevelEntry) {
	s.put(ctx, s.levelKey(key), entry)
}

func (s *Store) GetDedup(ctx context.Context, key models.LevelKey) (models.DedupEntry, bool) {
	var entry models.DedupEntry
	if !s.get(ctx, s.dedupKey(key), &entry) {
		return models.DedupEntry{}, false
	}
	return entry, true
}

func (s *Store) PutDedup(ctx context.Context, key models.LevelKey, entry models.DedupEntry) {
	s.put(ctx, s.dedupKey(key), entry)
}

func (s *Store) get(ctx context.Context, key string, out interface{}) bool {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read store entry, treating as miss")
		}
		return false
	}

	if err := json.Unmarshal([]byte(val), out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal store entry, treating as miss")
		return false
	}
	return true
}

func (s *Store) put(ctx context.Context, key string, entry interface{}) {
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal store entry")
		return
	}

	if err := s.client.Set(ctx, key, data, s.retention).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write store entry")
	}
}

// Ping checks if Redis is available
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) levelKey(key models.LevelKey) string {
	return fmt.Sprintf("%slevel:%s", s.keyPrefix, key)
}

func (s *Store) dedupKey(key models.LevelKey) string {
	return fmt.Sprintf("%sdedup:%s", s.keyPrefix, key)
}
