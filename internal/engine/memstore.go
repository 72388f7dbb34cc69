package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/models"
)

// MemoryStore is the default process-local backing store for the level cache
// and the dedup filter. Entries are only ever overwritten, never merged; a
// periodic sweep bounds memory by dropping entries past the retention
// horizon.
type MemoryStore struct {
	mu     sync.Mutex
	levels map[models.LevelKey]models.LevelEntry
	dedups map[models.LevelKey]models.DedupEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		levels: make(map[models.LevelKey]models.LevelEntry),
		dedups: make(map[models.LevelKey]models.DedupEntry),
	}
}

func (s *MemoryStore) GetLevel(_ context.Context, key models.LevelKey) (models.LevelEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.levels[key]
	return entry, ok
}

func (s *MemoryStore) PutLevel(_ context.Context, key models.LevelKey, entry models.LevelEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[key] = entry
}

func (s *MemoryStore) GetDedup(_ context.Context, key models.LevelKey) (models.DedupEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.dedups[key]
	return entry, ok
}

func (s *MemoryStore) PutDedup(_ context.Context, key models.LevelKey, entry models.DedupEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedups[key] = entry
}

// Sweep drops entries older than the retention horizon and returns how many
// were removed. Expired entries are already ignored by the freshness checks,
// so sweeping never changes sync behaviour.
func (s *MemoryStore) Sweep(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.levels {
		if entry.ObservedAt.Before(cutoff) {
			delete(s.levels, key)
			removed++
		}
	}
	for key, entry := range s.dedups {
		if entry.SeenAt.Before(cutoff) {
			delete(s.dedups, key)
			removed++
		}
	}
	return removed
}

// RunSweeper periodically sweeps stale entries until the context is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Starting cache sweeper")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping cache sweeper")
			return
		case <-ticker.C:
			if removed := s.Sweep(retention); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Swept stale cache entries")
			}
		}
	}
}
