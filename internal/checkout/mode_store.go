package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ModeTTL is how long a chosen mode is remembered for a checkout session
const ModeTTL = 30 * time.Minute

// ModeStore remembers the mode chosen in a checkout session for a campaign
type ModeStore interface {
	Get(ctx context.Context, sessionID string, campaignID uint) (Mode, error)
	Set(ctx context.Context, sessionID string, campaignID uint, mode Mode) error
	Clear(ctx context.Context, sessionID string, campaignID uint) error
}

func modeKey(sessionID string, campaignID uint) string {
	return fmt.Sprintf("iark:checkout:%s:%d", sessionID, campaignID)
}

// RedisModeStore keeps modes in Redis with a TTL
type RedisModeStore struct {
	client redis.UniversalClient
}

func NewRedisModeStore(client redis.UniversalClient) *RedisModeStore {
	return &RedisModeStore{client: client}
}

func (s *RedisModeStore) Get(ctx context.Context, sessionID string, campaignID uint) (Mode, error) {
	val, err := s.client.Get(ctx, modeKey(sessionID, campaignID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Mode(val), nil
}

func (s *RedisModeStore) Set(ctx context.Context, sessionID string, campaignID uint, mode Mode) error {
	return s.client.Set(ctx, modeKey(sessionID, campaignID), string(mode), ModeTTL).Err()
}

func (s *RedisModeStore) Clear(ctx context.Context, sessionID string, campaignID uint) error {
	return s.client.Del(ctx, modeKey(sessionID, campaignID)).Err()
}

type memoryEntry struct {
	mode    Mode
	expires time.Time
}

// MemoryModeStore is used when Redis is not configured. It is per-process.
type MemoryModeStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryModeStore() *MemoryModeStore {
	return &MemoryModeStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryModeStore) Get(ctx context.Context, sessionID string, campaignID uint) (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := modeKey(sessionID, campaignID)
	entry, ok := s.entries[key]
	if !ok {
		return "", nil
	}
	if s.now().After(entry.expires) {
		delete(s.entries, key)
		return "", nil
	}
	return entry.mode, nil
}

// Set also drops every expired entry, so abandoned sessions do not pile up
func (s *MemoryModeStore) Set(ctx context.Context, sessionID string, campaignID uint, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, key)
		}
	}
	s.entries[modeKey(sessionID, campaignID)] = memoryEntry{mode: mode, expires: now.Add(ModeTTL)}
	return nil
}

func (s *MemoryModeStore) Clear(ctx context.Context, sessionID string, campaignID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, modeKey(sessionID, campaignID))
	return nil
}
