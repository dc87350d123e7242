package patients

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// SnapshotStore keeps cart lines across workspace rebuilds. Load returns nil
// lines and no error when nothing is stored.
type SnapshotStore interface {
	Load(ctx context.Context, username string) ([]cart.Line, error)
	Save(ctx context.Context, username string, lines []cart.Line) error
}

type cartCache interface {
	SaveCart(ctx context.Context, username string, payload []byte, ttl time.Duration) error
	LoadCart(ctx context.Context, username string) ([]byte, bool, error)
	DeleteCart(ctx context.Context, username string) error
}

// RedisStore persists cart snapshots as JSON under the patient's cart key.
type RedisStore struct {
	cache cartCache
	ttl   time.Duration
}

func NewRedisStore(cache cartCache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, username string) ([]cart.Line, error) {
	raw, found, err := s.cache.LoadCart(ctx, username)
	if err != nil || !found {
		return nil, err
	}
	return decodeLines(raw)
}

// Save stores lines, or removes the key when the cart is empty.
func (s *RedisStore) Save(ctx context.Context, username string, lines []cart.Line) error {
	if len(lines) == 0 {
		return s.cache.DeleteCart(ctx, username)
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	return s.cache.SaveCart(ctx, username, raw, s.ttl)
}

// MemoryStore is a process-local SnapshotStore used when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, username string) ([]cart.Line, error) {
	s.mu.Lock()
	raw, ok := s.carts[storeKey(username)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeLines(raw)
}

func (s *MemoryStore) Save(_ context.Context, username string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(lines) == 0 {
		delete(s.carts, storeKey(username))
		return nil
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	s.carts[storeKey(username)] = raw
	return nil
}

func decodeLines(raw []byte) ([]cart.Line, error) {
	var lines []cart.Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return lines, nil
}

func storeKey(username string) string {
	return types.Session{Username: username}.Key()
}
