package badger

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
)

// kvEntry is the stored shape of a system key-value pair.
type kvEntry struct {
	Key   string `badgerhold:"key"`
	Value string
}

type systemKVStorage struct {
	store  *Store
	logger *common.Logger
	mu     sync.Mutex
}

// NewSystemKVStorage creates a SystemKV backed by BadgerHold.
func NewSystemKVStorage(store *Store, logger *common.Logger) *systemKVStorage {
	return &systemKVStorage{store: store, logger: logger}
}

func (s *systemKVStorage) Get(_ context.Context, key string) (string, error) {
	var entry kvEntry
	err := s.store.db.Get("kv/"+key, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("system key %s: %w", key, interfaces.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get system key %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *systemKVStorage) Set(_ context.Context, key, value string) error {
	entry := kvEntry{Key: key, Value: value}
	if err := s.store.db.Upsert("kv/"+key, &entry); err != nil {
		return fmt.Errorf("failed to set system key %s: %w", key, err)
	}
	return nil
}

// Increment adds delta to an integer value under the store mutex. Missing or
// non-numeric values start from zero.
func (s *systemKVStorage) Increment(ctx context.Context, key string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	value, err := s.Get(ctx, key)
	if err == nil {
		if parsed, perr := strconv.Atoi(value); perr == nil {
			current = parsed
		}
	}

	current += delta
	if err := s.Set(ctx, key, strconv.Itoa(current)); err != nil {
		return 0, err
	}
	return current, nil
}
