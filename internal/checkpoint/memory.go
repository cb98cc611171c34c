package checkpoint

import (
	"context"
	"sync"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

// MemoryStore is an in-process backend for tests and hosts that opt out of
// durability. Snapshots are stored encoded so callers cannot alias them.
type MemoryStore struct {
	codec Codec

	mu    sync.RWMutex
	snaps map[string][]byte
}

func NewMemoryStore(codec Codec) *MemoryStore {
	if codec == nil {
		codec = JSON()
	}
	return &MemoryStore{codec: codec, snaps: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, testID string, snap *model.Snapshot) error {
	payload, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snaps[testID] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, testID string) (*model.Snapshot, error) {
	s.mu.RLock()
	payload, ok := s.snaps[testID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.codec.Decode(payload)
}

func (s *MemoryStore) Clear(_ context.Context, testID string) error {
	s.mu.Lock()
	delete(s.snaps, testID)
	s.mu.Unlock()
	return nil
}
