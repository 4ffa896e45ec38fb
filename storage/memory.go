package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemorySink keeps blobs in process memory. Used for local development
// and as the backend of service tests.
type MemorySink struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{blobs: make(map[string][]byte)}
}

func (s *MemorySink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	blobID := uuid.NewString()
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.blobs[blobID] = stored
	s.mu.Unlock()
	return blobID, nil
}

func (s *MemorySink) Download(ctx context.Context, blobID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.blobs[blobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Len number of stored blobs
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Corrupt replace a stored blob, for exercising integrity checks
func (s *MemorySink) Corrupt(blobID string, data []byte) {
	s.mu.Lock()
	s.blobs[blobID] = data
	s.mu.Unlock()
}
