package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalSink local file system sink
type LocalSink struct {
	basePath string
}

// NewLocalSink create local sink instance
func NewLocalSink(basePath string) (*LocalSink, error) {
	if basePath == "" {
		basePath = "./data/blobs"
	}

	// Ensure directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalSink{
		basePath: basePath,
	}, nil
}

// Upload write blob to disk
func (s *LocalSink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	blobID := uuid.NewString() + "_" + objectName(name)
	if err := os.WriteFile(filepath.Join(s.basePath, blobID), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return blobID, nil
}

// Download read blob from disk
func (s *LocalSink) Download(ctx context.Context, blobID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if blobID == "" || strings.ContainsAny(blobID, `/\`) || strings.Contains(blobID, "..") {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.basePath, blobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
