package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bot-file-system/conf"
)

// Sink opaque blob store behind one backend node. Implementations make a
// single attempt per call; retries live in the transfer layer.
type Sink interface {
	// Upload stores data and returns the sink-specific blob id
	Upload(ctx context.Context, name string, data []byte) (string, error)
	// Download fetches the blob bytes
	Download(ctx context.Context, blobID string) ([]byte, error)
}

// Sink kinds
const (
	KindTelegram = "telegram"
	KindS3       = "s3"
	KindMinIO    = "minio"
	KindOSS      = "oss"
	KindLocal    = "local"
	KindMemory   = "memory"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalid     = errors.New("invalid storage configuration")
	ErrRateLimited = errors.New("rate limited by backend")
)

// RateLimitError backend asked us to slow down
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by backend, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Factory builds the sink for one node configuration
type Factory func(cfg conf.NodeConfig) (Sink, error)

// NewSink create sink instance by node configuration
func NewSink(cfg conf.NodeConfig) (Sink, error) {
	switch cfg.Kind {
	case KindTelegram, "":
		return NewTelegramSink(cfg.BaseURL, cfg.Credential, cfg.Channel, time.Duration(cfg.Timeout)*time.Second)
	case KindS3:
		return NewS3Sink(cfg.Region, cfg.Endpoint, cfg.Credential, cfg.Secret, cfg.Bucket)
	case KindMinIO:
		return NewMinIOSink(cfg.Endpoint, cfg.Credential, cfg.Secret, cfg.Bucket)
	case KindOSS:
		return NewOSSSink(cfg.Endpoint, cfg.Credential, cfg.Secret, cfg.Bucket)
	case KindLocal:
		return NewLocalSink(cfg.BasePath)
	case KindMemory:
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrInvalid, cfg.Kind)
	}
}

// objectName keeps only the base of a client supplied name
func objectName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "blob"
	}
	return base
}
