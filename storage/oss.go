package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// OSSSink Alibaba Cloud OSS sink
type OSSSink struct {
	bucket *oss.Bucket
}

// NewOSSSink create OSS sink instance
func NewOSSSink(endpoint, accessKey, secretKey, bucketName string) (*OSSSink, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucketName == "" {
		return nil, ErrInvalid
	}

	// Create OSS client instance
	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create oss client: %w", err)
	}

	// Get storage bucket
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSSSink{
		bucket: bucket,
	}, nil
}

// Upload put object to OSS. The SDK call itself is not cancellable, ctx
// is only checked before starting.
func (s *OSSSink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := "blobs/" + uuid.NewString() + "/" + objectName(name)
	if err := s.bucket.PutObject(key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload to oss: %w", err)
	}
	return key, nil
}

// Download get object from OSS
func (s *OSSSink) Download(ctx context.Context, blobID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := s.bucket.GetObject(blobID)
	if err != nil {
		var ossErr oss.ServiceError
		if errors.As(err, &ossErr) && ossErr.StatusCode == 404 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from oss: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read oss object: %w", err)
	}
	return data, nil
}
