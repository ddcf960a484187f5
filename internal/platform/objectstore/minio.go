// Package objectstore uploads files to S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes an S3-compatible endpoint (AWS S3, MinIO, R2...).
type Config struct {
	Endpoint  string // host[:port] without scheme
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Store is a bucket-scoped minio client.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a Store. It does not contact the endpoint.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("object store endpoint is empty")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("object store bucket is empty")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// UploadFile copies the local file at path to key, creating the bucket when it is missing.
func (s *Store) UploadFile(ctx context.Context, key, path, contentType string) (int64, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return 0, fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return 0, fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		slog.Info("bucket created", "bucket", s.bucket)
	}

	info, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) {
			return 0, fmt.Errorf("upload %s: %s (status %d)", key, resp.Code, resp.StatusCode)
		}
		return 0, fmt.Errorf("upload %s: %w", key, err)
	}
	slog.Info("object uploaded", "bucket", s.bucket, "key", key, "size", info.Size)
	return info.Size, nil
}
