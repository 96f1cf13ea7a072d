// Package objectstore adapts MinIO (or any S3-compatible store) to the
// byte-level put/get/delete contract the gallery services need. Transient
// failures get a small number of local retries with exponential backoff
// before escalating to the caller.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cenkalti/backoff"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pet-gallery/internal/gallery_server/metrics"
	"pet-gallery/pkg/config"
)

const maxRetries = 2

type MinioStore struct {
	client  *minio.Client
	bucket  string
	logger  *slog.Logger
	metrics *metrics.GalleryMetrics
}

func New(cfg *config.Config, logger *slog.Logger, m *metrics.GalleryMetrics) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store client: %w", err)
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		logger:  logger,
		metrics: m,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (m *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", m.bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", m.bucket, err)
		}
		m.logger.Info("Created bucket", slog.String("bucket", m.bucket))
	}
	return nil
}

func (m *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return m.retry(ctx, func() error {
		_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data),
			int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return fmt.Errorf("failed to put object %q: %w", key, err)
		}
		return nil
	})
}

func (m *MinioStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var data []byte
	var contentType string

	err := m.retry(ctx, func() error {
		object, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return fmt.Errorf("failed to get object %q: %w", key, err)
		}
		defer object.Close()

		info, err := object.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat object %q: %w", key, err)
		}
		contentType = info.ContentType

		data, err = io.ReadAll(object)
		if err != nil {
			return fmt.Errorf("failed to read object %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	return m.retry(ctx, func() error {
		if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete object %q: %w", key, err)
		}
		return nil
	})
}

func (m *MinioStore) retry(ctx context.Context, op func() error) error {
	var attempt int

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	bo = backoff.WithContext(bo, ctx)

	return backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			m.metrics.ObjectStoreRetries.Inc()
		}
		err := op()
		if err != nil {
			m.logger.Warn("Object store operation failed",
				slog.Int("attempt", attempt), slog.Any("error", err))
		}
		return err
	}, bo)
}
