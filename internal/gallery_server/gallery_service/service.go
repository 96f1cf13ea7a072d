// Package gallery_service implements the two operations of the gallery:
// accepting a weighted labeled image and serving one image per label by
// weighted-random selection.
package gallery_service

import (
	"context"
	"log/slog"

	"pet-gallery/internal/gallery_server/chunkdir"
	"pet-gallery/internal/gallery_server/metrics"
	"pet-gallery/pkg/config"
)

// ObjectStore is the contract of the external blob store.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}

// MetadataStore is the contract of the external metadata store: point reads,
// conditional updates, appends and a range query by (label, chunk).
type MetadataStore interface {
	EnsureDirectory(ctx context.Context, label string) error
	Directory(ctx context.Context, label string) (chunkdir.Directory, error)
	CreateChunk(ctx context.Context, label string, expectedCount int) (chunkID int, ok bool, err error)
	IncrementVolume(ctx context.Context, label string, chunkID, max int) (volume int, ok bool, err error)
	Deactivate(ctx context.Context, label string, chunkID int) error
	AppendItem(ctx context.Context, item chunkdir.Item) error
	ChunkItems(ctx context.Context, label string, chunkID int) ([]chunkdir.Item, error)
}

type GalleryService struct {
	objects ObjectStore
	meta    MetadataStore
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.GalleryMetrics
}

func New(objects ObjectStore, meta MetadataStore, cfg *config.Config, logger *slog.Logger, m *metrics.GalleryMetrics) *GalleryService {
	return &GalleryService{
		objects: objects,
		meta:    meta,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}
