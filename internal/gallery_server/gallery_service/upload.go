package gallery_service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pet-gallery/internal/gallery_server/chunkdir"
	"pet-gallery/pkg/apperr"
	"pet-gallery/pkg/imagesniff"
	"pet-gallery/pkg/multipart"
)

const (
	fieldImage  = "img"
	fieldLabel  = "label"
	fieldWeight = "weight"

	defaultWeight = 0.5

	// placementAttempts bounds how often an insertion re-reads the
	// directory after losing a chunk-creation race.
	placementAttempts = 3
)

type UploadResult struct {
	ObjectKey string `json:"object_key"`
	Label     string `json:"label"`
	ChunkID   int    `json:"chunk_id"`
}

// Upload parses and validates a multipart body, stores the image bytes and
// records the weighted item in the label's chunk directory.
func (s *GalleryService) Upload(ctx context.Context, body []byte, boundary string) (*UploadResult, error) {
	parts, err := multipart.Parse(body, boundary)
	if err != nil {
		return nil, apperr.Wrap(apperr.Parse, "invalid multipart request", err)
	}

	img, label, weight, err := s.validateParts(parts)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("invalid", "rejected").Inc()
		return nil, err
	}

	kind, err := imagesniff.Detect(img.Data)
	if err != nil {
		// The declared type is advisory only; log it for diagnostics.
		s.logger.Warn("Rejected upload with unknown image signature",
			slog.String("label", label),
			slog.String("declared_content_type", img.ContentType))
		s.metrics.Uploads.WithLabelValues(label, "rejected").Inc()
		return nil, apperr.Wrap(apperr.UnsupportedMedia,
			"'img' must be one of image/jpeg, image/png, image/webp", err)
	}

	key := label + "/" + uuid.New().String() + kind.Ext()

	if err := s.objects.Put(ctx, key, img.Data, kind.ContentType()); err != nil {
		s.metrics.Uploads.WithLabelValues(label, "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "failed to store the image, please try again", err)
	}

	chunkID, err := s.placeItem(ctx, label, key, weight)
	if err != nil {
		// The object is already durable but unreachable without its
		// metadata; delete it so nothing leaks.
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to delete orphaned object",
				slog.String("object_key", key), slog.Any("error", delErr))
		}
		s.metrics.Uploads.WithLabelValues(label, "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "failed to store the image, please try again", err)
	}

	s.logger.Info("Image uploaded",
		slog.String("label", label),
		slog.String("object_key", key),
		slog.Int("chunk_id", chunkID),
		slog.String("kind", kind.String()))
	s.metrics.Uploads.WithLabelValues(label, "ok").Inc()

	return &UploadResult{ObjectKey: key, Label: label, ChunkID: chunkID}, nil
}

// validateParts enforces the upload contract: exactly the known fields, a
// required img file, a required label from the closed set and an optional
// weight in the open interval (0,1).
func (s *GalleryService) validateParts(parts []multipart.Part) (img multipart.Part, label string, weight float64, err error) {
	byName := make(map[string]multipart.Part, len(parts))
	for _, part := range parts {
		switch part.Name {
		case fieldImage, fieldLabel, fieldWeight:
			byName[part.Name] = part
		default:
			return img, "", 0, apperr.New(apperr.Validation,
				fmt.Sprintf("unexpected field %q in request body", part.Name))
		}
	}

	img, ok := byName[fieldImage]
	if !ok || !img.IsFile() || len(img.Data) == 0 {
		return img, "", 0, apperr.New(apperr.Validation, "'img' must be a valid file")
	}

	labelPart, ok := byName[fieldLabel]
	if !ok || labelPart.IsFile() {
		return img, "", 0, apperr.New(apperr.Validation, "'label' must be a valid field")
	}
	label = strings.ToLower(strings.TrimSpace(string(labelPart.Data)))
	if !s.cfg.IsAllowedLabel(label) {
		return img, "", 0, apperr.New(apperr.Validation,
			fmt.Sprintf("'label' must be one of %s", strings.Join(s.cfg.Labels, ", ")))
	}

	weight = defaultWeight
	if weightPart, ok := byName[fieldWeight]; ok {
		parsed, parseErr := strconv.ParseFloat(strings.TrimSpace(string(weightPart.Data)), 64)
		if parseErr != nil {
			return img, "", 0, apperr.New(apperr.Validation,
				"'weight' must be a valid number (e.g., 0.5, 0.9)")
		}
		// NaN fails both comparisons and is rejected with the rest.
		if !(parsed > 0 && parsed < 1) {
			return img, "", 0, apperr.New(apperr.Validation,
				"'weight' must be a number between 0.0 (exclusive) and 1.0 (exclusive)")
		}
		weight = parsed
	}

	return img, label, weight, nil
}

// placeItem picks the insertion chunk and records the item. An active chunk
// is used as-is; otherwise a new chunk is created with an optimistic check
// on the chunk count. Only the active set is ever inspected, so the cost is
// independent of the catalog size.
func (s *GalleryService) placeItem(ctx context.Context, label, key string, weight float64) (int, error) {
	if err := s.meta.EnsureDirectory(ctx, label); err != nil {
		return 0, err
	}

	for attempt := 0; attempt < placementAttempts; attempt++ {
		dir, err := s.meta.Directory(ctx, label)
		if err != nil {
			return 0, err
		}

		chunkID, ok := dir.PickActive()
		if !ok {
			chunkID, ok, err = s.meta.CreateChunk(ctx, label, dir.ChunkCount)
			if err != nil {
				return 0, err
			}
			if !ok {
				// Another writer created the chunk first; reload the
				// directory and use it.
				continue
			}
			s.metrics.ChunksCreated.WithLabelValues(label).Inc()
			s.logger.Info("Created chunk",
				slog.String("label", label), slog.Int("chunk_id", chunkID))
		}

		if err := s.commitItem(ctx, label, chunkID, key, weight); err != nil {
			return 0, err
		}
		return chunkID, nil
	}

	return 0, apperr.New(apperr.Storage,
		fmt.Sprintf("failed to place item for %q after %d attempts", label, placementAttempts))
}

// commitItem appends the item and then adjusts the directory bookkeeping.
// The two writes are separate operations; a brief divergence between the
// recorded volume and the true item count is accepted.
func (s *GalleryService) commitItem(ctx context.Context, label string, chunkID int, key string, weight float64) error {
	if err := s.meta.AppendItem(ctx, chunkdir.Item{
		Label:     label,
		ChunkID:   chunkID,
		ObjectKey: key,
		Weight:    weight,
	}); err != nil {
		return err
	}

	volume, ok, err := s.meta.IncrementVolume(ctx, label, chunkID, s.cfg.ChunkMax)
	if err != nil {
		return err
	}
	if !ok {
		// Concurrent writers pushed the chunk to the capacity guideline
		// before our increment landed. The item itself is written; make
		// sure the chunk stops receiving new ones.
		return s.meta.Deactivate(ctx, label, chunkID)
	}
	if volume >= s.cfg.ChunkThreshold {
		return s.meta.Deactivate(ctx, label, chunkID)
	}
	return nil
}
