package gallery_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"pet-gallery/internal/gallery_server/chunkdir"
	"pet-gallery/internal/gallery_server/metastore"
	"pet-gallery/pkg/apperr"
)

// selectionAttempts bounds the retries around chunks that exist in the
// directory but hold no persisted items yet.
const selectionAttempts = 3

type Image struct {
	Data        []byte
	ContentType string
}

// RandomImage serves one image for the label. The chunk is picked uniformly
// over all chunks ever created, so older filled chunks stay reachable; the
// item within the chunk is picked by cumulative-weight sampling.
func (s *GalleryService) RandomImage(ctx context.Context, label string) (*Image, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if !s.cfg.IsAllowedLabel(label) {
		return nil, apperr.New(apperr.Validation,
			fmt.Sprintf("'label' must be one of %s", strings.Join(s.cfg.Labels, ", ")))
	}

	dir, err := s.meta.Directory(ctx, label)
	if errors.Is(err, metastore.ErrDirectoryNotFound) {
		s.metrics.Selections.WithLabelValues(label, "not_found").Inc()
		return nil, apperr.Wrap(apperr.NotFound,
			fmt.Sprintf("no images found for the label %q", label), err)
	}
	if err != nil {
		s.metrics.Selections.WithLabelValues(label, "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "failed to load images, please try again", err)
	}
	if dir.ChunkCount == 0 {
		s.metrics.Selections.WithLabelValues(label, "not_found").Inc()
		return nil, apperr.New(apperr.NotFound,
			fmt.Sprintf("no images found for the label %q", label))
	}

	var items []chunkdir.Item
	for attempt := 0; attempt < selectionAttempts; attempt++ {
		chunkID := rand.IntN(dir.ChunkCount)
		items, err = s.meta.ChunkItems(ctx, label, chunkID)
		if err != nil {
			s.metrics.Selections.WithLabelValues(label, "error").Inc()
			return nil, apperr.Wrap(apperr.Storage, "failed to load images, please try again", err)
		}
		if len(items) > 0 {
			break
		}
		// A chunk can exist in metadata before its first item write lands.
		s.logger.Warn("Selected empty chunk",
			slog.String("label", label), slog.Int("chunk_id", chunkID), slog.Int("attempt", attempt+1))
	}
	if len(items) == 0 {
		s.metrics.Selections.WithLabelValues(label, "empty").Inc()
		return nil, apperr.New(apperr.EmptyCatalog,
			fmt.Sprintf("no images found for the label %q", label))
	}

	winner := pickWeighted(items, rand.Float64())

	data, contentType, err := s.objects.Get(ctx, winner.ObjectKey)
	if err != nil {
		s.metrics.Selections.WithLabelValues(label, "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "failed to load the image, please try again", err)
	}

	s.metrics.Selections.WithLabelValues(label, "ok").Inc()
	return &Image{Data: data, ContentType: contentType}, nil
}

// pickWeighted returns the first item whose cumulative weight exceeds
// r01 * totalWeight, scanning left to right. r01 must be in [0, 1).
func pickWeighted(items []chunkdir.Item, r01 float64) chunkdir.Item {
	var total float64
	for _, item := range items {
		total += item.Weight
	}

	r := r01 * total
	for _, item := range items {
		r -= item.Weight
		if r < 0 {
			return item
		}
	}
	// Floating point accumulation can leave a sliver above the last item.
	return items[len(items)-1]
}
