// Package config resolves the process configuration once at startup into an
// immutable snapshot that is passed by reference into every component. The
// snapshot is never refreshed during the lifetime of the process.
package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pet-gallery/pkg/apperr"
)

const (
	defaultServerPort     = "13080"
	defaultMaxUploadSize  = 5 << 20 // 5 MB
	defaultMinioEndpoint  = "localhost:9000"
	defaultMinioAccessKey = "minioadmin"
	defaultMinioSecretKey = "minioadmin"
	defaultBucket         = "pet-gallery-images"
	defaultMetaDBPath     = "pet-gallery.db"
	defaultLabels         = "cat,dog"
	defaultChunkMax       = 20
	defaultChunkThreshold = 10
)

type Config struct {
	ServerPort    string
	MaxUploadSize int64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	Bucket         string

	MetaDBPath string

	// Labels is the closed set of accepted image labels.
	Labels []string

	// ChunkThreshold is the soft fill level at which a chunk stops
	// accepting new items. ChunkMax is the advisory hard capacity used as
	// the guard of the conditional volume update.
	ChunkThreshold int
	ChunkMax       int
}

// Resolve reads every parameter exactly once through the provider and
// returns the validated snapshot.
func Resolve(p Provider) (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.ServerPort, err = stringParam(p, "/pet-gallery/server/port", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSize, err = int64Param(p, "/pet-gallery/server/max-upload-size", defaultMaxUploadSize); err != nil {
		return nil, err
	}
	if cfg.MinioEndpoint, err = stringParam(p, "/pet-gallery/s3/endpoint", defaultMinioEndpoint); err != nil {
		return nil, err
	}
	if cfg.MinioAccessKey, err = stringParam(p, "/pet-gallery/s3/access-key", defaultMinioAccessKey); err != nil {
		return nil, err
	}
	if cfg.MinioSecretKey, err = stringParam(p, "/pet-gallery/s3/secret-key", defaultMinioSecretKey); err != nil {
		return nil, err
	}
	if cfg.MinioUseSSL, err = boolParam(p, "/pet-gallery/s3/use-ssl", false); err != nil {
		return nil, err
	}
	if cfg.Bucket, err = stringParam(p, "/pet-gallery/s3/bucket-name", defaultBucket); err != nil {
		return nil, err
	}
	if cfg.MetaDBPath, err = stringParam(p, "/pet-gallery/metadata/db-path", defaultMetaDBPath); err != nil {
		return nil, err
	}
	if cfg.ChunkThreshold, err = intParam(p, "/pet-gallery/chunks/threshold", defaultChunkThreshold); err != nil {
		return nil, err
	}
	if cfg.ChunkMax, err = intParam(p, "/pet-gallery/chunks/max", defaultChunkMax); err != nil {
		return nil, err
	}

	rawLabels, err := stringParam(p, "/pet-gallery/labels", defaultLabels)
	if err != nil {
		return nil, err
	}
	for _, label := range strings.Split(rawLabels, ",") {
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" {
			cfg.Labels = append(cfg.Labels, label)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("invalid port %q: %w", c.ServerPort, err))
	}
	if len(c.Labels) == 0 {
		return apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("label set is empty"))
	}
	if c.ChunkThreshold < 1 {
		return apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("chunk threshold must be at least 1, got %d", c.ChunkThreshold))
	}
	if c.ChunkMax < c.ChunkThreshold {
		return apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("chunk max %d below threshold %d", c.ChunkMax, c.ChunkThreshold))
	}
	if c.MaxUploadSize <= 0 {
		return apperr.Wrap(apperr.Config, "configuration unavailable",
			fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadSize))
	}
	return nil
}

func (c *Config) IsAllowedLabel(label string) bool {
	return slices.Contains(c.Labels, label)
}
