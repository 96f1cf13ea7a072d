package gallery_service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	mimemultipart "mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"pet-gallery/internal/gallery_server/chunkdir"
	"pet-gallery/internal/gallery_server/metastore"
	"pet-gallery/internal/gallery_server/metrics"
	"pet-gallery/pkg/config"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:     "13080",
		MaxUploadSize:  5 << 20,
		Labels:         []string{"cat", "dog"},
		ChunkThreshold: 2,
		ChunkMax:       5,
	}
}

func newTestService(t *testing.T, cfg *config.Config) (*GalleryService, *fakeObjectStore, *metastore.Store) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store, err := metastore.Open(filepath.Join(t.TempDir(), "meta.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	objects := newFakeObjectStore()
	service := New(objects, store, cfg, logger, metrics.New(prometheus.NewRegistry()))
	return service, objects, store
}

// buildUploadBody assembles a multipart body. An empty weight omits the
// field entirely.
func buildUploadBody(t *testing.T, label, weight string, image []byte) (body []byte, boundary string) {
	t.Helper()

	var buf bytes.Buffer
	writer := mimemultipart.NewWriter(&buf)

	if label != "" {
		require.NoError(t, writer.WriteField("label", label))
	}
	if weight != "" {
		require.NoError(t, writer.WriteField("weight", weight))
	}
	if image != nil {
		part, err := writer.CreateFormFile("img", "pet.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return buf.Bytes(), writer.Boundary()
}

type fakeObject struct {
	data        []byte
	contentType string
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	deleted []string
	putErr  error
	getErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string]fakeObject)}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = fakeObject{data: data, contentType: contentType}
	return nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, "", f.getErr
	}
	object, ok := f.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("object %q not found", key)
	}
	return object.data, object.contentType, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// flakyMetaStore delegates to a real store but can fail chosen operations.
type flakyMetaStore struct {
	MetadataStore
	appendErr error
}

func (f *flakyMetaStore) AppendItem(ctx context.Context, item chunkdir.Item) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.MetadataStore.AppendItem(ctx, item)
}

// countingMetaStore records how often the directory and the chunk range are
// read.
type countingMetaStore struct {
	MetadataStore
	directoryReads  int
	chunkRangeReads int
}

func (c *countingMetaStore) Directory(ctx context.Context, label string) (chunkdir.Directory, error) {
	c.directoryReads++
	return c.MetadataStore.Directory(ctx, label)
}

func (c *countingMetaStore) ChunkItems(ctx context.Context, label string, chunkID int) ([]chunkdir.Item, error) {
	c.chunkRangeReads++
	return c.MetadataStore.ChunkItems(ctx, label, chunkID)
}

// staticMetaStore serves a fixed directory and item set; the write-side
// operations are never used by selection.
type staticMetaStore struct {
	dir        chunkdir.Directory
	dirErr     error
	items      map[int][]chunkdir.Item
	chunkReads map[int]int
}

func (s *staticMetaStore) EnsureDirectory(context.Context, string) error { return nil }

func (s *staticMetaStore) Directory(context.Context, string) (chunkdir.Directory, error) {
	return s.dir, s.dirErr
}

func (s *staticMetaStore) CreateChunk(context.Context, string, int) (int, bool, error) {
	return 0, false, nil
}

func (s *staticMetaStore) IncrementVolume(context.Context, string, int, int) (int, bool, error) {
	return 0, false, nil
}

func (s *staticMetaStore) Deactivate(context.Context, string, int) error { return nil }

func (s *staticMetaStore) AppendItem(context.Context, chunkdir.Item) error { return nil }

func (s *staticMetaStore) ChunkItems(_ context.Context, _ string, chunkID int) ([]chunkdir.Item, error) {
	if s.chunkReads != nil {
		s.chunkReads[chunkID]++
	}
	return s.items[chunkID], nil
}
