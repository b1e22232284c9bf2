package artifact

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	BlobTTL        time.Duration `yaml:"blob_ttl"`
	BlobMaxEntries int           `yaml:"blob_max_entries"`
	ListTTL        time.Duration `yaml:"list_ttl"`
	ListMaxEntries int           `yaml:"list_max_entries"`
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 512,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 128,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

// CachedStore is a read-through cache in front of a remote Store. Writes go
// to the origin first and refresh the cache on success.
type CachedStore struct {
	origin Store
	blobs  *expirable.LRU[string, []byte]
	lists  *expirable.LRU[string, []string]
	m      metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	return &CachedStore{
		origin: origin,
		blobs:  expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		lists:  expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, runID, path string, content []byte) error {
	s.m.originWrites.Add(1)
	if err := s.origin.Put(ctx, runID, path, content); err != nil {
		s.m.originWriteErr.Add(1)
		return err
	}
	s.blobs.Add(cacheKey(runID, path), append([]byte(nil), content...))
	s.lists.Remove(strings.TrimSpace(runID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, runID, path string) ([]byte, error) {
	key := cacheKey(runID, path)
	if raw, ok := s.blobs.Get(key); ok {
		s.m.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.m.blobMisses.Add(1)
	s.m.originReads.Add(1)

	raw, err := s.origin.Get(ctx, runID, path)
	if err != nil {
		s.m.originReadErr.Add(1)
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

// GetURL is not cached: presigned links expire on their own schedule.
func (s *CachedStore) GetURL(ctx context.Context, runID, path string) (string, error) {
	return s.origin.GetURL(ctx, runID, path)
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if list, ok := s.lists.Get(runID); ok {
		s.m.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.m.listMisses.Add(1)
	s.m.originReads.Add(1)

	list, err := s.origin.List(ctx, runID)
	if err != nil {
		s.m.originReadErr.Add(1)
		return nil, err
	}
	s.lists.Add(runID, append([]string(nil), list...))
	return list, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:       s.m.blobHits.Load(),
		BlobMisses:     s.m.blobMisses.Load(),
		ListHits:       s.m.listHits.Load(),
		ListMisses:     s.m.listMisses.Load(),
		OriginReads:    s.m.originReads.Load(),
		OriginWrites:   s.m.originWrites.Load(),
		OriginReadErr:  s.m.originReadErr.Load(),
		OriginWriteErr: s.m.originWriteErr.Load(),
	}
}

func cacheKey(runID, path string) string {
	return strings.TrimSpace(runID) + "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}
