package persist

import (
	"context"

	"pocketspend/internal/cache"
)

// CachedStorage fronts another Storage with an LRU cache. Writes go
// through to the inner storage before the cache is updated.
type CachedStorage struct {
	inner Storage
	cache *cache.LRUCache[[]byte]
}

var _ Storage = (*CachedStorage)(nil)

func NewCachedStorage(inner Storage, c *cache.LRUCache[[]byte]) *CachedStorage {
	return &CachedStorage{inner: inner, cache: c}
}

func (s *CachedStorage) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return append([]byte(nil), v...), true, nil
	}
	v, ok, err := s.inner.GetItem(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	s.cache.Set(key, append([]byte(nil), v...))
	return v, true, nil
}

func (s *CachedStorage) SetItem(ctx context.Context, key string, value []byte) error {
	if err := s.inner.SetItem(ctx, key, value); err != nil {
		s.cache.Delete(key)
		return err
	}
	s.cache.Set(key, append([]byte(nil), value...))
	return nil
}

func (s *CachedStorage) RemoveItem(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return s.inner.RemoveItem(ctx, key)
}

func (s *CachedStorage) Close() error {
	return s.inner.Close()
}
