package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/pkg/cache"
	"github.com/darzi-app/darzi/pkg/logger"
)

// CategoriesKey is the cache key for the category list.
const CategoriesKey = "categories:all"

// CachedStore serves ListCategories from a cache and drops the entry on any
// write that can change it. Every other call goes straight to the wrapped
// store.
type CachedStore struct {
	Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedStore decorates next. A non-positive ttl keeps entries until
// they are invalidated.
func NewCachedStore(next Store, c cache.Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: next, cache: c, ttl: ttl}
}

func (s *CachedStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if s.cache.Get(ctx, CategoriesKey, &out) {
		return out, nil
	}
	out, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, CategoriesKey, out, s.ttl); err != nil {
		logger.WithCtx(ctx).Warn("cache: store categories", "error", err)
	}
	return out, nil
}

func (s *CachedStore) PutCategory(ctx context.Context, c models.Category) error {
	return s.invalidate(ctx, s.Store.PutCategory(ctx, c))
}

func (s *CachedStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.invalidate(ctx, s.Store.DeleteCategory(ctx, id))
}

func (s *CachedStore) PutCatalogItem(ctx context.Context, item models.CatalogItem) error {
	return s.invalidate(ctx, s.Store.PutCatalogItem(ctx, item))
}

// Atomic runs fn on the wrapped store's transaction and invalidates once
// it commits.
func (s *CachedStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.invalidate(ctx, s.Store.Atomic(ctx, fn))
}

func (s *CachedStore) invalidate(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if derr := s.cache.Del(ctx, CategoriesKey); derr != nil {
		logger.WithCtx(ctx).Warn("cache: invalidate categories", "error", derr)
	}
	return nil
}
