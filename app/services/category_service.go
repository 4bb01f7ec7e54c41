package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/query"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/tracing"
)

// CategoryService manages garment categories and their catalog items.
type CategoryService struct {
	store repositories.Store
}

func NewCategoryService(store repositories.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) Create(ctx context.Context, in models.CategoryInput) (c models.Category, err error) {
	ctx, span := tracing.Start(ctx, "category.create")
	defer func() { tracing.End(span, err, models.ErrValidation) }()

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		created, err := models.NewCategory(in, nameTaken(ctx, tx))
		if err != nil {
			return err
		}
		if err := tx.PutCategory(ctx, created); err != nil {
			return err
		}
		c = created
		return nil
	})
	if err != nil {
		return models.Category{}, err
	}
	logger.WithCtx(ctx).Info("category created", "id", c.ID, "name", c.Name)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, in models.CategoryInput) (c models.Category, err error) {
	ctx, span := tracing.Start(ctx, "category.update", tracing.Category(id.String()))
	defer func() { tracing.End(span, err, models.ErrValidation, models.ErrNotFound) }()

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		current, err := tx.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		edited, err := current.Apply(in, nameTaken(ctx, tx))
		if err != nil {
			return err
		}
		if err := tx.PutCategory(ctx, edited); err != nil {
			return err
		}
		c = edited
		return nil
	})
	return c, err
}

// Delete removes a category. Categories referenced by any order are never
// deleted. Catalog items block deletion unless cascade is set, in which
// case they are removed with it.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID, cascade bool) (err error) {
	ctx, span := tracing.Start(ctx, "category.delete", tracing.Category(id.String()))
	defer func() { tracing.End(span, err, models.ErrValidation, models.ErrNotFound) }()

	var name string
	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		c, err := tx.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		name = c.Name

		inUse, err := tx.CategoryInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return models.NewValidationError("category",
				fmt.Sprintf("Category %s is used by existing orders and cannot be deleted.", c.Name))
		}
		if c.ItemCount > 0 && !cascade {
			return models.NewValidationError("category",
				fmt.Sprintf("Category %s still has %d catalog items.", c.Name, c.ItemCount))
		}
		return tx.DeleteCategory(ctx, id)
	})
	if err == nil {
		logger.WithCtx(ctx).Info("category deleted", "id", id, "name", name, "cascade", cascade)
	}
	return err
}

// AddItem adds a catalog item under the category.
func (s *CategoryService) AddItem(ctx context.Context, categoryID uuid.UUID, name string) (models.CatalogItem, error) {
	item, err := models.NewCatalogItem(name, categoryID)
	if err != nil {
		return models.CatalogItem{}, err
	}
	if err := s.store.PutCatalogItem(ctx, item); err != nil {
		return models.CatalogItem{}, err
	}
	return item, nil
}

func (s *CategoryService) Items(ctx context.Context, categoryID uuid.UUID) ([]models.CatalogItem, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.ListCatalogItems(ctx, categoryID)
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// Resolve looks a category up by ID or, failing that, by name.
func (s *CategoryService) Resolve(ctx context.Context, ref string) (models.Category, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return s.store.GetCategory(ctx, id)
	}
	return s.store.GetCategoryByName(ctx, ref)
}

// List returns categories matching search, by name.
func (s *CategoryService) List(ctx context.Context, search string) ([]models.Category, error) {
	all, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return query.Categories(all, search), nil
}

func nameTaken(ctx context.Context, store repositories.Store) models.NameChecker {
	return func(name string) (bool, error) {
		_, err := store.GetCategoryByName(ctx, name)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}
