package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/darzi-app/darzi/pkg/validate"
)

// PaletteColor is one of the tag colors offered when creating a category.
type PaletteColor struct {
	Name  string
	Value string
}

// Palette is the set of color tags. Colors are cosmetic only.
var Palette = []PaletteColor{
	{"Blue", "#3b82f6"},
	{"Green", "#10b981"},
	{"Orange", "#f97316"},
	{"Purple", "#8b5cf6"},
	{"Pink", "#ec4899"},
	{"Rose", "#f43f5e"},
}

// Category is a garment type (Shirt, Pant, Kurta, ...).
// ItemCount is derived from the catalog items tagged with it.
type Category struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"     json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:500"                     json:"description"`
	ColorTag    string    `gorm:"size:7"                       json:"color"`
	ItemCount   int       `gorm:"-"                            json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CatalogItem is a product offered under a category.
type CatalogItem struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"   json:"id"`
	Name       string    `gorm:"size:150;not null"          json:"name"`
	CategoryID uuid.UUID `gorm:"type:char(36);not null;index" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CategoryInput is the create/edit form.
type CategoryInput struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	ColorTag    string `json:"color"       validate:"nullable,hexcolor"`
}

// NameChecker reports whether a category name is already in use.
type NameChecker func(name string) (bool, error)

// NewCategory validates in and returns a new category.
func NewCategory(in CategoryInput, taken NameChecker) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ColorTag = strings.ToLower(strings.TrimSpace(in.ColorTag))

	errs := validate.Struct(in)
	if _, bad := errs["name"]; !bad && taken != nil {
		exists, err := taken(in.Name)
		if err != nil {
			return Category{}, fmt.Errorf("models: check category name: %w", err)
		}
		if exists {
			errs["name"] = fmt.Sprintf("A category named %s already exists.", in.Name)
		}
	}
	if err := validationFrom(errs); err != nil {
		return Category{}, err
	}

	if in.ColorTag == "" {
		in.ColorTag = Palette[0].Value
	}
	return Category{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		ColorTag:    in.ColorTag,
	}, nil
}

// Apply returns c edited with in. Renames are checked against taken.
func (c Category) Apply(in CategoryInput, taken NameChecker) (Category, error) {
	edited, err := NewCategory(in, func(name string) (bool, error) {
		if strings.EqualFold(name, c.Name) || taken == nil {
			return false, nil
		}
		return taken(name)
	})
	if err != nil {
		return c, err
	}
	edited.ID = c.ID
	edited.CreatedAt = c.CreatedAt
	edited.ItemCount = c.ItemCount
	return edited, nil
}

// SearchFields are matched by the query engine's text search.
func (c Category) SearchFields() []string {
	return []string{c.Name, c.Description}
}

// NewCatalogItem validates and builds an item under category.
func NewCatalogItem(name string, category uuid.UUID) (CatalogItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CatalogItem{}, NewValidationError("name", "The name field is required.")
	}
	return CatalogItem{ID: uuid.New(), Name: name, CategoryID: category}, nil
}
