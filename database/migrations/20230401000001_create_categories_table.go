package migrations

import (
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/pkg/migration"
)

func init() {
	migration.Register("20230401000001_create_categories_table", &CreateCategoriesTable{})
}

// CreateCategoriesTable also creates catalog_items, which only exist under a category.
type CreateCategoriesTable struct{}

func (m *CreateCategoriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Category{}, &models.CatalogItem{})
}

func (m *CreateCategoriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.CatalogItem{}, &models.Category{})
}
