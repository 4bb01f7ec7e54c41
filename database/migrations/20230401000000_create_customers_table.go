package migrations

import (
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/pkg/migration"
)

func init() {
	migration.Register("20230401000000_create_customers_table", &CreateCustomersTable{})
}

type CreateCustomersTable struct{}

func (m *CreateCustomersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Customer{})
}

func (m *CreateCustomersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Customer{})
}
