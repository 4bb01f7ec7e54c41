package migrations

import (
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/migration"
)

func init() {
	migration.Register("20230401000002_create_orders_table", &CreateOrdersTable{})
}

// CreateOrdersTable creates orders, their line items and the order-number sequence.
type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Order{}, &models.LineItem{}, &repositories.Sequence{}); err != nil {
		return err
	}
	return db.Create(&repositories.Sequence{Name: repositories.OrderSequence, Value: 0}).Error
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&repositories.Sequence{}, &models.LineItem{}, &models.Order{})
}
