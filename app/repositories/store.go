// Package repositories persists customers, categories and orders.
//
// Store is the single data-access seam used by the services. GormStore backs
// it with a SQL database; MemoryStore keeps everything in process and is what
// the service tests run against. CachedStore decorates either with a cache
// for the category list.
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/app/models"
)

// OrderSequence names the sequence that numbers orders.
const OrderSequence = "orders"

// Sequence is a named monotonically increasing counter.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}

func (Sequence) TableName() string { return "sequences" }

// Store is the persistence boundary. Lookups of missing records return a
// *models.NotFoundError. Implementations are safe for concurrent use.
type Store interface {
	// Customers
	GetCustomer(ctx context.Context, code string) (models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	CustomerCodeTaken(ctx context.Context, code string) (bool, error)
	PutCustomer(ctx context.Context, c models.Customer) error
	// RecordCustomerOrder bumps TotalOrders and moves LastOrderDate forward
	// to orderDate, atomically.
	RecordCustomerOrder(ctx context.Context, code string, orderDate time.Time) error
	CountCustomers(ctx context.Context) (int, error)

	// Categories
	GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (models.Category, error)
	// ListCategories returns categories by name with ItemCount filled in.
	ListCategories(ctx context.Context) ([]models.Category, error)
	PutCategory(ctx context.Context, c models.Category) error
	// DeleteCategory removes the category and its catalog items.
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	PutCatalogItem(ctx context.Context, item models.CatalogItem) error
	ListCatalogItems(ctx context.Context, categoryID uuid.UUID) ([]models.CatalogItem, error)
	CountCatalogItems(ctx context.Context, categoryID uuid.UUID) (int, error)
	// CategoryInUse reports whether any order line item references the category.
	CategoryInUse(ctx context.Context, categoryID uuid.UUID) (bool, error)

	// Orders
	GetOrder(ctx context.Context, orderID string) (models.Order, error)
	// ListOrders returns every order, newest order date first.
	ListOrders(ctx context.Context) ([]models.Order, error)
	// ListOrdersBetween returns orders dated in [start, end), oldest first.
	ListOrdersBetween(ctx context.Context, start, end time.Time) ([]models.Order, error)
	// CreateOrder inserts the order and its line items together.
	CreateOrder(ctx context.Context, o models.Order) error
	// UpdateOrderStatus moves orderID from one status to another and fails
	// with models.ErrConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error
	UpdateOrderTotal(ctx context.Context, orderID string, amount decimal.Decimal) error
	NextOrderSequence(ctx context.Context) (int64, error)
	// SetOrderSequence moves the order sequence forward to at least v.
	SetOrderSequence(ctx context.Context, v int64) error

	// Atomic runs fn against a transactional view of the store. Nothing fn
	// writes is visible to others unless fn returns nil.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

func notFound(entity, key string) error {
	return &models.NotFoundError{Entity: entity, Key: key}
}
