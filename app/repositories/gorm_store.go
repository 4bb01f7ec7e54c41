package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/app/models"
)

// GormStore implements Store on a gorm connection. Order dates are stored in
// UTC so range queries compare consistently on every driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db. The schema must already be migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// ─── Customers ──────────────────────────────────────────────────────────────

func (s *GormStore) GetCustomer(ctx context.Context, code string) (models.Customer, error) {
	var c models.Customer
	err := s.conn(ctx).Where("customer_code = ?", models.NormalizeCode(code)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Customer{}, notFound("customer", code)
	}
	return c, err
}

func (s *GormStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	err := s.conn(ctx).Order("customer_code").Find(&out).Error
	return out, err
}

func (s *GormStore) CustomerCodeTaken(ctx context.Context, code string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Customer{}).
		Where("customer_code = ?", models.NormalizeCode(code)).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) PutCustomer(ctx context.Context, c models.Customer) error {
	db := s.conn(ctx)

	var prev models.Customer
	err := db.Where("id = ?", c.ID).First(&prev).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		msg := fmt.Sprintf("The customer code %s is already taken.", c.CustomerCode)
		taken, err := s.CustomerCodeTaken(ctx, c.CustomerCode)
		if err != nil {
			return err
		}
		if taken {
			return models.NewValidationError("customer_code", msg)
		}
		return duplicate(db.Create(&c).Error, "customer_code", msg)
	case err != nil:
		return err
	}

	if prev.CustomerCode != c.CustomerCode {
		return models.NewValidationError("customer_code", "The customer code cannot be changed.")
	}
	return db.Model(&prev).
		Select("name", "phone", "email", "measurements", "last_order_date", "total_orders", "active").
		Updates(&c).Error
}

func (s *GormStore) RecordCustomerOrder(ctx context.Context, code string, orderDate time.Time) error {
	res := s.conn(ctx).Model(&models.Customer{}).
		Where("customer_code = ?", models.NormalizeCode(code)).
		Updates(map[string]any{
			"total_orders": gorm.Expr("total_orders + 1"),
			"last_order_date": gorm.Expr(
				"CASE WHEN last_order_date IS NULL OR last_order_date < ? THEN ? ELSE last_order_date END",
				orderDate.UTC(), orderDate.UTC(),
			),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("customer", code)
	}
	return nil
}

func (s *GormStore) CountCustomers(ctx context.Context) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Customer{}).Count(&n).Error
	return int(n), err
}

// ─── Categories ─────────────────────────────────────────────────────────────

func (s *GormStore) GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error) {
	var c models.Category
	err := s.conn(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, notFound("category", id.String())
	}
	if err != nil {
		return models.Category{}, err
	}
	c.ItemCount, err = s.CountCatalogItems(ctx, c.ID)
	return c, err
}

func (s *GormStore) GetCategoryByName(ctx context.Context, name string) (models.Category, error) {
	var c models.Category
	err := s.conn(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, notFound("category", name)
	}
	if err != nil {
		return models.Category{}, err
	}
	c.ItemCount, err = s.CountCatalogItems(ctx, c.ID)
	return c, err
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := s.conn(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CategoryID uuid.UUID
		N          int
	}
	err := s.conn(ctx).Model(&models.CatalogItem{}).
		Select("category_id, COUNT(*) AS n").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]int, len(counts))
	for _, row := range counts {
		byID[row.CategoryID] = row.N
	}
	for i := range out {
		out[i].ItemCount = byID[out[i].ID]
	}
	return out, nil
}

func (s *GormStore) PutCategory(ctx context.Context, c models.Category) error {
	db := s.conn(ctx)
	msg := fmt.Sprintf("A category named %s already exists.", c.Name)

	var clash int64
	err := db.Model(&models.Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(c.Name), c.ID).
		Count(&clash).Error
	if err != nil {
		return err
	}
	if clash > 0 {
		return models.NewValidationError("name", msg)
	}

	var exists int64
	if err := db.Model(&models.Category{}).Where("id = ?", c.ID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return duplicate(db.Create(&c).Error, "name", msg)
	}
	err = db.Model(&models.Category{ID: c.ID}).
		Select("name", "description", "color_tag").
		Updates(&c).Error
	return duplicate(err, "name", msg)
}

func (s *GormStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.CatalogItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("category", id.String())
		}
		return nil
	})
}

func (s *GormStore) PutCatalogItem(ctx context.Context, item models.CatalogItem) error {
	var n int64
	if err := s.conn(ctx).Model(&models.Category{}).Where("id = ?", item.CategoryID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound("category", item.CategoryID.String())
	}
	return s.conn(ctx).Save(&item).Error
}

func (s *GormStore) ListCatalogItems(ctx context.Context, categoryID uuid.UUID) ([]models.CatalogItem, error) {
	var out []models.CatalogItem
	err := s.conn(ctx).Where("category_id = ?", categoryID).Order("name").Find(&out).Error
	return out, err
}

func (s *GormStore) CountCatalogItems(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.CatalogItem{}).Where("category_id = ?", categoryID).Count(&n).Error
	return int(n), err
}

func (s *GormStore) CategoryInUse(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.LineItem{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n > 0, err
}

// ─── Orders ─────────────────────────────────────────────────────────────────

func (s *GormStore) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	var o models.Order
	err := withItems(s.conn(ctx)).
		Where("order_id = ?", strings.ToUpper(strings.TrimSpace(orderID))).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, notFound("order", orderID)
	}
	return o, err
}

func (s *GormStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := withItems(s.conn(ctx)).Order("order_date DESC, order_id DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) ListOrdersBetween(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	var out []models.Order
	err := withItems(s.conn(ctx)).
		Where("order_date >= ? AND order_date < ?", start.UTC(), end.UTC()).
		Order("order_date, order_id").
		Find(&out).Error
	return out, err
}

func (s *GormStore) CreateOrder(ctx context.Context, o models.Order) error {
	o = o.Clone()
	o.OrderDate = o.OrderDate.UTC()
	for i := range o.Items {
		o.Items[i].OrderRef = o.ID
	}
	msg := fmt.Sprintf("Order %s already exists.", o.OrderID)

	var n int64
	if err := s.conn(ctx).Model(&models.Order{}).Where("order_id = ?", o.OrderID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return models.NewValidationError("order_id", msg)
	}
	return duplicate(s.conn(ctx).Create(&o).Error, "order_id", msg)
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	res := s.conn(ctx).Model(&models.Order{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return err
	}
	return models.ErrConflict
}

func (s *GormStore) UpdateOrderTotal(ctx context.Context, orderID string, amount decimal.Decimal) error {
	res := s.conn(ctx).Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Update("total_amount", amount)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("order", orderID)
	}
	return nil
}

func (s *GormStore) NextOrderSequence(ctx context.Context) (int64, error) {
	var next int64
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Sequence{}).Where("name = ?", OrderSequence).
			Update("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&Sequence{Name: OrderSequence, Value: 1}).Error; err != nil {
				return err
			}
		}
		var seq Sequence
		if err := tx.Where("name = ?", OrderSequence).First(&seq).Error; err != nil {
			return err
		}
		next = seq.Value
		return nil
	})
	return next, err
}

func (s *GormStore) SetOrderSequence(ctx context.Context, v int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var seq Sequence
		err := tx.Where("name = ?", OrderSequence).First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&Sequence{Name: OrderSequence, Value: v}).Error
		}
		if err != nil || seq.Value >= v {
			return err
		}
		return tx.Model(&Sequence{}).Where("name = ?", OrderSequence).Update("value", v).Error
	})
}

// duplicate turns a unique-key violation into a field validation error.
func duplicate(err error, field, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.NewValidationError(field, msg)
	}
	return err
}
