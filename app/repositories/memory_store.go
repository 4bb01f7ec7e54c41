package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/app/models"
)

type memData struct {
	customers  map[string]models.Customer // by code
	categories map[uuid.UUID]models.Category
	items      map[uuid.UUID]models.CatalogItem
	orders     map[string]models.Order // by order id
	seq        int64
}

func newMemData() *memData {
	return &memData{
		customers:  map[string]models.Customer{},
		categories: map[uuid.UUID]models.Category{},
		items:      map[uuid.UUID]models.CatalogItem{},
		orders:     map[string]models.Order{},
	}
}

func (d *memData) clone() *memData {
	out := &memData{
		customers:  make(map[string]models.Customer, len(d.customers)),
		categories: make(map[uuid.UUID]models.Category, len(d.categories)),
		items:      make(map[uuid.UUID]models.CatalogItem, len(d.items)),
		orders:     make(map[string]models.Order, len(d.orders)),
		seq:        d.seq,
	}
	for k, v := range d.customers {
		out.customers[k] = v
	}
	for k, v := range d.categories {
		out.categories[k] = v
	}
	for k, v := range d.items {
		out.items[k] = v
	}
	for k, v := range d.orders {
		out.orders[k] = v.Clone()
	}
	return out
}

// MemoryStore keeps records in process memory. All access is serialized;
// Atomic works on a snapshot that replaces the live data only on success.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, data: newMemData(), now: time.Now}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Atomic runs fn on a copy of the data and swaps it in when fn succeeds.
// Other callers wait until fn returns.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: s.mu, data: s.data.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// ─── Customers ──────────────────────────────────────────────────────────────

func (s *MemoryStore) GetCustomer(_ context.Context, code string) (models.Customer, error) {
	defer s.lock()()
	c, ok := s.data.customers[models.NormalizeCode(code)]
	if !ok {
		return models.Customer{}, notFound("customer", code)
	}
	return c, nil
}

func (s *MemoryStore) ListCustomers(_ context.Context) ([]models.Customer, error) {
	defer s.lock()()
	out := make([]models.Customer, 0, len(s.data.customers))
	for _, c := range s.data.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerCode < out[j].CustomerCode })
	return out, nil
}

func (s *MemoryStore) CustomerCodeTaken(_ context.Context, code string) (bool, error) {
	defer s.lock()()
	_, ok := s.data.customers[models.NormalizeCode(code)]
	return ok, nil
}

func (s *MemoryStore) PutCustomer(_ context.Context, c models.Customer) error {
	defer s.lock()()
	for code, existing := range s.data.customers {
		if existing.ID == c.ID && code != c.CustomerCode {
			return models.NewValidationError("customer_code", "The customer code cannot be changed.")
		}
	}
	now := s.now()
	if prev, ok := s.data.customers[c.CustomerCode]; ok {
		if prev.ID != c.ID {
			return models.NewValidationError("customer_code", "The customer code "+c.CustomerCode+" is already taken.")
		}
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.data.customers[c.CustomerCode] = c
	return nil
}

func (s *MemoryStore) RecordCustomerOrder(_ context.Context, code string, orderDate time.Time) error {
	defer s.lock()()
	c, ok := s.data.customers[models.NormalizeCode(code)]
	if !ok {
		return notFound("customer", code)
	}
	c = c.RecordOrder(orderDate)
	c.UpdatedAt = s.now()
	s.data.customers[c.CustomerCode] = c
	return nil
}

func (s *MemoryStore) CountCustomers(_ context.Context) (int, error) {
	defer s.lock()()
	return len(s.data.customers), nil
}

// ─── Categories ─────────────────────────────────────────────────────────────

func (s *MemoryStore) withCount(c models.Category) models.Category {
	n := 0
	for _, it := range s.data.items {
		if it.CategoryID == c.ID {
			n++
		}
	}
	c.ItemCount = n
	return c
}

func (s *MemoryStore) GetCategory(_ context.Context, id uuid.UUID) (models.Category, error) {
	defer s.lock()()
	c, ok := s.data.categories[id]
	if !ok {
		return models.Category{}, notFound("category", id.String())
	}
	return s.withCount(c), nil
}

func (s *MemoryStore) GetCategoryByName(_ context.Context, name string) (models.Category, error) {
	defer s.lock()()
	for _, c := range s.data.categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return s.withCount(c), nil
		}
	}
	return models.Category{}, notFound("category", name)
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	defer s.lock()()
	out := make([]models.Category, 0, len(s.data.categories))
	for _, c := range s.data.categories {
		out = append(out, s.withCount(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) PutCategory(_ context.Context, c models.Category) error {
	defer s.lock()()
	for _, other := range s.data.categories {
		if other.ID != c.ID && strings.EqualFold(other.Name, c.Name) {
			return models.NewValidationError("name", "A category named "+c.Name+" already exists.")
		}
	}
	now := s.now()
	if prev, ok := s.data.categories[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.ItemCount = 0
	s.data.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.categories[id]; !ok {
		return notFound("category", id.String())
	}
	for itemID, it := range s.data.items {
		if it.CategoryID == id {
			delete(s.data.items, itemID)
		}
	}
	delete(s.data.categories, id)
	return nil
}

func (s *MemoryStore) PutCatalogItem(_ context.Context, item models.CatalogItem) error {
	defer s.lock()()
	if _, ok := s.data.categories[item.CategoryID]; !ok {
		return notFound("category", item.CategoryID.String())
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	s.data.items[item.ID] = item
	return nil
}

func (s *MemoryStore) ListCatalogItems(_ context.Context, categoryID uuid.UUID) ([]models.CatalogItem, error) {
	defer s.lock()()
	var out []models.CatalogItem
	for _, it := range s.data.items {
		if it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CountCatalogItems(_ context.Context, categoryID uuid.UUID) (int, error) {
	defer s.lock()()
	return s.withCount(models.Category{ID: categoryID}).ItemCount, nil
}

func (s *MemoryStore) CategoryInUse(_ context.Context, categoryID uuid.UUID) (bool, error) {
	defer s.lock()()
	for _, o := range s.data.orders {
		for _, li := range o.Items {
			if li.CategoryID == categoryID {
				return true, nil
			}
		}
	}
	return false, nil
}

// ─── Orders ─────────────────────────────────────────────────────────────────

func (s *MemoryStore) GetOrder(_ context.Context, orderID string) (models.Order, error) {
	defer s.lock()()
	o, ok := s.data.orders[strings.ToUpper(strings.TrimSpace(orderID))]
	if !ok {
		return models.Order{}, notFound("order", orderID)
	}
	return o.Clone(), nil
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]models.Order, error) {
	defer s.lock()()
	out := make([]models.Order, 0, len(s.data.orders))
	for _, o := range s.data.orders {
		out = append(out, o.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListOrdersBetween(_ context.Context, start, end time.Time) ([]models.Order, error) {
	defer s.lock()()
	w := models.Window{Start: start, End: end}
	var out []models.Order
	for _, o := range s.data.orders {
		if w.Contains(o.OrderDate) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.Before(out[j].OrderDate)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, o models.Order) error {
	defer s.lock()()
	if o.OrderID == "" {
		return models.NewValidationError("order_id", "The order_id field is required.")
	}
	if _, dup := s.data.orders[o.OrderID]; dup {
		return models.NewValidationError("order_id", "Order "+o.OrderID+" already exists.")
	}
	now := s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	s.data.orders[o.OrderID] = o.Clone()
	return nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, from, to models.OrderStatus) error {
	defer s.lock()()
	o, ok := s.data.orders[orderID]
	if !ok {
		return notFound("order", orderID)
	}
	if o.Status != from {
		return models.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = s.now()
	s.data.orders[orderID] = o
	return nil
}

func (s *MemoryStore) UpdateOrderTotal(_ context.Context, orderID string, amount decimal.Decimal) error {
	defer s.lock()()
	o, ok := s.data.orders[orderID]
	if !ok {
		return notFound("order", orderID)
	}
	o.TotalAmount = amount
	o.UpdatedAt = s.now()
	s.data.orders[orderID] = o
	return nil
}

func (s *MemoryStore) NextOrderSequence(_ context.Context) (int64, error) {
	defer s.lock()()
	s.data.seq++
	return s.data.seq, nil
}

func (s *MemoryStore) SetOrderSequence(_ context.Context, v int64) error {
	defer s.lock()()
	if v > s.data.seq {
		s.data.seq = v
	}
	return nil
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].OrderID > orders[j].OrderID
	})
}
