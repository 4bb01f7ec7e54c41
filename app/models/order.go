package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/pkg/validate"
)

// LineItem is a (category, quantity) pair within an order, priced by the caller.
type LineItem struct {
	ID         uuid.UUID       `gorm:"type:char(36);primaryKey"          json:"id"`
	OrderRef   uuid.UUID       `gorm:"type:char(36);not null;index"      json:"-"`
	Position   int             `gorm:"not null"                          json:"position"`
	CategoryID uuid.UUID       `gorm:"type:char(36);not null;index"      json:"category_id"`
	Quantity   int             `gorm:"not null"                          json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"       json:"unit_price"`
}

// Subtotal is Quantity × UnitPrice.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is a customer's garment order. It refers to its customer by code and
// to categories by ID so editing either never rewrites order history.
type Order struct {
	ID           uuid.UUID       `gorm:"type:char(36);primaryKey"                 json:"id"`
	OrderID      string          `gorm:"size:32;not null;uniqueIndex"             json:"order_id"`
	CustomerCode string          `gorm:"size:32;not null;index"                   json:"customer_code"`
	Items        []LineItem      `gorm:"foreignKey:OrderRef;constraint:OnDelete:CASCADE" json:"items"`
	Instructions string          `gorm:"type:text"                                json:"instructions"`
	Status       OrderStatus     `gorm:"size:16;not null;index"                   json:"status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"              json:"total_amount"`
	OrderDate    time.Time       `gorm:"not null;index"                           json:"order_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LineItemInput is one row of the new-order form.
type LineItemInput struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Quantity   int             `json:"quantity"   validate:"gte=1,lte=999"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// OrderInput is the new-order form.
type OrderInput struct {
	CustomerCode string          `json:"customer_code" validate:"required"`
	Items        []LineItemInput `json:"items"         validate:"required"`
	Instructions string          `json:"instructions"  validate:"max=2000"`
	OrderDate    time.Time       `json:"order_date"`
}

// CategoryResolver reports whether a category with the given ID exists.
type CategoryResolver func(id uuid.UUID) (bool, error)

// NewOrder validates in and returns a Pending order whose total is the sum of
// its line subtotals. OrderID is left empty for the caller to assign.
func NewOrder(in OrderInput, categories CategoryResolver) (Order, error) {
	in.CustomerCode = NormalizeCode(in.CustomerCode)
	in.Instructions = strings.TrimSpace(in.Instructions)

	errs := validate.Struct(in)
	if _, bad := errs["items"]; bad {
		errs["items"] = "An order needs at least one line item."
	}
	if in.OrderDate.IsZero() {
		errs["order_date"] = "The order_date field is required."
	}

	seen := map[uuid.UUID]bool{}
	for i, item := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		for k, v := range validate.Struct(item) {
			errs[prefix+k] = v
		}
		if item.UnitPrice.IsNegative() {
			errs[prefix+"unit_price"] = "The unit_price must not be negative."
		}
		if item.CategoryID == uuid.Nil {
			errs[prefix+"category_id"] = "The category_id field is required."
			continue
		}
		if categories == nil || seen[item.CategoryID] {
			continue
		}
		ok, err := categories(item.CategoryID)
		if err != nil {
			return Order{}, fmt.Errorf("models: resolve category: %w", err)
		}
		if !ok {
			errs[prefix+"category_id"] = fmt.Sprintf("Category %s does not exist.", item.CategoryID)
			continue
		}
		seen[item.CategoryID] = true
	}
	if err := validationFrom(errs); err != nil {
		return Order{}, err
	}

	o := Order{
		ID:           uuid.New(),
		CustomerCode: in.CustomerCode,
		Instructions: in.Instructions,
		Status:       StatusPending,
		OrderDate:    in.OrderDate,
		TotalAmount:  decimal.Zero,
	}
	for i, item := range in.Items {
		li := LineItem{
			ID:         uuid.New(),
			OrderRef:   o.ID,
			Position:   i,
			CategoryID: item.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
		o.Items = append(o.Items, li)
		o.TotalAmount = o.TotalAmount.Add(li.Subtotal())
	}
	if o.TotalAmount.IsNegative() {
		return Order{}, NewValidationError("total_amount", "The total_amount must not be negative.")
	}
	return o, nil
}

// Transition moves o to target. Reaching the current status again is a
// no-op success so callers can retry safely. Anything other than the
// immediate successor is rejected and o is returned unchanged.
func (o Order) Transition(target OrderStatus) (Order, error) {
	if st, err := ParseStatus(string(target)); err == nil {
		target = st
	}
	if o.Status == target {
		return o, nil
	}
	if !o.Status.CanTransition(target) {
		return o, &InvalidTransitionError{OrderID: o.OrderID, From: o.Status, To: target}
	}
	out := o.Clone()
	out.Status = target
	return out, nil
}

// WithTotal is the explicit price-adjustment path.
func (o Order) WithTotal(amount decimal.Decimal) (Order, error) {
	if amount.IsNegative() {
		return o, NewValidationError("total_amount", "The total_amount must not be negative.")
	}
	out := o.Clone()
	out.TotalAmount = amount
	return out, nil
}

// Clone returns a copy of o that shares no line-item storage.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]LineItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// Units is the total garment count across line items.
func (o Order) Units() int {
	n := 0
	for _, li := range o.Items {
		n += li.Quantity
	}
	return n
}

// FormatOrderID renders a sequence number as e.g. ORD-007.
func FormatOrderID(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// OrderView joins an order with the display names of what it references.
// The query engine and reports work on views; orders themselves stay
// reference-only.
type OrderView struct {
	Order         Order
	CustomerName  string
	CategoryNames map[uuid.UUID]string
}

// SearchFields are matched by the query engine's text search.
func (v OrderView) SearchFields() []string {
	return []string{v.CustomerName, v.Order.OrderID}
}

// CategoryName resolves a line item's category, falling back to its ID.
func (v OrderView) CategoryName(id uuid.UUID) string {
	if name, ok := v.CategoryNames[id]; ok {
		return name
	}
	return id.String()
}

// ItemSummary renders the line items as "2×Shirt, 1×Pant".
func (v OrderView) ItemSummary() string {
	parts := make([]string, 0, len(v.Order.Items))
	for _, li := range v.Order.Items {
		parts = append(parts, fmt.Sprintf("%d×%s", li.Quantity, v.CategoryName(li.CategoryID)))
	}
	return strings.Join(parts, ", ")
}
