// Package query filters and searches in-memory record lists.
//
// Everything here is pure: functions never mutate or reorder their input and
// never sort. A predicate whose parameter is empty (or "all") is inactive, and
// when no predicate is active Filter hands back the very slice it was given.
package query

import (
	"strings"

	"github.com/darzi-app/darzi/app/models"
)

// All is the filter value meaning "do not filter".
const All = "all"

// Predicate reports whether an item should be kept.
type Predicate[T any] func(T) bool

// Searchable is implemented by records that take part in text search.
type Searchable interface {
	SearchFields() []string
}

// Filter keeps the items that satisfy every non-nil predicate, preserving
// input order. With no active predicates, or an empty input, items itself is
// returned. When nothing matches the result is empty, not nil.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	active := preds[:0:0]
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 || len(items) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, p := range active {
			if !p(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}

// Search matches q as a case-insensitive substring of any search field.
// A blank query yields a nil (inactive) predicate.
func Search[T Searchable](q string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return nil
	}
	return func(item T) bool {
		for _, f := range item.SearchFields() {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}
}

func inactive(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// Status keeps orders whose status equals filter, ignoring case.
func Status(filter string) Predicate[models.OrderView] {
	if inactive(filter) {
		return nil
	}
	filter = strings.TrimSpace(filter)
	return func(v models.OrderView) bool {
		return strings.EqualFold(string(v.Order.Status), filter)
	}
}

// Category keeps orders with at least one line item in the named category.
func Category(name string) Predicate[models.OrderView] {
	if inactive(name) {
		return nil
	}
	name = strings.TrimSpace(name)
	return func(v models.OrderView) bool {
		for _, li := range v.Order.Items {
			if strings.EqualFold(v.CategoryName(li.CategoryID), name) {
				return true
			}
		}
		return false
	}
}

// Active keeps customers that have not been deactivated.
func Active(only bool) Predicate[models.Customer] {
	if !only {
		return nil
	}
	return func(c models.Customer) bool { return c.Active }
}

// OrderCriteria is the order-list filter bar.
type OrderCriteria struct {
	Search   string `json:"search"`
	Status   string `json:"status"`
	Category string `json:"category"`
}

// Predicates turns the criteria into predicates; inactive ones are nil.
func (c OrderCriteria) Predicates() []Predicate[models.OrderView] {
	return []Predicate[models.OrderView]{
		Search[models.OrderView](c.Search),
		Status(c.Status),
		Category(c.Category),
	}
}

// IsZero reports whether no criterion is active.
func (c OrderCriteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" && inactive(c.Status) && inactive(c.Category)
}

// Orders applies c to views.
func Orders(views []models.OrderView, c OrderCriteria) []models.OrderView {
	return Filter(views, c.Predicates()...)
}

// Customers searches by name, phone, email or customer code.
func Customers(customers []models.Customer, search string) []models.Customer {
	return Filter(customers, Search[models.Customer](search))
}

// Categories searches by name or description.
func Categories(categories []models.Category, search string) []models.Category {
	return Filter(categories, Search[models.Category](search))
}
