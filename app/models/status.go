package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// OrderStatus is an order's lifecycle stage.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPaid      OrderStatus = "Paid"
	StatusDelivered OrderStatus = "Delivered"
)

// Statuses lists every status in lifecycle order.
var Statuses = []OrderStatus{StatusPending, StatusPaid, StatusDelivered}

// ParseStatus resolves s case-insensitively ("paid", "PAID" → Paid).
func ParseStatus(s string) (OrderStatus, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", NewValidationError("status", fmt.Sprintf("Unknown order status %q.", s))
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Next returns the immediate successor of s. Delivered is terminal.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusPending:
		return StatusPaid, true
	case StatusPaid:
		return StatusDelivered, true
	default:
		return "", false
	}
}

// CanTransition reports whether to is the immediate successor of s.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	_, ok := s.Next()
	return !ok
}

func (s OrderStatus) String() string { return string(s) }

// Value stores the status as its display string.
func (s OrderStatus) Value() (driver.Value, error) { return string(s), nil }

// Scan reads a stored status, normalising its case.
func (s *OrderStatus) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = ""
		return nil
	default:
		return fmt.Errorf("models: cannot scan %T into OrderStatus", src)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
