package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/darzi-app/darzi/pkg/validate"
)

// DefaultUnit is the unit recorded when a measurement is entered without one.
const DefaultUnit = "inches"

// Measurement is a single named body dimension, in inches or cm.
type Measurement struct {
	Value float64 `json:"value" validate:"min=0"`
	Unit  string  `json:"unit"  validate:"nullable,in=inches|cm"`
}

// MeasurementSet maps a measurement name (chest, waist, ...) to its value.
type MeasurementSet map[string]Measurement

// Measurements holds the shirt and pant dimension sets taken at onboarding.
type Measurements struct {
	Shirt MeasurementSet `json:"shirt,omitempty"`
	Pant  MeasurementSet `json:"pant,omitempty"`
}

// ShirtFields and PantFields are the dimensions the onboarding form asks for.
var (
	ShirtFields = []string{"chest", "waist", "length", "shoulder"}
	PantFields  = []string{"waist", "length", "bottom"}
)

// Customer is a shop client. CustomerCode is assigned by the shop and never
// changes; orders refer to customers by it.
type Customer struct {
	ID            uuid.UUID    `gorm:"type:char(36);primaryKey"            json:"id"`
	Name          string       `gorm:"size:120;not null;index"             json:"name"`
	Phone         string       `gorm:"size:32;not null"                    json:"phone"`
	Email         string       `gorm:"size:255"                            json:"email"`
	CustomerCode  string       `gorm:"size:32;not null;uniqueIndex"        json:"customer_code"`
	Measurements  Measurements `gorm:"serializer:json;type:text"           json:"measurements"`
	LastOrderDate *time.Time   `                                           json:"last_order_date,omitempty"`
	TotalOrders   int          `gorm:"not null;default:0"                  json:"total_orders"`
	Active        bool         `gorm:"not null;default:true"               json:"active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CustomerInput is the onboarding form.
type CustomerInput struct {
	Name         string       `json:"name"          validate:"required,max=120"`
	Phone        string       `json:"phone"         validate:"required,phone"`
	Email        string       `json:"email"         validate:"nullable,email,max=255"`
	CustomerCode string       `json:"customer_code" validate:"required,code"`
	Measurements Measurements `json:"measurements"`
}

// CodeChecker reports whether a customer code is already in use.
type CodeChecker func(code string) (bool, error)

// NormalizeCode trims and upper-cases a customer code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCustomer validates in and returns a new active customer.
// taken may be nil when uniqueness is enforced elsewhere.
func NewCustomer(in CustomerInput, taken CodeChecker) (Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.CustomerCode = NormalizeCode(in.CustomerCode)

	errs := validate.Struct(in)
	for k, v := range measurementErrors(in.Measurements) {
		errs[k] = v
	}

	if _, bad := errs["customer_code"]; !bad && taken != nil {
		exists, err := taken(in.CustomerCode)
		if err != nil {
			return Customer{}, fmt.Errorf("models: check customer code: %w", err)
		}
		if exists {
			errs["customer_code"] = fmt.Sprintf("The customer code %s is already taken.", in.CustomerCode)
		}
	}
	if err := validationFrom(errs); err != nil {
		return Customer{}, err
	}

	return Customer{
		ID:           uuid.New(),
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		CustomerCode: in.CustomerCode,
		Measurements: in.Measurements.normalized(),
		Active:       true,
	}, nil
}

// SearchFields are matched by the query engine's text search.
func (c Customer) SearchFields() []string {
	return []string{c.Name, c.Phone, c.Email, c.CustomerCode}
}

// RecordOrder returns c updated for a newly placed order. A backdated order
// does not move LastOrderDate backwards.
func (c Customer) RecordOrder(orderDate time.Time) Customer {
	if c.LastOrderDate == nil || orderDate.After(*c.LastOrderDate) {
		d := orderDate
		c.LastOrderDate = &d
	}
	c.TotalOrders++
	return c
}

// WithMeasurements returns c with m replacing its measurements.
func (c Customer) WithMeasurements(m Measurements) (Customer, error) {
	if err := validationFrom(measurementErrors(m)); err != nil {
		return c, err
	}
	c.Measurements = m.normalized()
	return c, nil
}

func measurementErrors(m Measurements) validate.Errors {
	errs := validate.Errors{}
	check := func(kind string, set MeasurementSet) {
		for name, v := range set {
			if strings.TrimSpace(name) == "" {
				errs["measurements."+kind] = "Measurement names must not be blank."
				continue
			}
			for field, msg := range validate.Struct(v) {
				if field == "value" {
					msg = fmt.Sprintf("The %s %s measurement must not be negative.", kind, name)
				}
				errs["measurements."+kind+"."+name] = msg
			}
		}
	}
	check("shirt", m.Shirt)
	check("pant", m.Pant)
	return errs
}

// normalized lower-cases names and fills in the default unit.
func (m Measurements) normalized() Measurements {
	norm := func(set MeasurementSet) MeasurementSet {
		if len(set) == 0 {
			return nil
		}
		out := make(MeasurementSet, len(set))
		for name, v := range set {
			if strings.TrimSpace(v.Unit) == "" {
				v.Unit = DefaultUnit
			}
			out[strings.ToLower(strings.TrimSpace(name))] = v
		}
		return out
	}
	return Measurements{Shirt: norm(m.Shirt), Pant: norm(m.Pant)}
}
