package services

import (
	"context"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/query"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/tracing"
)

// CustomerService onboards customers and maintains their measurements.
// Customers are never deleted, only deactivated.
type CustomerService struct {
	store repositories.Store
	opts  options
}

func NewCustomerService(store repositories.Store, opts ...Option) *CustomerService {
	return &CustomerService{store: store, opts: newOptions(opts)}
}

// Onboard validates in and stores a new active customer.
func (s *CustomerService) Onboard(ctx context.Context, in models.CustomerInput) (c models.Customer, err error) {
	ctx, span := tracing.Start(ctx, "customer.onboard", tracing.CustomerCode(in.CustomerCode))
	defer func() { tracing.End(span, err, models.ErrValidation) }()

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		created, err := models.NewCustomer(in, func(code string) (bool, error) {
			return tx.CustomerCodeTaken(ctx, code)
		})
		if err != nil {
			return err
		}
		if err := tx.PutCustomer(ctx, created); err != nil {
			return err
		}
		c = created
		return nil
	})
	if err != nil {
		return models.Customer{}, err
	}

	logger.WithCtx(ctx).Info("customer onboarded", "code", c.CustomerCode, "name", c.Name)
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, code string) (models.Customer, error) {
	return s.store.GetCustomer(ctx, code)
}

// UpdateMeasurements replaces the customer's measurement sets.
func (s *CustomerService) UpdateMeasurements(ctx context.Context, code string, m models.Measurements) (models.Customer, error) {
	return s.update(ctx, code, func(c models.Customer) (models.Customer, error) {
		return c.WithMeasurements(m)
	})
}

// Deactivate marks the customer inactive. Their order history is kept and
// deactivating twice is not an error.
func (s *CustomerService) Deactivate(ctx context.Context, code string) (models.Customer, error) {
	return s.setActive(ctx, code, false)
}

// Reactivate reverses Deactivate.
func (s *CustomerService) Reactivate(ctx context.Context, code string) (models.Customer, error) {
	return s.setActive(ctx, code, true)
}

func (s *CustomerService) setActive(ctx context.Context, code string, active bool) (models.Customer, error) {
	c, err := s.update(ctx, code, func(c models.Customer) (models.Customer, error) {
		c.Active = active
		return c, nil
	})
	if err == nil {
		logger.WithCtx(ctx).Info("customer status changed", "code", c.CustomerCode, "active", active)
	}
	return c, err
}

func (s *CustomerService) update(ctx context.Context, code string, fn func(models.Customer) (models.Customer, error)) (out models.Customer, err error) {
	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		c, err := tx.GetCustomer(ctx, code)
		if err != nil {
			return err
		}
		if c, err = fn(c); err != nil {
			return err
		}
		if err := tx.PutCustomer(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// List returns customers matching search, optionally only active ones.
func (s *CustomerService) List(ctx context.Context, search string, activeOnly bool) ([]models.Customer, error) {
	all, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, query.Search[models.Customer](search), query.Active(activeOnly)), nil
}
