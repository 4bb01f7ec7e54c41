package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/query"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/metrics"
	"github.com/darzi-app/darzi/pkg/tracing"
)

// OrderService creates orders and moves them through Pending → Paid → Delivered.
type OrderService struct {
	store    repositories.Store
	notifier Notifier
	opts     options
}

func NewOrderService(store repositories.Store, notifier Notifier, opts ...Option) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{store: store, notifier: notifier, opts: newOptions(opts)}
}

// Create validates in, numbers the order and stores it Pending. The
// customer's order count and last order date are updated in the same
// transaction. An order without a date is dated now.
func (s *OrderService) Create(ctx context.Context, in models.OrderInput) (order models.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.create", tracing.CustomerCode(in.CustomerCode))
	defer func() { tracing.End(span, err, models.ErrValidation, models.ErrNotFound) }()

	if in.OrderDate.IsZero() {
		in.OrderDate = s.opts.clock()
	}

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		o, err := models.NewOrder(in, categoryExists(ctx, tx))
		if err != nil {
			return err
		}

		cust, err := tx.GetCustomer(ctx, o.CustomerCode)
		if err != nil {
			return err
		}
		if !cust.Active {
			return models.NewValidationError("customer_code",
				fmt.Sprintf("Customer %s is inactive.", cust.CustomerCode))
		}

		seq, err := tx.NextOrderSequence(ctx)
		if err != nil {
			return fmt.Errorf("services: next order number: %w", err)
		}
		o.OrderID = models.FormatOrderID(s.opts.orderPrefix, seq)

		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.RecordCustomerOrder(ctx, o.CustomerCode, o.OrderDate); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("order created",
		"order_id", order.OrderID,
		"customer", order.CustomerCode,
		"items", len(order.Items),
		"total", order.TotalAmount.StringFixed(2),
	)
	return order, nil
}

// Transition moves orderID to target. Reaching the status the order already
// has succeeds without touching the store or the notifier.
func (s *OrderService) Transition(ctx context.Context, orderID string, target models.OrderStatus) (order models.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.transition", tracing.OrderID(orderID))
	defer func() {
		tracing.End(span, err, models.ErrValidation, models.ErrNotFound, models.ErrInvalidTransition)
	}()

	if target, err = models.ParseStatus(string(target)); err != nil {
		return models.Order{}, err
	}
	span.SetAttributes(tracing.StatusTo(string(target)))

	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	span.SetAttributes(tracing.StatusFrom(string(current.Status)))

	next, err := current.Transition(target)
	if err != nil {
		metrics.OrderTransitionsRejected.Inc()
		return current, err
	}
	if next.Status == current.Status {
		return current, nil
	}

	if err := s.store.UpdateOrderStatus(ctx, current.OrderID, current.Status, next.Status); err != nil {
		if !errors.Is(err, models.ErrConflict) {
			return current, err
		}
		// Someone else moved the order first.
		latest, gerr := s.store.GetOrder(ctx, orderID)
		if gerr != nil {
			return current, gerr
		}
		if latest.Status == target {
			return latest, nil
		}
		metrics.OrderTransitionsRejected.Inc()
		return latest, &models.InvalidTransitionError{OrderID: latest.OrderID, From: latest.Status, To: target}
	}

	metrics.OrderTransitions.WithLabelValues(string(current.Status), string(next.Status)).Inc()
	logger.WithCtx(ctx).Info("order transitioned",
		"order_id", next.OrderID,
		"from", current.Status,
		"to", next.Status,
	)

	ev := TransitionEvent{
		OrderID:      next.OrderID,
		CustomerCode: next.CustomerCode,
		From:         current.Status,
		To:           next.Status,
		Total:        next.TotalAmount,
		At:           s.opts.clock(),
	}
	notify(ctx, EventOrderTransitioned, func() error { return s.notifier.OrderTransitioned(ctx, ev) })
	return next, nil
}

// Advance moves orderID to the status after its current one.
func (s *OrderService) Advance(ctx context.Context, orderID string) (models.Order, error) {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	next, ok := current.Status.Next()
	if !ok {
		metrics.OrderTransitionsRejected.Inc()
		return current, models.NewValidationError("status", fmt.Sprintf("Order %s is already %s.", current.OrderID, current.Status))
	}
	return s.Transition(ctx, orderID, next)
}

// AdjustPrice replaces an order's total. It is the only way to change a
// total after creation.
func (s *OrderService) AdjustPrice(ctx context.Context, orderID string, amount decimal.Decimal, reason string) (order models.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.adjust_price", tracing.OrderID(orderID))
	defer func() { tracing.End(span, err, models.ErrValidation, models.ErrNotFound) }()

	var previous decimal.Decimal
	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		current, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		adjusted, err := current.WithTotal(amount)
		if err != nil {
			return err
		}
		if err := tx.UpdateOrderTotal(ctx, adjusted.OrderID, adjusted.TotalAmount); err != nil {
			return err
		}
		previous, order = current.TotalAmount, adjusted
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	logger.WithCtx(ctx).Info("order price adjusted",
		"order_id", order.OrderID,
		"from", previous.StringFixed(2),
		"to", order.TotalAmount.StringFixed(2),
		"reason", strings.TrimSpace(reason),
	)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, orderID string) (models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// List returns every order, newest first.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.store.ListOrders(ctx)
}

// View joins a single order with its customer and category names.
func (s *OrderService) View(ctx context.Context, orderID string) (models.OrderView, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.OrderView{}, err
	}
	views, err := s.viewsOf(ctx, []models.Order{o})
	if err != nil {
		return models.OrderView{}, err
	}
	return views[0], nil
}

// Views returns every order joined with display names, newest first.
func (s *OrderService) Views(ctx context.Context) ([]models.OrderView, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return s.viewsOf(ctx, orders)
}

// Search applies c to the order views.
func (s *OrderService) Search(ctx context.Context, c query.OrderCriteria) (views []models.OrderView, err error) {
	ctx, span := tracing.Start(ctx, "order.search")
	defer func() {
		span.SetAttributes(tracing.ResultCount(len(views)))
		tracing.End(span, err)
	}()

	all, err := s.Views(ctx)
	if err != nil {
		return nil, err
	}
	return query.Orders(all, c), nil
}

func (s *OrderService) viewsOf(ctx context.Context, orders []models.Order) ([]models.OrderView, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.CustomerCode] = c.Name
	}

	categoryNames, err := categoryNameIndex(ctx, s.store)
	if err != nil {
		return nil, err
	}

	views := make([]models.OrderView, len(orders))
	for i, o := range orders {
		views[i] = models.OrderView{
			Order:         o,
			CustomerName:  names[o.CustomerCode],
			CategoryNames: categoryNames,
		}
	}
	return views, nil
}

func categoryNameIndex(ctx context.Context, store repositories.Store) (map[uuid.UUID]string, error) {
	cats, err := store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		out[c.ID] = c.Name
	}
	return out, nil
}

func categoryExists(ctx context.Context, store repositories.Store) models.CategoryResolver {
	return func(id uuid.UUID) (bool, error) {
		_, err := store.GetCategory(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}
