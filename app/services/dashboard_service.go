package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
)

// RecentOrders is how many orders the dashboard lists.
const RecentOrders = 5

// Summary is the shop dashboard.
type Summary struct {
	Customers     int                    `json:"customers"`
	Orders        int                    `json:"orders"`
	Revenue       decimal.Decimal        `json:"revenue"`
	ByStatus      []models.StatusCount   `json:"by_status"`
	Delayed       []models.OrderView     `json:"delayed"`
	Recent        []models.OrderView     `json:"recent"`
	Popular       []models.CategoryTally `json:"popular"`
	PopularWindow models.Window          `json:"popular_window"`
}

// DashboardService computes the dashboard summary.
type DashboardService struct {
	store  repositories.Store
	orders *OrderService
	opts   options
}

func NewDashboardService(store repositories.Store, opts ...Option) *DashboardService {
	return &DashboardService{
		store:  store,
		orders: NewOrderService(store, nil, opts...),
		opts:   newOptions(opts),
	}
}

// Summary counts customers and orders, totals revenue, lists the newest
// orders and those still undelivered after the delay threshold, and ranks
// the categories ordered this calendar month.
func (s *DashboardService) Summary(ctx context.Context) (Summary, error) {
	now := s.opts.clock()

	customers, err := s.store.CountCustomers(ctx)
	if err != nil {
		return Summary{}, err
	}
	views, err := s.orders.Views(ctx)
	if err != nil {
		return Summary{}, err
	}

	orders := make([]models.Order, len(views))
	for i, v := range views {
		orders[i] = v.Order
	}

	month, err := models.ResolveWindow(models.ReportRequest{Type: models.ReportMonthly}, now)
	if err != nil {
		return Summary{}, err
	}
	var names map[uuid.UUID]string
	if len(views) > 0 {
		names = views[0].CategoryNames
	}
	popular := models.Aggregate(models.ReportMonthly, month, orders, names, now)

	sum := Summary{
		Customers:     customers,
		Orders:        len(orders),
		Revenue:       decimal.Zero,
		ByStatus:      make([]models.StatusCount, 0, len(models.Statuses)),
		Delayed:       []models.OrderView{},
		Popular:       popular.ByCategory,
		PopularWindow: month,
	}

	perStatus := map[models.OrderStatus]int{}
	for _, o := range orders {
		sum.Revenue = sum.Revenue.Add(o.TotalAmount)
		perStatus[o.Status]++
	}
	for _, st := range models.Statuses {
		sum.ByStatus = append(sum.ByStatus, models.StatusCount{Status: st, Count: perStatus[st]})
	}

	cutoff := now.Add(-s.opts.delayedAfter)
	for _, v := range views {
		if !v.Order.Status.Terminal() && v.Order.OrderDate.Before(cutoff) {
			sum.Delayed = append(sum.Delayed, v)
		}
	}

	n := min(RecentOrders, len(views))
	sum.Recent = views[:n:n]
	return sum, nil
}
