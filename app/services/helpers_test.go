package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/database/seeders"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// shopNow is the evening of the newest sample order.
var shopNow = time.Date(2023, 4, 20, 18, 0, 0, 0, ist)

func fixedClock(t time.Time) services.Option {
	return services.WithClock(func() time.Time { return t })
}

type recordingNotifier struct {
	mu          sync.Mutex
	transitions []services.TransitionEvent
	reports     []models.Report
	err         error
}

func (n *recordingNotifier) OrderTransitioned(_ context.Context, ev services.TransitionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, ev)
	return n.err
}

func (n *recordingNotifier) ReportGenerated(_ context.Context, r models.Report) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, r)
	return n.err
}

func (n *recordingNotifier) transitionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.transitions)
}

type stubExporter struct {
	err    error
	calls  int
	format models.ReportFormat
}

func (e *stubExporter) Export(_ context.Context, r models.Report, f models.ReportFormat) (services.Artifact, error) {
	e.calls++
	e.format = f
	if e.err != nil {
		return services.Artifact{}, e.err
	}
	return services.Artifact{Path: "reports/" + string(r.Type) + "." + f.Extension(), Format: f, Size: 42}, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	store      *repositories.MemoryStore
	notifier   *recordingNotifier
	exporter   *stubExporter
	orders     *services.OrderService
	customers  *services.CustomerService
	categories *services.CategoryService
	reports    *services.ReportService
	dashboard  *services.DashboardService
}

// newFixture returns services over a memory store loaded with the sample data.
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	require.NoError(t, store.Atomic(context.Background(), func(tx repositories.Store) error {
		return seeders.SampleData(context.Background(), tx)
	}))

	opts := []services.Option{fixedClock(now), services.WithLocation(ist)}
	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		exporter: &stubExporter{},
	}
	f.orders = services.NewOrderService(store, f.notifier, opts...)
	f.customers = services.NewCustomerService(store, opts...)
	f.categories = services.NewCategoryService(store)
	f.reports = services.NewReportService(store, f.exporter, f.notifier, opts...)
	f.dashboard = services.NewDashboardService(store, opts...)
	return f
}

func (f *fixture) category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := f.categories.Resolve(context.Background(), name)
	require.NoError(t, err)
	return c
}

func orderIDs(views []models.OrderView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Order.OrderID
	}
	return out
}
