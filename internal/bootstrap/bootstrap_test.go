package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/database/seeders"
	"github.com/darzi-app/darzi/internal/bootstrap"
	"github.com/darzi-app/darzi/pkg/cache"
	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/migration"
	"github.com/darzi-app/darzi/pkg/notification"
	"github.com/darzi-app/darzi/pkg/queue"
	"github.com/darzi-app/darzi/pkg/schedule"
	"github.com/darzi-app/darzi/pkg/storage"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type hook struct {
	mu     sync.Mutex
	events []string
}

func (h *hook) handler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Event string `json:"event"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	h.mu.Lock()
	h.events = append(h.events, body.Event)
	h.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (h *hook) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func newApp(t *testing.T) (*bootstrap.App, *queue.Manager, *hook) {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	_, err = migration.New(db).Run()
	require.NoError(t, err)

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	h := &hook{}
	srv := httptest.NewServer(http.HandlerFunc(h.handler))
	t.Cleanup(srv.Close)

	q := queue.New(queue.NewMemoryDriver(32))
	q.SetBackoff(0)

	app := bootstrap.New(bootstrap.Deps{
		DB:     db,
		Cache:  cache.NewMemory(),
		Disk:   disk,
		Queue:  q,
		Sender: notification.NewDispatcher(notification.Config{WebhookURL: srv.URL}),
		Options: []services.Option{
			services.WithLocation(ist),
			services.WithClock(func() time.Time { return time.Date(2023, 4, 20, 18, 0, 0, 0, ist) }),
		},
		Shop:         "Darzi Tailors",
		ReportDir:    "reports",
		DrainOnClose: true,
	})

	_, err = seeders.RunAll(context.Background(), app.Store)
	require.NoError(t, err)
	return app, q, h
}

func TestAppEndToEnd(t *testing.T) {
	app, q, h := newApp(t)
	ctx := context.Background()

	shirt, err := app.Categories.Resolve(ctx, "shirt")
	require.NoError(t, err)

	order, err := app.Orders.Create(ctx, models.OrderInput{
		CustomerCode: "cs001",
		Items:        []models.LineItemInput{{CategoryID: shirt.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(500)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-129", order.OrderID)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(1500)))

	_, err = app.Orders.Transition(ctx, "ORD-124", models.StatusPaid)
	require.NoError(t, err)

	n, err := q.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{services.EventOrderTransitioned}, h.received())

	customer, err := app.Customers.Get(ctx, "CS001")
	require.NoError(t, err)
	assert.Equal(t, 3, customer.TotalOrders)
}

func TestScheduledDailyReport(t *testing.T) {
	app, _, h := newApp(t)
	ctx := context.Background()

	s := schedule.New().In(ist)
	require.NoError(t, app.Schedule(s, "0 21 * * *"))
	s.Tick(ctx, time.Date(2023, 4, 20, 21, 0, 0, 0, ist))
	s.Wait()

	files, err := app.Exporter.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Path, "reports/daily-20230420-"), files[0].Path)
	assert.True(t, strings.HasSuffix(files[0].Path, ".pdf"))

	app.Close(ctx)
	assert.Equal(t, []string{services.EventReportGenerated}, h.received())
}

func TestScheduleRejectsBadCron(t *testing.T) {
	app, _, _ := newApp(t)
	assert.Error(t, app.Schedule(schedule.New(), "not a cron"))
}
