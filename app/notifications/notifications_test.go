package notifications_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/notifications"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/pkg/event"
	"github.com/darzi-app/darzi/pkg/mail"
	"github.com/darzi-app/darzi/pkg/notification"
	"github.com/darzi-app/darzi/pkg/queue"
	"github.com/darzi-app/darzi/pkg/workerpool"
)

type inbox struct {
	mu      sync.Mutex
	slack   []notification.SlackData
	webhook []map[string]any
	mails   []mail.Message
}

func (in *inbox) Send(_ context.Context, m mail.Message) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.mails = append(in.mails, m)
	return nil
}

func (in *inbox) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in.mu.Lock()
		defer in.mu.Unlock()
		switch r.URL.Path {
		case "/slack":
			var d notification.SlackData
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&d))
			in.slack = append(in.slack, d)
		case "/hook":
			var d map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&d))
			in.webhook = append(in.webhook, d)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type pipeline struct {
	notifier *notifications.EventNotifier
	queue    *queue.Manager
	pool     *workerpool.Pool
	inbox    *inbox
}

func newPipeline(t *testing.T, queueSize int, mailTo string) *pipeline {
	t.Helper()
	in := &inbox{}
	srv := in.server(t)

	dispatcher := notification.NewDispatcher(notification.Config{
		SlackWebhookURL: srv.URL + "/slack",
		WebhookURL:      srv.URL + "/hook",
		MailTo:          mailTo,
		Mailer:          in,
	})

	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)
	bus := event.NewBus(pool)
	q := queue.New(queue.NewMemoryDriver(queueSize))
	q.SetBackoff(0)
	notifications.Register(bus, q, dispatcher, "Darzi Tailors")

	return &pipeline{notifier: notifications.NewEventNotifier(bus), queue: q, pool: pool, inbox: in}
}

func transition() services.TransitionEvent {
	return services.TransitionEvent{
		OrderID:      "ORD-124",
		CustomerCode: "CS001",
		From:         models.StatusPending,
		To:           models.StatusPaid,
		Total:        decimal.NewFromInt(1200),
		At:           time.Date(2023, 4, 20, 18, 0, 0, 0, time.UTC),
	}
}

func TestOrderTransitionDelivery(t *testing.T) {
	p := newPipeline(t, 8, "owner@example.com")
	ctx := context.Background()

	require.NoError(t, p.notifier.OrderTransitioned(ctx, transition()))
	n, err := p.queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, p.inbox.slack, 1)
	assert.Equal(t, "Order ORD-124 is now Paid", p.inbox.slack[0].Text)
	require.Len(t, p.inbox.slack[0].Attachments, 1)
	assert.Equal(t, "Pending → Paid", p.inbox.slack[0].Attachments[0].Title)

	require.Len(t, p.inbox.webhook, 1)
	assert.Equal(t, services.EventOrderTransitioned, p.inbox.webhook[0]["event"])

	require.Len(t, p.inbox.mails, 1)
	assert.Equal(t, []string{"owner@example.com"}, p.inbox.mails[0].To)
	assert.Equal(t, "[Darzi Tailors] Order ORD-124 is now Paid", p.inbox.mails[0].Subject)
	assert.Contains(t, p.inbox.mails[0].Body, "Total: 1200.00")
}

func TestReportDeliveryWithoutEmail(t *testing.T) {
	p := newPipeline(t, 8, "")
	ctx := context.Background()

	day := time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC)
	r := models.Aggregate(models.ReportDaily, models.Window{Start: day, End: day.AddDate(0, 0, 1)}, nil, nil, day)
	require.NoError(t, p.notifier.ReportGenerated(ctx, r))

	p.pool.Shutdown() // wait for the async listener
	_, err := p.queue.Drain(ctx)
	require.NoError(t, err)

	require.Len(t, p.inbox.slack, 1)
	assert.Equal(t, "Daily report 2023-04-20", p.inbox.slack[0].Text)
	assert.Len(t, p.inbox.webhook, 1)
	assert.Empty(t, p.inbox.mails, "mail is off without NOTIFY_EMAIL")
}

func TestQueueFullSurfacesError(t *testing.T) {
	p := newPipeline(t, 1, "")
	ctx := context.Background()

	require.NoError(t, p.notifier.OrderTransitioned(ctx, transition()))
	err := p.notifier.OrderTransitioned(ctx, transition())
	assert.ErrorIs(t, err, queue.ErrQueueFull)
}

func TestMessages(t *testing.T) {
	msg := notifications.OrderStatusChanged{Event: transition()}
	assert.Equal(t, "Order ORD-124 is now Paid", msg.ToMail().Subject)
	assert.Equal(t, services.EventOrderTransitioned, msg.ToWebhook().Event)

	r := notifications.ReportReady{Shop: "Darzi", Report: models.Report{Type: models.ReportWeekly, Revenue: decimal.NewFromInt(10)}}
	assert.Contains(t, r.ToMail().Body, "Revenue: 10.00")
	assert.Equal(t, "[Darzi] ", r.ToMail().Subject[:len("[Darzi] ")])
}
