// Package services holds the use cases of the shop: onboarding customers,
// managing categories, taking orders through their lifecycle and producing
// reports. Services read and write through repositories.Store and reach the
// outside world only through the Notifier and Exporter interfaces.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/metrics"
)

// Notification event names, also used as metric labels.
const (
	EventOrderTransitioned = "order.transitioned"
	EventReportGenerated   = "report.generated"
)

// TransitionEvent describes a status change that actually happened.
type TransitionEvent struct {
	OrderID      string             `json:"order_id"`
	CustomerCode string             `json:"customer_code"`
	From         models.OrderStatus `json:"from"`
	To           models.OrderStatus `json:"to"`
	Total        decimal.Decimal    `json:"total"`
	At           time.Time          `json:"at"`
}

// Notifier is told about order transitions and generated reports. Its errors
// are logged and counted by the caller, never returned to it.
type Notifier interface {
	OrderTransitioned(ctx context.Context, ev TransitionEvent) error
	ReportGenerated(ctx context.Context, r models.Report) error
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) OrderTransitioned(context.Context, TransitionEvent) error { return nil }
func (NopNotifier) ReportGenerated(context.Context, models.Report) error     { return nil }

// Artifact is a rendered report file.
type Artifact struct {
	Path   string              `json:"path"`
	URL    string              `json:"url,omitempty"`
	Format models.ReportFormat `json:"format"`
	Size   int64               `json:"size"`
}

// Exporter renders a report in the requested format.
type Exporter interface {
	Export(ctx context.Context, r models.Report, format models.ReportFormat) (Artifact, error)
}

// Option configures a service.
type Option func(*options)

type options struct {
	now          func() time.Time
	loc          *time.Location
	orderPrefix  string
	delayedAfter time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		now:          time.Now,
		loc:          time.Local,
		orderPrefix:  "ORD",
		delayedAfter: 7 * 24 * time.Hour,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// clock returns the current time in the shop's timezone.
func (o options) clock() time.Time { return o.now().In(o.loc) }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the shop timezone used for day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithOrderPrefix sets the prefix of generated order IDs.
func WithOrderPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.orderPrefix = prefix
		}
	}
}

// WithDelayedAfter sets how old an undelivered order must be to count as delayed.
func WithDelayedAfter(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delayedAfter = d
		}
	}
}

// notify runs fn and swallows its error after recording it.
func notify(ctx context.Context, event string, fn func() error) {
	if err := fn(); err != nil {
		metrics.NotifierFailures.WithLabelValues(event).Inc()
		logger.WithCtx(ctx).Warn("notifier failed", "event", event, "error", err)
	}
}
