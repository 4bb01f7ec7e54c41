package notifications

import (
	"context"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/pkg/notification"
)

// Job names in the queue registry.
const (
	JobOrderStatus = "notify.order_status"
	JobReportReady = "notify.report_ready"
)

// Sender delivers a notification. *notification.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, n notification.Notification) error
}

// OrderStatusJob delivers an OrderStatusChanged message.
type OrderStatusJob struct {
	Shop  string                   `json:"shop"`
	Event services.TransitionEvent `json:"event"`

	sender Sender
}

func (j *OrderStatusJob) JobName() string { return JobOrderStatus }

func (j *OrderStatusJob) Handle(ctx context.Context) error {
	return j.sender.Send(ctx, OrderStatusChanged{Shop: j.Shop, Event: j.Event})
}

// ReportReadyJob delivers a ReportReady message.
type ReportReadyJob struct {
	Shop   string        `json:"shop"`
	Report models.Report `json:"report"`

	sender Sender
}

func (j *ReportReadyJob) JobName() string { return JobReportReady }

func (j *ReportReadyJob) Handle(ctx context.Context) error {
	return j.sender.Send(ctx, ReportReady{Shop: j.Shop, Report: j.Report})
}
