package notifications

import (
	"context"
	"fmt"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/pkg/event"
	"github.com/darzi-app/darzi/pkg/queue"
)

// EventNotifier publishes service notifications on an event bus.
// Transitions are fired synchronously so a failure to queue the delivery
// reaches the caller; reports are fired in the background.
type EventNotifier struct {
	bus *event.Bus
}

var _ services.Notifier = (*EventNotifier)(nil)

func NewEventNotifier(bus *event.Bus) *EventNotifier {
	return &EventNotifier{bus: bus}
}

func (n *EventNotifier) OrderTransitioned(ctx context.Context, ev services.TransitionEvent) error {
	return n.bus.Fire(ctx, services.EventOrderTransitioned, ev)
}

func (n *EventNotifier) ReportGenerated(ctx context.Context, r models.Report) error {
	n.bus.FireAsync(ctx, services.EventReportGenerated, r)
	return nil
}

// Register installs the delivery jobs on q and the listeners that queue them
// on bus.
func Register(bus *event.Bus, q *queue.Manager, sender Sender, shop string) {
	q.Register(JobOrderStatus, func() queue.Job { return &OrderStatusJob{sender: sender} })
	q.Register(JobReportReady, func() queue.Job { return &ReportReadyJob{sender: sender} })

	bus.Listen(services.EventOrderTransitioned, func(ctx context.Context, payload any) error {
		ev, ok := payload.(services.TransitionEvent)
		if !ok {
			return fmt.Errorf("notifications: unexpected payload %T", payload)
		}
		return q.Dispatch(ctx, &OrderStatusJob{Shop: shop, Event: ev})
	})

	bus.Listen(services.EventReportGenerated, func(ctx context.Context, payload any) error {
		r, ok := payload.(models.Report)
		if !ok {
			return fmt.Errorf("notifications: unexpected payload %T", payload)
		}
		return q.Dispatch(ctx, &ReportReadyJob{Shop: shop, Report: r})
	})
}
