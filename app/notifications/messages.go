// Package notifications turns order and report events into messages on the
// shop's channels (Slack, a generic webhook and e-mail).
//
// EventNotifier publishes on an event bus; the listeners installed by
// Register queue a delivery job per event; queue workers send the job's
// message through a notification.Dispatcher.
package notifications

import (
	"fmt"
	"strings"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/pkg/notification"
)

// statusColor maps an order status to a Slack attachment color.
var statusColor = map[models.OrderStatus]string{
	models.StatusPending:   "#f97316",
	models.StatusPaid:      "#3b82f6",
	models.StatusDelivered: "#10b981",
}

// OrderStatusChanged announces a transition.
type OrderStatusChanged struct {
	Shop  string
	Event services.TransitionEvent
}

func (n OrderStatusChanged) Via() []string {
	return []string{notification.Slack, notification.Webhook, notification.Mail}
}

func (n OrderStatusChanged) headline() string {
	return fmt.Sprintf("Order %s is now %s", n.Event.OrderID, n.Event.To)
}

func (n OrderStatusChanged) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: n.headline(),
		Attachments: []notification.SlackAttachment{{
			Color:  statusColor[n.Event.To],
			Title:  fmt.Sprintf("%s → %s", n.Event.From, n.Event.To),
			Text:   fmt.Sprintf("Customer %s, total %s", n.Event.CustomerCode, n.Event.Total.StringFixed(2)),
			Footer: n.Shop,
		}},
	}
}

func (n OrderStatusChanged) ToWebhook() notification.WebhookData {
	return notification.WebhookData{Event: services.EventOrderTransitioned, Payload: n.Event}
}

func (n OrderStatusChanged) ToMail() notification.MailData {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.\n\n", n.headline())
	fmt.Fprintf(&b, "Customer: %s\n", n.Event.CustomerCode)
	fmt.Fprintf(&b, "Previous status: %s\n", n.Event.From)
	fmt.Fprintf(&b, "Total: %s\n", n.Event.Total.StringFixed(2))
	fmt.Fprintf(&b, "Changed at: %s\n", n.Event.At.Format("2006-01-02 15:04"))
	return notification.MailData{Subject: subject(n.Shop, n.headline()), Body: b.String()}
}

// ReportReady announces a generated report.
type ReportReady struct {
	Shop   string
	Report models.Report
}

func (n ReportReady) Via() []string {
	return []string{notification.Slack, notification.Webhook, notification.Mail}
}

func (n ReportReady) lines() []string {
	r := n.Report
	out := []string{
		fmt.Sprintf("Orders: %d", r.OrderCount),
		fmt.Sprintf("Revenue: %s", r.Revenue.StringFixed(2)),
	}
	for _, sc := range r.ByStatus {
		out = append(out, fmt.Sprintf("%s: %d", sc.Status, sc.Count))
	}
	return out
}

func (n ReportReady) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: n.Report.Title(),
		Attachments: []notification.SlackAttachment{{
			Color:  "#8b5cf6",
			Text:   strings.Join(n.lines(), "\n"),
			Footer: n.Shop,
		}},
	}
}

func (n ReportReady) ToWebhook() notification.WebhookData {
	return notification.WebhookData{Event: services.EventReportGenerated, Payload: n.Report}
}

func (n ReportReady) ToMail() notification.MailData {
	return notification.MailData{
		Subject: subject(n.Shop, n.Report.Title()),
		Body:    strings.Join(n.lines(), "\n") + "\n",
	}
}

func subject(shop, s string) string {
	if shop == "" {
		return s
	}
	return "[" + shop + "] " + s
}
