// Package notification delivers a message over several channels.
//
// A notification names the channels it supports and renders itself for each:
//
//	type OrderPaid struct{ OrderID string }
//	func (n OrderPaid) Via() []string { return []string{notification.Slack, notification.Mail} }
//	func (n OrderPaid) ToSlack() notification.SlackData { return notification.SlackData{Text: n.OrderID + " paid"} }
//	func (n OrderPaid) ToMail() notification.MailData   { return notification.MailData{Subject: "..."} }
//
// Channels the Dispatcher has no destination for are skipped, so enabling a
// channel is purely a matter of configuration.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/mail"
)

// Channel names.
const (
	Mail    = "mail"
	Slack   = "slack"
	Webhook = "webhook"
)

// MailData is the mail rendering of a notification.
type MailData struct {
	To      string // overrides the dispatcher's address if set
	Subject string
	Body    string
}

// SlackData is a Slack incoming-webhook message.
type SlackData struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData is an arbitrary JSON payload for the generic webhook.
type WebhookData struct {
	Event   string            `json:"event"`
	Payload any               `json:"payload"`
	Headers map[string]string `json:"-"`
}

// Notification lists the channels it can be delivered on.
type Notification interface {
	Via() []string
}

type Mailable interface{ ToMail() MailData }
type Slackable interface{ ToSlack() SlackData }
type Webhookable interface{ ToWebhook() WebhookData }

// Config holds channel destinations. Empty fields disable a channel.
type Config struct {
	SlackWebhookURL string
	WebhookURL      string
	MailTo          string
	Mailer          mail.Sender
	HTTPClient      *http.Client
}

// Dispatcher sends notifications over the configured channels.
type Dispatcher struct {
	cfg Config
}

// NewDispatcher creates a dispatcher for cfg.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Dispatcher{cfg: cfg}
}

// Enabled reports whether channel has a destination.
func (d *Dispatcher) Enabled(channel string) bool {
	switch channel {
	case Mail:
		return d.cfg.MailTo != "" && d.cfg.Mailer != nil
	case Slack:
		return d.cfg.SlackWebhookURL != ""
	case Webhook:
		return d.cfg.WebhookURL != ""
	}
	return false
}

// Send delivers n on every enabled channel it supports. Channel failures are
// joined into the returned error; one failing channel does not stop the rest.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	log := logger.WithCtx(ctx)
	var errs []error
	for _, ch := range n.Via() {
		if !d.Enabled(ch) {
			log.Debug("notification: channel disabled", "channel", ch)
			continue
		}
		if err := d.dispatch(ctx, ch, n); err != nil {
			log.Warn("notification: channel failed", "channel", ch, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, channel string, n Notification) error {
	switch channel {
	case Mail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		data := m.ToMail()
		to := data.To
		if to == "" {
			to = d.cfg.MailTo
		}
		return d.cfg.Mailer.Send(ctx, mail.Message{To: []string{to}, Subject: data.Subject, Body: data.Body})

	case Slack:
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return d.postJSON(ctx, "slack", d.cfg.SlackWebhookURL, s.ToSlack(), nil)

	case Webhook:
		w, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		data := w.ToWebhook()
		return d.postJSON(ctx, "webhook", d.cfg.WebhookURL, data, data.Headers)
	}
	return fmt.Errorf("notification: unknown channel %q", channel)
}

func (d *Dispatcher) postJSON(ctx context.Context, channel, url string, body any, headers map[string]string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notification: %s marshal: %w", channel, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: %s request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification: %s post: %w", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: %s returned HTTP %d", channel, resp.StatusCode)
	}
	return nil
}
