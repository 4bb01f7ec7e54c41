package mail_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darzi-app/darzi/pkg/mail"
)

func TestMessageBytes(t *testing.T) {
	raw := string(mail.Message{
		To:      []string{"shop@example.com"},
		CC:      []string{"owner@example.com"},
		Subject: "Order ORD-124 is Paid",
		Body:    "line one\nline two",
	}.Bytes("Darzi <orders@darzi.local>"))

	assert.True(t, strings.HasPrefix(raw, "From: Darzi <orders@darzi.local>\r\n"))
	assert.Contains(t, raw, "To: shop@example.com\r\n")
	assert.Contains(t, raw, "Cc: owner@example.com\r\n")
	assert.Contains(t, raw, "Subject: Order ORD-124 is Paid\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain;")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}

func TestSendRequiresCredentials(t *testing.T) {
	s := mail.NewSMTPSender(mail.SMTP{Host: "localhost", Port: "2525"})
	err := s.Send(context.Background(), mail.Message{To: []string{"a@example.com"}})
	assert.True(t, errors.Is(err, mail.ErrNotConfigured))
}
