// Package notify delivers admission messages to participants. Messages are
// either logged, sent directly through MailerSend, or queued on RabbitMQ
// for the notifier process to send.
package notify

import (
	"context"
	"log"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
)

// Message is one queued notification.
type Message struct {
	ID        string          `json:"id"`
	Recipient model.Recipient `json:"recipient"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body"`
}

// LogNotifier writes notifications to the process log instead of sending
// them. It is the default in development.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, to model.Recipient, subject, body string) error {
	log.Printf("notify %s %s <%s>: %s\n%s", to.Firstname, to.Lastname, to.Email, subject, body)
	return nil
}
