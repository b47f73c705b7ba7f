package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
)

const sendTimeout = 5 * time.Second

// emailService is the part of the MailerSend client the mailer uses.
type emailService interface {
	NewMessage() *mailersend.Message
	Send(ctx context.Context, message *mailersend.Message) (*mailersend.Response, error)
}

// Mailer sends plain text email through MailerSend.
type Mailer struct {
	email     emailService
	fromEmail string
	fromName  string
}

// NewMailer constructs a Mailer for the given API key and sender.
func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	return &Mailer{
		email:     mailersend.NewMailersend(apiKey).Email,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (m *Mailer) Notify(ctx context.Context, to model.Recipient, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := m.email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{
		Name:  strings.TrimSpace(to.Firstname + " " + to.Lastname),
		Email: to.Email,
	}})
	message.SetSubject(subject)
	message.SetText(body)

	res, err := m.email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to.Email, err)
	}
	if res != nil && res.Response != nil {
		log.Printf("email sent to %s, message id %s", to.Email, res.Header.Get("X-Message-Id"))
	}
	return nil
}
