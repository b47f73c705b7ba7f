// cmd/notifier consumes queued registration emails and delivers them
// through MailerSend.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/ouluntietoteekkarit/ilmo/internal/config"
	"github.com/ouluntietoteekkarit/ilmo/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var sender notify.Sender = notify.LogNotifier{}
	if cfg.MailerSendKey != "" && cfg.MailerSendFrom != "" {
		sender = notify.NewMailer(cfg.MailerSendKey, cfg.MailerSendName, cfg.MailerSendFrom)
	} else {
		log.Println("MAILERSEND_API_KEY or MAILERSEND_EMAIL not set, logging notifications only")
	}

	broker, err := notify.NewBroker(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.RabbitMQExchange)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer broker.Close()

	deliveries, err := broker.Consume()
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	log.Printf("consuming notifications from %s", cfg.RabbitMQQueue)

	if err := notify.NewConsumer(sender).Run(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consumer: %v", err)
	}
	log.Println("notifier stopped")
}
