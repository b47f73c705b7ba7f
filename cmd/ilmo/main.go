// cmd/ilmo is the registration server entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ouluntietoteekkarit/ilmo/internal/config"
	"github.com/ouluntietoteekkarit/ilmo/internal/database"
	"github.com/ouluntietoteekkarit/ilmo/internal/events"
	"github.com/ouluntietoteekkarit/ilmo/internal/handler"
	"github.com/ouluntietoteekkarit/ilmo/internal/i18n"
	"github.com/ouluntietoteekkarit/ilmo/internal/notify"
	"github.com/ouluntietoteekkarit/ilmo/internal/repository"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

// store is a service.Store that creates per-event tables on startup.
type store interface {
	service.Store
	Prepare(ctx context.Context, eventID string, st *schema.StorageType) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 1. Open the store.
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	// 2. Build the event registry and prepare storage for each event.
	registry, err := events.NewRegistry(loc, events.All()...)
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	for _, m := range registry.Modules() {
		if err := st.Prepare(ctx, m.ID, m.Types.Storage); err != nil {
			log.Fatalf("prepare %s: %v", m.ID, err)
		}
	}
	log.Printf("serving %d events (%d active)", len(registry.Modules()), len(registry.Active()))

	// 3. Wire up layers.
	notifier, closeNotifier, err := openNotifier(cfg)
	if err != nil {
		log.Fatalf("notifier: %v", err)
	}
	defer closeNotifier()

	admission := service.NewAdmission(st, notifier, i18n.New(cfg.Lang))
	router := handler.NewRouter(handler.NewEventHandler(registry, admission),
		handler.Admin{User: cfg.AdminUser, Password: cfg.AdminPassword})
	if !cfg.AdminEnabled() {
		log.Println("ADMIN_USER or ADMIN_PASSWORD not set, data views disabled")
	}

	// 4. Start server with graceful shutdown.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("server listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Println("connected to PostgreSQL")
		return repository.NewPostgresStore(pool), pool.Close, nil
	case config.StoreSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("opened SQLite database %s", cfg.SQLitePath)
		return repository.NewSQLiteStore(db), func() { _ = db.Close() }, nil
	default:
		log.Println("using in-memory store, registrations are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}
}

func openNotifier(cfg *config.Config) (service.Notifier, func(), error) {
	switch cfg.Notifier {
	case config.NotifierMailerSend:
		return notify.NewMailer(cfg.MailerSendKey, cfg.MailerSendName, cfg.MailerSendFrom), func() {}, nil
	case config.NotifierAMQP:
		b, err := notify.NewBroker(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.RabbitMQExchange)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewQueueNotifier(b), func() { _ = b.Close() }, nil
	default:
		return notify.LogNotifier{}, func() {}, nil
	}
}
