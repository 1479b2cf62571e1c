package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"iark_app/internal/config"
	"iark_app/internal/services"
	"iark_app/internal/store"
	"iark_app/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	config.SetupLogger(cfg)

	// Initialize Database
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	st := store.New(db)

	pendingTTL := time.Duration(cfg.PendingDonationTTLHours) * time.Hour
	donations := &services.DonationService{
		Store:      st,
		Receipts:   &tasks.Scheduler{Store: st},
		AppURL:     cfg.AppURL,
		PendingTTL: pendingTTL,
	}
	if gateway := services.NewMidtransService(cfg.Midtrans); gateway != nil {
		donations.Gateway = gateway
	}

	deps := &tasks.Deps{
		Donations:  st,
		Expirer:    donations,
		PendingTTL: pendingTTL,
		AppURL:     cfg.AppURL,
	}
	if email := services.NewEmailService(cfg.SMTP); email.Configured() {
		deps.Email = email
	}
	if waha := services.NewWahaService(cfg.Waha); waha.Configured() {
		deps.WhatsApp = waha
	}

	// Initialize Task Registry
	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry)

	runner := &tasks.Runner{Store: st, Registry: registry, Deps: deps}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down worker...")
		cancel()
	}()

	if err := runner.EnsureRecurring(ctx); err != nil {
		log.WithError(err).Error("Failed to schedule recurring tasks")
	}

	log.Infof("Worker started, polling every %s", tasks.PollInterval)
	runner.Run(ctx)
}
