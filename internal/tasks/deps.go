package tasks

import (
	"context"
	"time"

	"iark_app/internal/models"
)

type DonationReader interface {
	FindDonationByOrderID(ctx context.Context, orderID string) (*models.Donation, error)
	ListStalePendingDonations(ctx context.Context, cutoff time.Time) ([]models.Donation, error)
}

type EmailSender interface {
	Configured() bool
	SendEmail(ctx context.Context, to, subject, body string) error
}

type MessageSender interface {
	Configured() bool
	SendMessage(ctx context.Context, chatID, text string) error
}

type DonationExpirer interface {
	ExpireDonation(ctx context.Context, d *models.Donation) (models.DonationStatus, error)
}

// Deps are the services task handlers may use
type Deps struct {
	Donations  DonationReader
	Email      EmailSender
	WhatsApp   MessageSender
	Expirer    DonationExpirer
	PendingTTL time.Duration
	AppURL     string

	// Sleep waits between delivery retries; nil means a context-aware time.Sleep
	Sleep func(ctx context.Context, d time.Duration) error
}

func (d *Deps) sleep(ctx context.Context, wait time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, wait)
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
