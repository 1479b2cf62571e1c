package tasks

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"iark_app/internal/models"
)

// ExpireRecurrence runs the expiry sweep every hour
const ExpireRecurrence = "FREQ=HOURLY;INTERVAL=1"

type ExpireArgs struct {
	TTLHours int `json:"ttl_hours,omitempty"`
}

// ExpirePendingDonationsTaskDef closes donations that stayed pending past the TTL
type ExpirePendingDonationsTaskDef struct{}

func (t *ExpirePendingDonationsTaskDef) TaskID() string {
	return "expire_pending_donations"
}

// CreateTask builds the recurring task record
func (t *ExpirePendingDonationsTaskDef) CreateTask(args ExpireArgs, due time.Time) (*models.ScheduledTask, error) {
	rule := ExpireRecurrence
	return BuildScheduledTask(t.TaskID(), args, due, &rule, models.ScheduledTaskTypeRecurring, 3)
}

func (t *ExpirePendingDonationsTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	var args ExpireArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}
	ttl := deps.PendingTTL
	if args.TTLHours > 0 {
		ttl = time.Duration(args.TTLHours) * time.Hour
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("pending donation TTL not configured")
	}

	stale, err := deps.Donations.ListStalePendingDonations(ctx, time.Now().Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending donations: %w", err)
	}

	counts := map[models.DonationStatus]int{}
	failures := 0
	for i := range stale {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		status, err := deps.Expirer.ExpireDonation(ctx, &stale[i])
		if err != nil {
			log.WithError(err).WithField("order_id", stale[i].OrderID).Warn("Failed to expire donation")
			failures++
			continue
		}
		counts[status]++
	}

	result := map[string]interface{}{
		"checked": len(stale),
		"expired": counts[models.DonationStatusExpired],
		"paid":    counts[models.DonationStatusPaid],
		"failed":  counts[models.DonationStatusFailed],
		"errors":  failures,
	}
	if failures > 0 && failures == len(stale) {
		return result, fmt.Errorf("failed to expire %d donations", failures)
	}
	return result, nil
}

var ExpirePendingDonationsTask = &ExpirePendingDonationsTaskDef{}
