package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"iark_app/internal/models"
)

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"

	DefaultReceiptSubject  = "Terima kasih atas donasi Anda - $order_id"
	DefaultReceiptTemplate = `Assalamu'alaikum $name,

Terima kasih, donasi Anda sebesar $amount untuk $campaign telah kami terima.
Nomor transaksi: $order_id

Semoga menjadi amal jariyah yang terus mengalir.
Ikatan Alumni Rumah Kepemimpinan`

	sendAttempts     = 3
	sendInitialDelay = time.Second
)

var ErrNoChannel = errors.New("no notification channel available")

// ReceiptArgs defines the arguments for a receipt task
type ReceiptArgs struct {
	OrderID  string `json:"order_id"`
	Channel  string `json:"channel,omitempty"`
	Template string `json:"template,omitempty"`
	Subject  string `json:"subject,omitempty"`
}

// SendDonationReceiptTaskDef thanks a donor once their donation is paid
type SendDonationReceiptTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendDonationReceiptTaskDef) TaskID() string {
	return "send_donation_receipt"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendDonationReceiptTaskDef) CreateTask(args ReceiptArgs, due time.Time) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, due, nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the receipt by email when the donor left one, otherwise over WhatsApp
func (t *SendDonationReceiptTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	var args ReceiptArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}
	if args.OrderID == "" {
		return nil, fmt.Errorf("order_id not provided")
	}

	donation, err := deps.Donations.FindDonationByOrderID(ctx, args.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donation: %w", err)
	}
	if donation.Status != models.DonationStatusPaid {
		return map[string]interface{}{"status": "skipped", "reason": "donation not paid"}, nil
	}

	channel := args.Channel
	if channel == "" {
		channel = pickChannel(deps, donation)
	}

	template := args.Template
	if template == "" {
		template = DefaultReceiptTemplate
	}
	subject := args.Subject
	if subject == "" {
		subject = DefaultReceiptSubject
	}
	msg := replacePlaceholders(template, donation)

	var send func() error
	switch channel {
	case ChannelEmail:
		send = func() error {
			return deps.Email.SendEmail(ctx, donation.DonorEmail, replacePlaceholders(subject, donation), msg)
		}
	case ChannelWhatsApp:
		send = func() error {
			return deps.WhatsApp.SendMessage(ctx, donation.DonorPhone, msg)
		}
	default:
		log.WithField("order_id", donation.OrderID).Info("No contact channel for donor, skipping receipt")
		return map[string]interface{}{"status": "skipped", "reason": ErrNoChannel.Error()}, nil
	}

	attempts, err := sendWithRetry(ctx, deps, donation.OrderID, send)
	result := map[string]interface{}{
		"channel":  channel,
		"order_id": donation.OrderID,
		"attempts": attempts,
	}
	if err != nil {
		return result, fmt.Errorf("send receipt via %s: %w", channel, err)
	}
	result["status"] = "success"
	return result, nil
}

// SendDonationReceiptTask is the singleton instance of SendDonationReceiptTaskDef
var SendDonationReceiptTask = &SendDonationReceiptTaskDef{}

func pickChannel(deps *Deps, d *models.Donation) string {
	if strings.TrimSpace(d.DonorEmail) != "" && deps.Email != nil && deps.Email.Configured() {
		return ChannelEmail
	}
	if strings.TrimSpace(d.DonorPhone) != "" && deps.WhatsApp != nil && deps.WhatsApp.Configured() {
		return ChannelWhatsApp
	}
	return ""
}

// sendWithRetry retries with exponential backoff and returns the number of attempts made
func sendWithRetry(ctx context.Context, deps *Deps, orderID string, send func() error) (int, error) {
	delay := sendInitialDelay
	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		err = send()
		if err == nil {
			if attempt > 1 {
				log.WithFields(log.Fields{"order_id": orderID, "attempt": attempt}).Info("Receipt sent after retry")
			}
			return attempt, nil
		}
		if attempt == sendAttempts {
			return attempt, err
		}

		log.WithFields(log.Fields{
			"order_id":     orderID,
			"attempt":      attempt,
			"max_attempts": sendAttempts,
			"error":        err,
		}).Warn("Failed to send receipt, retrying...")

		if serr := deps.sleep(ctx, delay); serr != nil {
			return attempt, serr
		}
		delay *= 2
	}
	return sendAttempts, err
}

func replacePlaceholders(template string, d *models.Donation) string {
	return strings.NewReplacer(
		"$name", donorName(d),
		"$amount", models.FormatRupiah(d.Amount),
		"$campaign", d.CampaignTitle(),
		"$order_id", d.OrderID,
	).Replace(template)
}

// receipts are private, so anonymous donors still see their own name
func donorName(d *models.Donation) string {
	if strings.TrimSpace(d.DonorName) == "" {
		return models.AnonymousDonorName
	}
	return d.DonorName
}
