package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"iark_app/internal/models"
)

// DonationRequest is the payload of POST /api/donations
type DonationRequest struct {
	Amount         int64  `json:"amount"`
	DonorName      string `json:"donor_name"`
	DonorEmail     string `json:"donor_email"`
	DonorPhone     string `json:"donor_phone"`
	Message        string `json:"message"`
	IsAnonymous    bool   `json:"is_anonymous"`
	IsGuest        bool   `json:"is_guest"`
	CampaignID     uint   `json:"campaign_id"`
	TurnstileToken string `json:"turnstile_token"`

	// ProfileID is set from the session, never from the payload
	ProfileID *uint  `json:"-"`
	ClientIP  string `json:"-"`
}

// Normalized applies the guest rules: placeholder name, always anonymous, no profile
func (r DonationRequest) Normalized() DonationRequest {
	r.DonorName = strings.TrimSpace(r.DonorName)
	r.DonorEmail = strings.TrimSpace(r.DonorEmail)
	if r.IsGuest {
		if r.DonorName == "" {
			r.DonorName = models.AnonymousDonorName
		}
		r.IsAnonymous = true
		r.ProfileID = nil
	}
	return r
}

// ValidateRequest applies the form rules to a JSON payload. The mode follows is_guest.
func ValidateRequest(req DonationRequest) error {
	f := Form{
		Mode:             ModeLoggedIn,
		PresetAmount:     req.Amount,
		Name:             req.DonorName,
		Email:            req.DonorEmail,
		ChallengeEnabled: true,
		ChallengeToken:   req.TurnstileToken,
	}
	if req.IsGuest {
		f.Mode = ModeGuest
	}
	return f.Validate()
}

// Result is what the donation endpoint returns on success
type Result struct {
	PaymentURL string `json:"payment_url,omitempty"`
	OrderID    string `json:"order_id"`
}

// Creator creates a donation and opens a payment session for it
type Creator interface {
	CreateDonation(ctx context.Context, req DonationRequest) (*Result, error)
}

// Outcome is where the browser goes after a successful submission
type Outcome struct {
	RedirectURL string
	External    bool
}

// OutcomeFor sends the browser to the payment gateway, or to the local success page
// when the gateway did not return a payment URL.
func OutcomeFor(r *Result) *Outcome {
	if r.PaymentURL != "" {
		return &Outcome{RedirectURL: r.PaymentURL, External: true}
	}
	return &Outcome{RedirectURL: SuccessPath + "?order_id=" + url.QueryEscape(r.OrderID)}
}

// PublicError is implemented by errors whose message may be shown to donors
type PublicError interface {
	PublicMessage() string
}

const genericFailure = "Terjadi kesalahan saat memproses donasi. Silakan coba lagi."

// Message maps an error to the text shown on the checkout form
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModeRequired):
		return "Pilih masuk atau lanjut sebagai tamu terlebih dahulu."
	case errors.Is(err, ErrNameRequired):
		return "Nama wajib diisi."
	case errors.Is(err, ErrInvalidEmail):
		return "Alamat email tidak valid."
	case errors.Is(err, ErrMinimumDonation):
		return "Minimal donasi adalah Rp 1.000."
	case errors.Is(err, ErrChallengeRequired):
		return "Silakan selesaikan verifikasi keamanan."
	case errors.Is(err, ErrSubmissionInFlight):
		return "Donasi sedang diproses."
	}

	var public PublicError
	if errors.As(err, &public) {
		return public.PublicMessage()
	}
	return genericFailure
}
