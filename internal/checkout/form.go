// Package checkout holds the donation checkout state machine.
//
// A Form starts in ModeLoggedIn when the visitor has an identity and in ModeAuthChoice
// otherwise. From ModeAuthChoice the visitor either leaves for the login page (the page
// reloads with an identity) or continues as a guest. A guest may go back with ChangeMode.
package checkout

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"iark_app/internal/models"
	"iark_app/internal/session"
)

type Mode string

const (
	ModeAuthChoice Mode = "auth_choice"
	ModeLoggedIn   Mode = "logged_in"
	ModeGuest      Mode = "guest"
)

const (
	MinimumAmount int64 = 1000
	DefaultPreset int64 = 100000

	// BypassToken stands in for a challenge token when the widget is not configured
	BypassToken = "XXXX.DUMMY.TOKEN.XXXX"

	// CustomChoice is the preset_amount value of the "other amount" option
	CustomChoice = "custom"

	LoginPath   = "/masuk"
	SuccessPath = "/donasi/sukses"

	maxAmountDigits = 15
)

// PresetAmounts are the quick-pick buttons, in rupiah
var PresetAmounts = []int64{50000, 100000, 250000, 500000, 1000000}

var (
	ErrModeRequired       = errors.New("checkout mode not chosen")
	ErrNameRequired       = errors.New("name required")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrMinimumDonation    = errors.New("minimum donation is 1000")
	ErrChallengeRequired  = errors.New("security verification required")
	ErrInvalidTransition  = errors.New("invalid checkout transition")
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// Form is the checkout state for one campaign and one visitor
type Form struct {
	CampaignID uint
	ProfileID  *uint
	Mode       Mode

	PresetAmount int64
	CustomAmount string

	Name        string
	Email       string
	Phone       string
	Message     string
	IsAnonymous bool

	ChallengeEnabled bool
	ChallengeToken   string
	// ResetChallenge asks the view to reset the widget because the last token was spent
	ResetChallenge bool

	Submitting bool
	Err        error
}

// Input is what the visitor typed into the form
type Input struct {
	PresetAmount   string
	CustomAmount   string
	Name           string
	Email          string
	Phone          string
	Message        string
	Anonymous      bool
	ChallengeToken string
}

// NewForm builds the initial form. stored is the mode remembered for this checkout session.
func NewForm(campaignID uint, identity *session.Identity, stored Mode, challengeEnabled bool) *Form {
	f := &Form{
		CampaignID:       campaignID,
		Mode:             ModeAuthChoice,
		PresetAmount:     DefaultPreset,
		ChallengeEnabled: challengeEnabled,
	}
	if !challengeEnabled {
		f.ChallengeToken = BypassToken
	}

	if identity != nil {
		profileID := identity.ProfileID
		f.ProfileID = &profileID
		f.Mode = ModeLoggedIn
		f.Name = identity.Name
		f.Email = identity.Email
		f.Phone = identity.Phone
		return f
	}

	if stored == ModeGuest {
		_ = f.ChooseGuest()
	}
	return f
}

// SelectPreset picks a preset amount and clears the custom amount
func (f *Form) SelectPreset(amount int64) {
	f.PresetAmount = amount
	f.CustomAmount = ""
}

// SetCustomAmount keeps only the digits of raw
func (f *Form) SetCustomAmount(raw string) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" && b.Len() > 0 {
		digits = "0"
	}
	if len(digits) > maxAmountDigits {
		digits = digits[:maxAmountDigits]
	}
	f.CustomAmount = digits
}

// FinalAmount is the custom amount when one was typed, otherwise the preset
func (f *Form) FinalAmount() int64 {
	if f.CustomAmount != "" {
		n, err := strconv.ParseInt(f.CustomAmount, 10, 64)
		if err == nil {
			return n
		}
	}
	return f.PresetAmount
}

// LoginURL is where the visitor goes to choose the identity path
func (f *Form) LoginURL(returnPath string) (string, error) {
	if f.Mode != ModeAuthChoice {
		return "", ErrInvalidTransition
	}
	return LoginPath + "?redirectTo=" + url.QueryEscape(returnPath), nil
}

// ChooseGuest moves auth_choice to guest
func (f *Form) ChooseGuest() error {
	if f.Mode != ModeAuthChoice {
		return ErrInvalidTransition
	}
	f.Mode = ModeGuest
	f.Name = models.AnonymousDonorName
	f.Email = ""
	f.IsAnonymous = true
	return nil
}

// ChangeMode moves guest back to auth_choice and blanks the donor fields
func (f *Form) ChangeMode() error {
	if f.Mode != ModeGuest {
		return ErrInvalidTransition
	}
	f.Mode = ModeAuthChoice
	f.Name = ""
	f.Email = ""
	f.IsAnonymous = false
	return nil
}

// Apply copies visitor input into the form. The amount radio decides the source: a
// chosen preset drops any typed amount, CustomChoice (or no choice) reads custom_amount.
func (f *Form) Apply(in Input) {
	if preset, err := strconv.ParseInt(strings.TrimSpace(in.PresetAmount), 10, 64); err == nil {
		f.SelectPreset(preset)
	} else if strings.TrimSpace(in.CustomAmount) != "" {
		f.SetCustomAmount(in.CustomAmount)
	}

	f.Name = strings.TrimSpace(in.Name)
	f.Email = strings.TrimSpace(in.Email)
	f.Phone = strings.TrimSpace(in.Phone)
	f.Message = strings.TrimSpace(in.Message)

	if f.Mode == ModeGuest {
		f.IsAnonymous = true
	} else {
		f.IsAnonymous = in.Anonymous
	}

	if f.ChallengeEnabled {
		f.ChallengeToken = strings.TrimSpace(in.ChallengeToken)
	}
}

// Validate checks the form in a fixed order and returns the first failure
func (f *Form) Validate() error {
	switch f.Mode {
	case ModeLoggedIn:
		if strings.TrimSpace(f.Name) == "" {
			return ErrNameRequired
		}
		if !validEmail(f.Email) {
			return ErrInvalidEmail
		}
	case ModeGuest:
		if strings.TrimSpace(f.Email) != "" && !validEmail(f.Email) {
			return ErrInvalidEmail
		}
	default:
		return ErrModeRequired
	}

	if f.FinalAmount() < MinimumAmount {
		return ErrMinimumDonation
	}
	if strings.TrimSpace(f.ChallengeToken) == "" {
		return ErrChallengeRequired
	}
	return nil
}

// Request resolves the form into the payload sent to the donation endpoint
func (f *Form) Request() DonationRequest {
	req := DonationRequest{
		Amount:         f.FinalAmount(),
		DonorName:      strings.TrimSpace(f.Name),
		DonorEmail:     strings.TrimSpace(f.Email),
		DonorPhone:     strings.TrimSpace(f.Phone),
		Message:        strings.TrimSpace(f.Message),
		IsAnonymous:    f.IsAnonymous,
		IsGuest:        f.Mode == ModeGuest,
		CampaignID:     f.CampaignID,
		TurnstileToken: f.ChallengeToken,
	}
	if !req.IsGuest {
		req.ProfileID = f.ProfileID
	}
	return req.Normalized()
}

// Submit validates and hands the request to creator. Validation failures never reach creator.
// A creator failure spends the challenge token, so the widget must produce a new one.
func (f *Form) Submit(ctx context.Context, creator Creator) (*Outcome, error) {
	if f.Submitting {
		return nil, ErrSubmissionInFlight
	}
	f.Err = nil
	f.ResetChallenge = false

	if err := f.Validate(); err != nil {
		f.Err = err
		return nil, err
	}

	f.Submitting = true
	defer func() { f.Submitting = false }()

	result, err := creator.CreateDonation(ctx, f.Request())
	if err != nil {
		f.Err = err
		f.resetChallenge()
		return nil, err
	}
	return OutcomeFor(result), nil
}

func (f *Form) resetChallenge() {
	f.ResetChallenge = true
	if f.ChallengeEnabled {
		f.ChallengeToken = ""
	} else {
		f.ChallengeToken = BypassToken
	}
}

// ShowAuthChoice reports whether the view renders the login/guest fork
func (f *Form) ShowAuthChoice() bool {
	return f.Mode == ModeAuthChoice
}

// ErrorMessage is the user-facing text of the last error
func (f *Form) ErrorMessage() string {
	if f.Err == nil {
		return ""
	}
	return Message(f.Err)
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && strings.Contains(email, "@")
}
