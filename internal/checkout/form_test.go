package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iark_app/internal/models"
	"iark_app/internal/session"
)

type fakeCreator struct {
	calls  int
	last   DonationRequest
	result *Result
	err    error
}

func (c *fakeCreator) CreateDonation(ctx context.Context, req DonationRequest) (*Result, error) {
	c.calls++
	c.last = req
	return c.result, c.err
}

func identity() *session.Identity {
	return &session.Identity{ProfileID: 42, Name: "Budi Santoso", Email: "budi@example.com", Phone: "08123"}
}

func TestNewFormStartsInAuthChoiceWithoutIdentity(t *testing.T) {
	f := NewForm(1, nil, "", true)
	if f.Mode != ModeAuthChoice {
		t.Fatalf("expected %q, got %q", ModeAuthChoice, f.Mode)
	}
	if !f.ShowAuthChoice() {
		t.Fatal("expected auth choice to be shown")
	}
}

func TestNewFormStartsLoggedInWithIdentity(t *testing.T) {
	f := NewForm(1, identity(), ModeGuest, true)
	if f.Mode != ModeLoggedIn {
		t.Fatalf("expected %q, got %q", ModeLoggedIn, f.Mode)
	}
	if f.Name != "Budi Santoso" || f.Email != "budi@example.com" || f.Phone != "08123" {
		t.Fatalf("identity fields not prefilled: %+v", f)
	}
	if f.ProfileID == nil || *f.ProfileID != 42 {
		t.Fatalf("expected profile id 42, got %v", f.ProfileID)
	}
}

func TestNewFormRestoresStoredGuestMode(t *testing.T) {
	f := NewForm(1, nil, ModeGuest, true)
	if f.Mode != ModeGuest || f.Name != models.AnonymousDonorName || !f.IsAnonymous {
		t.Fatalf("expected restored guest form, got %+v", f)
	}
}

func TestSelectPresetClearsCustomAmount(t *testing.T) {
	for _, preset := range PresetAmounts {
		f := NewForm(1, nil, "", true)
		f.SetCustomAmount("Rp 77.777")
		f.SelectPreset(preset)
		if f.CustomAmount != "" {
			t.Fatalf("preset %d: expected custom amount cleared, got %q", preset, f.CustomAmount)
		}
		if f.FinalAmount() != preset {
			t.Fatalf("preset %d: final amount = %d", preset, f.FinalAmount())
		}
	}
}

func TestSetCustomAmountStripsNonDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
		final int64
	}{
		{input: "Rp 150.000", want: "150000", final: 150000},
		{input: "25,000abc", want: "25000", final: 25000},
		{input: "  ", want: "", final: 250000},
		{input: "abc", want: "", final: 250000},
		{input: "000", want: "0", final: 0},
		{input: "0012", want: "12", final: 12},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := NewForm(1, nil, "", true)
			f.SelectPreset(250000)
			f.SetCustomAmount(tt.input)
			if f.CustomAmount != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, f.CustomAmount)
			}
			if f.FinalAmount() != tt.final {
				t.Fatalf("expected final %d, got %d", tt.final, f.FinalAmount())
			}
		})
	}
}

func TestSetCustomAmountCapsLength(t *testing.T) {
	f := NewForm(1, nil, "", true)
	f.SetCustomAmount(strings.Repeat("9", 40))
	if len(f.CustomAmount) != maxAmountDigits {
		t.Fatalf("expected %d digits, got %d", maxAmountDigits, len(f.CustomAmount))
	}
}

func TestChooseGuest(t *testing.T) {
	f := NewForm(1, nil, "", true)
	f.Email = "typed@example.com"
	if err := f.ChooseGuest(); err != nil {
		t.Fatalf("ChooseGuest() error = %v", err)
	}
	if f.Mode != ModeGuest || f.Name != models.AnonymousDonorName || f.Email != "" || !f.IsAnonymous {
		t.Fatalf("unexpected guest state: %+v", f)
	}
}

func TestChooseGuestOnlyFromAuthChoice(t *testing.T) {
	f := NewForm(1, identity(), "", true)
	if err := f.ChooseGuest(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestChangeModeClearsFields(t *testing.T) {
	f := NewForm(1, nil, "", true)
	_ = f.ChooseGuest()
	f.Name = "Someone"
	f.Email = "someone@example.com"

	if err := f.ChangeMode(); err != nil {
		t.Fatalf("ChangeMode() error = %v", err)
	}
	if f.Mode != ModeAuthChoice || f.Name != "" || f.Email != "" || f.IsAnonymous {
		t.Fatalf("expected blank auth_choice form, got %+v", f)
	}
	if err := f.ChangeMode(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from auth_choice, got %v", err)
	}
}

func TestLoginURL(t *testing.T) {
	f := NewForm(1, nil, "", true)
	got, err := f.LoginURL("/donasi/beasiswa-2026")
	if err != nil {
		t.Fatalf("LoginURL() error = %v", err)
	}
	want := "/masuk?redirectTo=%2Fdonasi%2Fbeasiswa-2026"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	_ = f.ChooseGuest()
	if _, err := f.LoginURL("/x"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from guest, got %v", err)
	}
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *Form)
		want  error
	}{
		{
			name:  "auth choice cannot submit",
			setup: func(f *Form) { f.Mode = ModeAuthChoice },
			want:  ErrModeRequired,
		},
		{
			name: "name checked before email and amount",
			setup: func(f *Form) {
				f.Name = " "
				f.Email = "bad"
				f.SetCustomAmount("1")
				f.ChallengeToken = ""
			},
			want: ErrNameRequired,
		},
		{
			name: "email checked before amount",
			setup: func(f *Form) {
				f.Email = "no-at-sign"
				f.SetCustomAmount("1")
			},
			want: ErrInvalidEmail,
		},
		{
			name:  "empty email rejected when logged in",
			setup: func(f *Form) { f.Email = "" },
			want:  ErrInvalidEmail,
		},
		{
			name: "amount checked before challenge",
			setup: func(f *Form) {
				f.SetCustomAmount("999")
				f.ChallengeToken = ""
			},
			want: ErrMinimumDonation,
		},
		{
			name:  "challenge token required",
			setup: func(f *Form) { f.ChallengeToken = "" },
			want:  ErrChallengeRequired,
		},
		{
			name:  "exactly the minimum passes",
			setup: func(f *Form) { f.SetCustomAmount("1000") },
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm(1, identity(), "", true)
			f.ChallengeToken = "token"
			tt.setup(f)
			if err := f.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGuestEmailValidatedOnlyWhenProvided(t *testing.T) {
	f := NewForm(1, nil, "", true)
	_ = f.ChooseGuest()
	f.ChallengeToken = "token"
	if err := f.Validate(); err != nil {
		t.Fatalf("guest without email should pass, got %v", err)
	}
	f.Email = "invalid"
	if err := f.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestChallengeBypassedWhenDisabled(t *testing.T) {
	f := NewForm(1, identity(), "", false)
	f.Apply(Input{PresetAmount: "50000", Name: "Budi", Email: "budi@example.com", ChallengeToken: ""})
	if f.ChallengeToken != BypassToken {
		t.Fatalf("expected bypass token, got %q", f.ChallengeToken)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestSubmitBelowMinimumNeverCallsCreator(t *testing.T) {
	creator := &fakeCreator{result: &Result{OrderID: "x"}}
	for _, amount := range []string{"0", "1", "999"} {
		f := NewForm(1, identity(), "", true)
		f.ChallengeToken = "token"
		f.SetCustomAmount(amount)
		_, err := f.Submit(context.Background(), creator)
		if !errors.Is(err, ErrMinimumDonation) {
			t.Fatalf("amount %s: expected ErrMinimumDonation, got %v", amount, err)
		}
		if f.ErrorMessage() != "Minimal donasi adalah Rp 1.000." {
			t.Fatalf("unexpected message %q", f.ErrorMessage())
		}
	}
	if creator.calls != 0 {
		t.Fatalf("expected no creator calls, got %d", creator.calls)
	}
}

func TestSubmitGuestSendsPlaceholderAndAnonymous(t *testing.T) {
	creator := &fakeCreator{result: &Result{OrderID: "IARK-1"}}
	f := NewForm(3, nil, "", true)
	_ = f.ChooseGuest()
	f.Apply(Input{PresetAmount: "50000", Name: "", Anonymous: false, ChallengeToken: "tok"})

	if _, err := f.Submit(context.Background(), creator); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	req := creator.last
	if req.DonorName != models.AnonymousDonorName {
		t.Fatalf("expected placeholder name, got %q", req.DonorName)
	}
	if !req.IsAnonymous || !req.IsGuest {
		t.Fatalf("expected anonymous guest request, got %+v", req)
	}
	if req.ProfileID != nil {
		t.Fatalf("guest request must not carry a profile, got %v", *req.ProfileID)
	}
	if req.CampaignID != 3 || req.Amount != 50000 || req.TurnstileToken != "tok" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestSubmitLoggedInCarriesProfile(t *testing.T) {
	creator := &fakeCreator{result: &Result{OrderID: "IARK-2"}}
	f := NewForm(3, identity(), "", true)
	f.Apply(Input{PresetAmount: CustomChoice, CustomAmount: "Rp 20.000", Name: "Budi", Email: "budi@example.com", Anonymous: true, ChallengeToken: "tok"})

	if _, err := f.Submit(context.Background(), creator); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if creator.last.Amount != 20000 {
		t.Fatalf("custom amount should override preset, got %d", creator.last.Amount)
	}
	if creator.last.ProfileID == nil || *creator.last.ProfileID != 42 {
		t.Fatal("expected profile id on logged-in request")
	}
	if !creator.last.IsAnonymous || creator.last.IsGuest {
		t.Fatalf("unexpected flags %+v", creator.last)
	}
}

func TestSubmitRedirectsToPaymentURL(t *testing.T) {
	creator := &fakeCreator{result: &Result{OrderID: "IARK-3", PaymentURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/abc"}}
	f := NewForm(1, identity(), "", true)
	f.ChallengeToken = "tok"

	out, err := f.Submit(context.Background(), creator)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.RedirectURL != "https://app.sandbox.midtrans.com/snap/v4/redirection/abc" || !out.External {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestSubmitRedirectsToSuccessPageWithoutPaymentURL(t *testing.T) {
	creator := &fakeCreator{result: &Result{OrderID: "IARK-20261018-ab12cd34"}}
	f := NewForm(1, identity(), "", true)
	f.ChallengeToken = "tok"

	out, err := f.Submit(context.Background(), creator)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.RedirectURL != "/donasi/sukses?order_id=IARK-20261018-ab12cd34" || out.External {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestSubmitFailureResetsChallenge(t *testing.T) {
	creator := &fakeCreator{err: errors.New("connection refused")}
	f := NewForm(1, identity(), "", true)
	f.ChallengeToken = "single-use"

	if _, err := f.Submit(context.Background(), creator); err == nil {
		t.Fatal("expected error")
	}
	if f.ChallengeToken != "" || !f.ResetChallenge {
		t.Fatalf("expected token cleared and widget reset, got token=%q reset=%v", f.ChallengeToken, f.ResetChallenge)
	}
	if f.Submitting {
		t.Fatal("expected submit control re-enabled")
	}
	if f.ErrorMessage() != genericFailure {
		t.Fatalf("expected generic message, got %q", f.ErrorMessage())
	}

	creator.err = nil
	creator.result = &Result{OrderID: "retry"}
	if _, err := f.Submit(context.Background(), creator); !errors.Is(err, ErrChallengeRequired) {
		t.Fatalf("expected ErrChallengeRequired before a fresh token, got %v", err)
	}
	if creator.calls != 1 {
		t.Fatalf("expected no second creator call, got %d calls", creator.calls)
	}

	f.ChallengeToken = "fresh"
	if _, err := f.Submit(context.Background(), creator); err != nil {
		t.Fatalf("expected success with fresh token, got %v", err)
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	f := NewForm(1, identity(), "", true)
	f.Submitting = true
	if _, err := f.Submit(context.Background(), &fakeCreator{}); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
}

type publicErr struct{}

func (publicErr) Error() string         { return "rate limited" }
func (publicErr) PublicMessage() string { return "Terlalu banyak percobaan." }

func TestMessageUsesPublicErrors(t *testing.T) {
	if got := Message(publicErr{}); got != "Terlalu banyak percobaan." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidateRequest(t *testing.T) {
	guest := DonationRequest{Amount: 5000, IsGuest: true, TurnstileToken: "t"}
	if err := ValidateRequest(guest); err != nil {
		t.Fatalf("guest request error = %v", err)
	}
	identified := DonationRequest{Amount: 5000, DonorName: "Ani", TurnstileToken: "t"}
	if err := ValidateRequest(identified); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	negative := DonationRequest{Amount: -5000, IsGuest: true, TurnstileToken: "t"}
	if err := ValidateRequest(negative); !errors.Is(err, ErrMinimumDonation) {
		t.Fatalf("expected ErrMinimumDonation, got %v", err)
	}
}

func TestApplyAmountSource(t *testing.T) {
	tests := []struct {
		name   string
		inputs []Input
		want   int64
	}{
		{
			name:   "preset picked after typing",
			inputs: []Input{{PresetAmount: CustomChoice, CustomAmount: "25000"}, {PresetAmount: "50000", CustomAmount: "25000"}},
			want:   50000,
		},
		{
			name:   "custom choice",
			inputs: []Input{{PresetAmount: CustomChoice, CustomAmount: "25.000"}},
			want:   25000,
		},
		{
			name:   "no radio posted",
			inputs: []Input{{CustomAmount: "30000"}},
			want:   30000,
		},
		{
			name:   "custom choice left empty falls back to preset",
			inputs: []Input{{PresetAmount: CustomChoice}},
			want:   DefaultPreset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm(1, identity(), "", true)
			for _, in := range tt.inputs {
				f.Apply(in)
			}
			if got := f.FinalAmount(); got != tt.want {
				t.Fatalf("FinalAmount() = %d (custom %q); want %d", got, f.CustomAmount, tt.want)
			}
		})
	}
}
