package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"iark_app/internal/checkout"
	"iark_app/internal/models"
	"iark_app/internal/session"
	"iark_app/internal/store"
)

type fakeCampaigns struct {
	campaigns map[string]*models.Campaign
}

func (f fakeCampaigns) FindActiveCampaignBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	if c, ok := f.campaigns[slug]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (f fakeCampaigns) CampaignCollected(ctx context.Context, campaignID uint) (int64, error) {
	return 250000, nil
}

func (f fakeCampaigns) RecentPaidDonations(ctx context.Context, campaignID uint, limit int) ([]models.Donation, error) {
	return []models.Donation{{DonorName: "Budi", Amount: 50000, IsAnonymous: true}}, nil
}

type fakeCreator struct {
	result *checkout.Result
	err    error
	calls  []checkout.DonationRequest
}

func (f *fakeCreator) CreateDonation(ctx context.Context, req checkout.DonationRequest) (*checkout.Result, error) {
	f.calls = append(f.calls, req)
	return f.result, f.err
}

const testSID = "sid-1"

type checkoutFixture struct {
	e       *echo.Echo
	modes   *checkout.MemoryModeStore
	creator *fakeCreator
}

func newCheckoutFixture(t *testing.T, identity *session.Identity) *checkoutFixture {
	t.Helper()
	fx := &checkoutFixture{
		e:       newTestServer(t),
		modes:   checkout.NewMemoryModeStore(),
		creator: &fakeCreator{result: &checkout.Result{OrderID: "IARK-20261018-ABCDEF12"}},
	}
	campaigns := fakeCampaigns{campaigns: map[string]*models.Campaign{
		"zakat": {ID: 4, Title: "Zakat Alumni", Slug: "zakat", TargetAmount: 1000000, IsActive: true},
	}}
	h := NewCheckoutHandler(campaigns, fx.modes, fx.creator, false, "", false)

	fx.e.Use(withIdentity(identity))
	fx.e.GET("/donasi/:slug", h.Show)
	fx.e.POST("/donasi/:slug", h.Submit)
	fx.e.POST("/donasi/:slug/masuk", h.ChooseLogin)
	fx.e.POST("/donasi/:slug/tamu", h.ChooseGuest)
	fx.e.POST("/donasi/:slug/ubah", h.ChangeMode)
	return fx
}

func (fx *checkoutFixture) do(method, target string, values url.Values, htmx bool) *httpResult {
	req := formRequest(method, target, values)
	req.AddCookie(&http.Cookie{Name: checkoutCookieName, Value: testSID})
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := serve(fx.e, req)
	return &httpResult{code: rec.Code, body: rec.Body.String(), header: rec.Header()}
}

type httpResult struct {
	code   int
	body   string
	header http.Header
}

func (fx *checkoutFixture) mode(t *testing.T) checkout.Mode {
	t.Helper()
	m, err := fx.modes.Get(context.Background(), testSID, 4)
	if err != nil {
		t.Fatalf("modes.Get: %v", err)
	}
	return m
}

func TestCheckoutShowAnonymousOffersChoice(t *testing.T) {
	fx := newCheckoutFixture(t, nil)

	req := formRequest(http.MethodGet, "/donasi/zakat", nil)
	rec := serve(fx.e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/donasi/zakat/tamu") || !strings.Contains(body, "/donasi/zakat/masuk") {
		t.Error("auth choice not rendered")
	}
	if strings.Contains(body, `name="donor_name"`) {
		t.Error("donation fields shown before a mode was chosen")
	}
	if !strings.Contains(body, "Hamba Allah") {
		t.Error("anonymous recent donor should show the placeholder name")
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), checkoutCookieName) {
		t.Error("checkout session cookie not issued")
	}
}

func TestCheckoutUnknownCampaign(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	if res := fx.do(http.MethodGet, "/donasi/tidak-ada", nil, false); res.code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", res.code)
	}
}

func TestCheckoutGuestAndBack(t *testing.T) {
	fx := newCheckoutFixture(t, nil)

	res := fx.do(http.MethodPost, "/donasi/zakat/tamu", nil, true)
	if res.code != http.StatusOK {
		t.Fatalf("guest status = %d", res.code)
	}
	if !strings.Contains(res.body, `name="custom_amount"`) {
		t.Error("guest form not rendered")
	}
	if fx.mode(t) != checkout.ModeGuest {
		t.Errorf("stored mode = %q; want guest", fx.mode(t))
	}

	// the remembered mode survives a reload
	res = fx.do(http.MethodGet, "/donasi/zakat", nil, false)
	if !strings.Contains(res.body, `name="custom_amount"`) {
		t.Error("guest mode lost on reload")
	}

	res = fx.do(http.MethodPost, "/donasi/zakat/ubah", nil, true)
	if res.code != http.StatusOK {
		t.Fatalf("change status = %d", res.code)
	}
	if !strings.Contains(res.body, "/donasi/zakat/tamu") {
		t.Error("auth choice not rendered after change")
	}
	if fx.mode(t) != "" {
		t.Errorf("stored mode = %q; want cleared", fx.mode(t))
	}
}

func TestCheckoutChooseGuestWithoutHTMXRedirects(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	res := fx.do(http.MethodPost, "/donasi/zakat/tamu", nil, false)
	if res.code != http.StatusSeeOther || res.header.Get("Location") != "/donasi/zakat" {
		t.Errorf("got %d %q", res.code, res.header.Get("Location"))
	}
}

func TestCheckoutChooseLogin(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	res := fx.do(http.MethodPost, "/donasi/zakat/masuk", nil, false)
	want := "/masuk?redirectTo=" + url.QueryEscape("/donasi/zakat")
	if res.code != http.StatusSeeOther || res.header.Get("Location") != want {
		t.Errorf("got %d %q; want %q", res.code, res.header.Get("Location"), want)
	}
}

func TestCheckoutSubmitGuest(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	if err := fx.modes.Set(context.Background(), testSID, 4, checkout.ModeGuest); err != nil {
		t.Fatal(err)
	}

	res := fx.do(http.MethodPost, "/donasi/zakat", url.Values{
		"preset_amount":   {checkout.CustomChoice},
		"custom_amount":   {"75.000"},
		"donor_name":      {" "},
		"donor_email":     {"tamu@example.com"},
		"turnstile_token": {checkout.BypassToken},
	}, false)

	wantLocation := checkout.SuccessPath + "?order_id=IARK-20261018-ABCDEF12"
	if res.code != http.StatusSeeOther || res.header.Get("Location") != wantLocation {
		t.Fatalf("got %d %q", res.code, res.header.Get("Location"))
	}
	if len(fx.creator.calls) != 1 {
		t.Fatalf("creator calls = %d", len(fx.creator.calls))
	}
	req := fx.creator.calls[0]
	if !req.IsGuest || !req.IsAnonymous || req.DonorName != models.AnonymousDonorName {
		t.Errorf("guest rules not applied: %+v", req)
	}
	if req.Amount != 75000 || req.CampaignID != 4 || req.ProfileID != nil {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.ClientIP == "" {
		t.Error("client address not stamped")
	}
	if fx.mode(t) != "" {
		t.Error("mode should be cleared after a successful submission")
	}
}

func TestCheckoutSubmitPresetWinsOverTypedAmount(t *testing.T) {
	fx := newCheckoutFixture(t, &session.Identity{ProfileID: 9, Name: "Ani", Email: "ani@example.com"})

	res := fx.do(http.MethodPost, "/donasi/zakat", url.Values{
		"preset_amount": {"50000"},
		"custom_amount": {"25000"},
		"donor_name":    {"Ani"},
		"donor_email":   {"ani@example.com"},
	}, true)

	if res.code != http.StatusOK {
		t.Fatalf("status = %d", res.code)
	}
	if got := fx.creator.calls[0].Amount; got != 50000 {
		t.Fatalf("amount = %d; want the chosen preset 50000", got)
	}
}

func TestCheckoutSubmitGuestWithName(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	if err := fx.modes.Set(context.Background(), testSID, 4, checkout.ModeGuest); err != nil {
		t.Fatal(err)
	}

	res := fx.do(http.MethodPost, "/donasi/zakat", url.Values{
		"preset_amount": {"50000"},
		"donor_name":    {"Siti"},
	}, true)

	if res.code != http.StatusOK {
		t.Fatalf("status = %d", res.code)
	}
	req := fx.creator.calls[0]
	if req.DonorName != "Siti" || !req.IsGuest || !req.IsAnonymous {
		t.Errorf("unexpected guest request: %+v", req)
	}
}

func TestCheckoutSubmitLoggedInToGateway(t *testing.T) {
	fx := newCheckoutFixture(t, &session.Identity{ProfileID: 9, Name: "Ani", Email: "ani@example.com"})
	fx.creator.result = &checkout.Result{OrderID: "IARK-1", PaymentURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/tok"}

	res := fx.do(http.MethodPost, "/donasi/zakat", url.Values{
		"preset_amount": {"250000"},
		"donor_name":    {"Ani"},
		"donor_email":   {"ani@example.com"},
		"is_anonymous":  {"true"},
	}, true)

	if res.code != http.StatusOK || res.header.Get("HX-Redirect") != fx.creator.result.PaymentURL {
		t.Fatalf("got %d %q", res.code, res.header.Get("HX-Redirect"))
	}
	req := fx.creator.calls[0]
	if req.ProfileID == nil || *req.ProfileID != 9 || req.IsGuest {
		t.Errorf("profile not attached: %+v", req)
	}
	if !req.IsAnonymous || req.Amount != 250000 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestCheckoutSubmitFailures(t *testing.T) {
	identity := &session.Identity{ProfileID: 9, Name: "Ani", Email: "ani@example.com"}

	tests := []struct {
		name       string
		values     url.Values
		creatorErr error
		htmx       bool
		wantCalls  int
		wantBody   string
	}{
		{
			name:     "invalid email",
			values:   url.Values{"donor_name": {"Ani"}, "donor_email": {"ani@"}, "preset_amount": {"50000"}},
			htmx:     true,
			wantBody: "Alamat email tidak valid.",
		},
		{
			name:     "below minimum",
			values:   url.Values{"donor_name": {"Ani"}, "donor_email": {"ani@example.com"}, "custom_amount": {"500"}},
			htmx:     true,
			wantBody: "Minimal donasi adalah Rp 1.000.",
		},
		{
			name:       "creator failure keeps the page",
			values:     url.Values{"donor_name": {"Ani"}, "donor_email": {"ani@example.com"}, "preset_amount": {"50000"}},
			creatorErr: errors.New("gateway down"),
			wantCalls:  1,
			wantBody:   "Terjadi kesalahan saat memproses donasi.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newCheckoutFixture(t, identity)
			fx.creator.err = tt.creatorErr

			res := fx.do(http.MethodPost, "/donasi/zakat", tt.values, tt.htmx)
			if res.code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d; want 422", res.code)
			}
			if len(fx.creator.calls) != tt.wantCalls {
				t.Errorf("creator calls = %d; want %d", len(fx.creator.calls), tt.wantCalls)
			}
			if !strings.Contains(res.body, tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
			if !tt.htmx && !strings.Contains(res.body, "Zakat Alumni") {
				t.Error("non-htmx failure should render the whole page")
			}
		})
	}
}

func TestCheckoutSubmitWithoutModeIsRejected(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	res := fx.do(http.MethodPost, "/donasi/zakat", url.Values{"preset_amount": {"50000"}}, true)
	if res.code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d; want 422", res.code)
	}
	if len(fx.creator.calls) != 0 {
		t.Error("creator reached without a mode")
	}
}
