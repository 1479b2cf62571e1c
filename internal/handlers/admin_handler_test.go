package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"iark_app/internal/models"
	"iark_app/internal/store"
)

// memoryRepo keeps rows in a map keyed by id; getID and setID reach the row's ID field
type memoryRepo[T any] struct {
	rows   map[uint]*T
	nextID uint
	getID  func(*T) uint
	setID  func(*T, uint)
	order  func(*T) int

	reorders []store.Direction
}

func newMemoryRepo[T any](getID func(*T) uint, setID func(*T, uint), order func(*T) int) *memoryRepo[T] {
	return &memoryRepo[T]{rows: map[uint]*T{}, nextID: 1, getID: getID, setID: setID, order: order}
}

func (r *memoryRepo[T]) List(ctx context.Context) ([]T, error) {
	ids := make([]uint, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.rows[id])
	}
	return out, nil
}

func (r *memoryRepo[T]) Get(ctx context.Context, id uint) (*T, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *memoryRepo[T]) Create(ctx context.Context, item *T) error {
	r.setID(item, r.nextID)
	r.nextID++
	cp := *item
	r.rows[r.getID(item)] = &cp
	return nil
}

func (r *memoryRepo[T]) Save(ctx context.Context, item *T) error {
	cp := *item
	r.rows[r.getID(item)] = &cp
	return nil
}

func (r *memoryRepo[T]) Delete(ctx context.Context, id uint) error {
	if _, ok := r.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memoryRepo[T]) Reorder(ctx context.Context, id uint, dir store.Direction) error {
	if _, ok := r.rows[id]; !ok {
		return store.ErrNotFound
	}
	r.reorders = append(r.reorders, dir)
	return nil
}

func (r *memoryRepo[T]) NextOrderIndex(ctx context.Context) (int, error) {
	next := 0
	for _, row := range r.rows {
		if o := r.order(row); o+1 > next {
			next = o + 1
		}
	}
	return next, nil
}

type fakeAdminStore struct {
	taken         map[string]uint
	registrations []models.EventRegistration
	roles         map[uint]models.Role
}

func (f *fakeAdminStore) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	id, ok := f.taken[slug]
	return ok && id != exceptID, nil
}

func (f *fakeAdminStore) ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]models.EventRegistration, error) {
	return f.registrations, nil
}

func (f *fakeAdminStore) SetProfileRole(ctx context.Context, id uint, role models.Role) error {
	f.roles[id] = role
	return nil
}

type fakeMarker struct {
	marked []string
}

func (f *fakeMarker) MarkPaidManually(ctx context.Context, orderID string) error {
	f.marked = append(f.marked, orderID)
	return nil
}

type fakeUploader struct {
	url string
	err error
}

func (f fakeUploader) Upload(ctx context.Context, folder, contentType string, size int64, body io.Reader) (string, error) {
	return f.url, f.err
}

type adminFixture struct {
	e            *echo.Echo
	store        *fakeAdminStore
	marker       *fakeMarker
	campaigns    *memoryRepo[models.Campaign]
	testimonials *memoryRepo[models.Testimonial]
	donations    *memoryRepo[models.Donation]
	profiles     *memoryRepo[models.Profile]
	events       *memoryRepo[models.Event]
}

func newAdminFixture(t *testing.T, uploader Uploader) *adminFixture {
	t.Helper()
	fx := &adminFixture{
		e:      newTestServer(t),
		store:  &fakeAdminStore{taken: map[string]uint{}, roles: map[uint]models.Role{}},
		marker: &fakeMarker{},
		campaigns: newMemoryRepo(
			func(m *models.Campaign) uint { return m.ID },
			func(m *models.Campaign, id uint) { m.ID = id },
			func(*models.Campaign) int { return 0 },
		),
		testimonials: newMemoryRepo(
			func(m *models.Testimonial) uint { return m.ID },
			func(m *models.Testimonial, id uint) { m.ID = id },
			func(m *models.Testimonial) int { return m.OrderIndex },
		),
		donations: newMemoryRepo(
			func(m *models.Donation) uint { return m.ID },
			func(m *models.Donation, id uint) { m.ID = id },
			func(*models.Donation) int { return 0 },
		),
		profiles: newMemoryRepo(
			func(m *models.Profile) uint { return m.ID },
			func(m *models.Profile, id uint) { m.ID = id },
			func(*models.Profile) int { return 0 },
		),
		events: newMemoryRepo(
			func(m *models.Event) uint { return m.ID },
			func(m *models.Event, id uint) { m.ID = id },
			func(*models.Event) int { return 0 },
		),
	}

	noClusters := func(ctx context.Context) ([]option, error) { return []option{{Value: "", Label: "-"}}, nil }
	h := newAdminHandler(fx.store, fx.marker, nil, uploader,
		campaignResource(fx.campaigns, fx.store),
		donationResource(fx.donations),
		eventResource(fx.events),
		testimonialResource(fx.testimonials),
		userResource(fx.profiles, noClusters, nil),
	).withRepos(fx.donations, fx.profiles, fx.events)
	h.Register(fx.e.Group("/admin"))
	return fx
}

func multipartRequest(t *testing.T, target string, values url.Values, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("image", "foto.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestAdminIndexRedirectsToFirstResource(t *testing.T) {
	fx := newAdminFixture(t, nil)
	rec := serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/campaigns" {
		t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAdminCreateCampaign(t *testing.T) {
	fx := newAdminFixture(t, nil)

	rec := serve(fx.e, formRequest(http.MethodPost, "/admin/campaigns", url.Values{
		"title":         {"Wakaf Asrama Putri"},
		"target_amount": {"10.000.000"},
		"end_date":      {"2026-12-31T23:59"},
		"is_active":     {"true"},
	}))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/campaigns?flash=created" {
		t.Fatalf("got %d %q: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	saved, err := fx.campaigns.Get(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Slug != "wakaf-asrama-putri" || saved.TargetAmount != 10000000 || !saved.IsActive || saved.EndDate == nil {
		t.Errorf("saved = %+v", saved)
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin/campaigns?flash=created", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "Wakaf Asrama Putri") || !strings.Contains(body, "Data berhasil ditambahkan.") {
		t.Errorf("list after create: %d", rec.Code)
	}
}

func TestAdminCampaignValidation(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.store.taken["zakat"] = 99

	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{name: "missing title", values: url.Values{"slug": {"x"}}, want: "Judul wajib diisi."},
		{name: "bad amount", values: url.Values{"title": {"A"}, "target_amount": {"banyak"}}, want: "Target harus berupa angka."},
		{name: "slug taken", values: url.Values{"title": {"Zakat"}}, want: "sudah dipakai program lain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(fx.e, formRequest(http.MethodPost, "/admin/campaigns", tt.values))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d; want 422", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
	if len(fx.campaigns.rows) != 0 {
		t.Error("invalid campaign was stored")
	}
}

func TestAdminOrderedCreateAppends(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.testimonials.rows[1] = &models.Testimonial{ID: 1, Name: "A", Quote: "q", OrderIndex: 4}
	fx.testimonials.nextID = 2

	rec := serve(fx.e, formRequest(http.MethodPost, "/admin/testimonials", url.Values{
		"name":  {"Budi"},
		"quote": {"Asrama mengajarkan kemandirian."},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := fx.testimonials.rows[2].OrderIndex; got != 5 {
		t.Errorf("order index = %d; want 5", got)
	}
}

func TestAdminReorder(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.testimonials.rows[1] = &models.Testimonial{ID: 1, Name: "A"}

	rec := serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/testimonials/1/reorder?direction=up", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/testimonials?flash=reordered" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(fx.testimonials.reorders) != 1 || fx.testimonials.reorders[0] != store.DirectionUp {
		t.Errorf("reorders = %v", fx.testimonials.reorders)
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/testimonials/1/reorder?direction=sideways", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d; want 400", rec.Code)
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/testimonials/7/reorder?direction=down", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown row status = %d; want 404", rec.Code)
	}

	// campaigns are not ordered
	rec = serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/campaigns/1/reorder?direction=up", nil))
	if rec.Code == http.StatusSeeOther {
		t.Error("reorder route registered on an unordered resource")
	}
}

func TestAdminImageUpload(t *testing.T) {
	values := url.Values{"name": {"Citra"}, "quote": {"Terima kasih."}}

	fx := newAdminFixture(t, fakeUploader{url: "https://cdn.example/testimonials/1.png"})
	rec := serve(fx.e, multipartRequest(t, "/admin/testimonials", values, []byte("\x89PNG")))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := fx.testimonials.rows[1].PhotoURL; got != "https://cdn.example/testimonials/1.png" {
		t.Errorf("photo url = %q", got)
	}

	fx = newAdminFixture(t, fakeUploader{err: errors.New("too large")})
	rec = serve(fx.e, multipartRequest(t, "/admin/testimonials", values, []byte("\x89PNG")))
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Gagal mengunggah gambar") {
		t.Errorf("failed upload: %d", rec.Code)
	}
	if len(fx.testimonials.rows) != 0 {
		t.Error("row stored despite failed upload")
	}

	fx = newAdminFixture(t, nil)
	rec = serve(fx.e, multipartRequest(t, "/admin/testimonials", values, []byte("\x89PNG")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("upload without storage status = %d; want 422", rec.Code)
	}
}

func TestAdminUpdateAndDelete(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.campaigns.rows[3] = &models.Campaign{ID: 3, Title: "Lama", Slug: "lama", IsActive: true}
	fx.store.taken["lama"] = 3

	rec := serve(fx.e, formRequest(http.MethodPost, "/admin/campaigns/3", url.Values{
		"title": {"Baru"},
		"slug":  {"lama"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := fx.campaigns.rows[3]; got.Title != "Baru" || got.Slug != "lama" || got.IsActive {
		t.Errorf("updated = %+v", got)
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin/campaigns/3/edit", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `value="Baru"`) {
		t.Errorf("edit form: %d", rec.Code)
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/campaigns/3/delete", nil))
	if rec.Code != http.StatusSeeOther || len(fx.campaigns.rows) != 0 {
		t.Errorf("delete: %d, rows %d", rec.Code, len(fx.campaigns.rows))
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin/campaigns/3/edit", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("edit deleted row status = %d; want 404", rec.Code)
	}
}

func TestAdminDonations(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.donations.rows[1] = &models.Donation{ID: 1, OrderID: "IARK-A", DonorName: "Ani", Amount: 50000, Status: models.DonationStatusPending}
	fx.donations.rows[2] = &models.Donation{ID: 2, OrderID: "IARK-B", DonorName: "Budi", Amount: 75000, Status: models.DonationStatusPaid}

	rec := serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin/donations?status=pending", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "IARK-A") || strings.Contains(body, "IARK-B") {
		t.Errorf("status filter: %d", rec.Code)
	}
	if !strings.Contains(body, "/admin/donations/1/mark-paid") {
		t.Error("pending donation should offer mark paid")
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin/donations/new", nil))
	if rec.Code == http.StatusOK {
		t.Error("donations should not be creatable")
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/donations/1/mark-paid", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/donations?flash=paid" {
		t.Fatalf("mark paid: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(fx.marker.marked) != 1 || fx.marker.marked[0] != "IARK-A" {
		t.Errorf("marked = %v", fx.marker.marked)
	}
}

func TestAdminChangeRole(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.profiles.rows[5] = &models.Profile{ID: 5, FullName: "Ani", Email: "ani@example.com", Role: models.RoleAlumni}

	rec := serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/users/5/role?role=admin", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if fx.store.roles[5] != models.RoleAdmin {
		t.Errorf("role = %q", fx.store.roles[5])
	}

	rec = serve(fx.e, httptest.NewRequest(http.MethodPost, "/admin/users/5/role?role=root", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown role status = %d; want 400", rec.Code)
	}
}

func TestAdminEventRegistrations(t *testing.T) {
	fx := newAdminFixture(t, nil)
	fx.events.rows[2] = &models.Event{ID: 2, Title: "Reuni Akbar"}
	fx.store.registrations = []models.EventRegistration{
		{EventID: 2, Profile: models.Profile{FullName: "Ani", Email: "ani@example.com"}},
	}

	rec := serve(fx.e, httptest.NewRequest(http.MethodGet, "/admin/events/2/registrations", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "Reuni Akbar") || !strings.Contains(body, "ani@example.com") {
		t.Errorf("registrations page: %d", rec.Code)
	}
}
