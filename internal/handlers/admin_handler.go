package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/models"
	"iark_app/internal/services"
	"iark_app/internal/store"
	"iark_app/web"
	"iark_app/web/components"
)

const displayOrder = "order_index asc, id asc"

// AdminStore is the store surface the back-office needs beyond the generic resources
type AdminStore interface {
	SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error)
	ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]models.EventRegistration, error)
	SetProfileRole(ctx context.Context, id uint, role models.Role) error
}

// DonationMarker settles a donation confirmed outside the gateway
type DonationMarker interface {
	MarkPaidManually(ctx context.Context, orderID string) error
}

type adminResource interface {
	meta() resourceMeta
	bindEnv(env *adminEnv)
	register(g *echo.Group)
}

// AdminHandler wires the back-office resources and their extra actions
type AdminHandler struct {
	env       *adminEnv
	resources []adminResource

	store     AdminStore
	donations DonationMarker

	donationRepo Repository[models.Donation]
	profileRepo  Repository[models.Profile]
	eventRepo    Repository[models.Event]
}

// NewAdminHandler builds the store-backed resources
func NewAdminHandler(s *store.Store, donations DonationMarker, cache *services.RedisCache, uploader Uploader) *AdminHandler {
	donationRepo := newStoreRepository[models.Donation](s, "created_at desc")
	donationRepo.list = func(ctx context.Context) ([]models.Donation, error) {
		return s.ListDonations(ctx, store.DonationFilter{})
	}
	profileRepo := newStoreRepository[models.Profile](s, "full_name asc")
	profileRepo.list = s.ListProfiles
	eventRepo := newStoreRepository[models.Event](s, "starts_at desc")
	clusterRepo := newStoreRepository[models.Cluster](s, displayOrder)

	clusterOptions := func(ctx context.Context) ([]option, error) {
		clusters, err := clusterRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		opts := []option{{Value: "", Label: "-"}}
		for _, cl := range clusters {
			opts = append(opts, option{Value: strconv.FormatUint(uint64(cl.ID), 10), Label: cl.Name})
		}
		return opts, nil
	}

	return newAdminHandler(s, donations, cache, uploader,
		campaignResource(newStoreRepository[models.Campaign](s, "created_at desc"), s),
		clusterResource(clusterRepo),
		donationResource(donationRepo),
		dormitoryResource(newStoreRepository[models.Dormitory](s, displayOrder)),
		eventResource(eventRepo),
		heroSlideResource(newStoreRepository[models.HeroSlide](s, displayOrder)),
		managementResource(newStoreRepository[models.ManagementMember](s, displayOrder)),
		testimonialResource(newStoreRepository[models.Testimonial](s, displayOrder)),
		userResource(profileRepo, clusterOptions, cache),
	).withRepos(donationRepo, profileRepo, eventRepo)
}

func newAdminHandler(s AdminStore, donations DonationMarker, cache *services.RedisCache, uploader Uploader, resources ...adminResource) *AdminHandler {
	env := &adminEnv{cache: cache, uploader: uploader}
	for _, r := range resources {
		env.nav = append(env.nav, r.meta())
		r.bindEnv(env)
	}
	return &AdminHandler{env: env, resources: resources, store: s, donations: donations}
}

func (h *AdminHandler) withRepos(donations Repository[models.Donation], profiles Repository[models.Profile], events Repository[models.Event]) *AdminHandler {
	h.donationRepo = donations
	h.profileRepo = profiles
	h.eventRepo = events
	return h
}

// Register mounts every resource and the extra actions on an admin-only group
func (h *AdminHandler) Register(g *echo.Group) {
	g.GET("", h.Index)
	g.POST("/donations/:id/mark-paid", h.MarkDonationPaid)
	g.POST("/users/:id/role", h.ChangeRole)
	g.GET("/events/:id/registrations", h.EventRegistrations)
	for _, r := range h.resources {
		r.register(g)
	}
}

// Index opens the first resource
func (h *AdminHandler) Index(c echo.Context) error {
	if len(h.env.nav) == 0 {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/"+h.env.nav[0].Slug)
}

// MarkDonationPaid settles a pending donation by hand
func (h *AdminHandler) MarkDonationPaid(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	donation, err := h.donationRepo.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, "Donasi tidak ditemukan.")
	}
	if err := h.donations.MarkPaidManually(ctx, donation.OrderID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	log.WithField("order_id", donation.OrderID).Info("Donation marked paid by admin")
	h.env.invalidate(ctx)
	return redirect(c, "/admin/donations?flash=paid")
}

// ChangeRole grants or revokes the admin role
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	role := models.Role(c.QueryParam("role"))
	if role != models.RoleAdmin && role != models.RoleAlumni {
		return echo.NewHTTPError(http.StatusBadRequest, "Peran tidak dikenal.")
	}
	ctx := c.Request().Context()

	profile, err := h.profileRepo.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, "Pengguna tidak ditemukan.")
	}
	if err := h.store.SetProfileRole(ctx, id, role); err != nil {
		return notFoundOr(err, "Pengguna tidak ditemukan.")
	}
	if profile.FirebaseUID != "" {
		if err := h.env.cache.Delete(ctx, services.IdentityCacheKey(profile.FirebaseUID)); err != nil {
			log.WithError(err).Warn("admin: failed to drop cached identity")
		}
	}
	return redirect(c, "/admin/users?flash=role")
}

// EventRegistrations lists who registered for an event
func (h *AdminHandler) EventRegistrations(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	event, err := h.eventRepo.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, "Acara tidak ditemukan.")
	}
	registrations, err := h.store.ListRegistrationsByEvent(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	return c.Render(http.StatusOK, "admin_registrations.html", map[string]interface{}{
		"Event":          event,
		"Registrations":  registrations,
		"IsAdminPage":    true,
		"ResourceSlug":   "events",
		"AdminResources": h.env.nav,
		"Breadcrumbs": breadcrumbs(
			components.Breadcrumb{Title: "Admin", URL: "/admin"},
			components.Breadcrumb{Title: "Acara", URL: "/admin/events"},
			components.Breadcrumb{Title: event.Title},
		),
	})
}

func campaignResource(repo Repository[models.Campaign], slugs interface {
	SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error)
}) *Resource[models.Campaign] {
	return &Resource[models.Campaign]{
		Meta: resourceMeta{
			Slug: "campaigns", Title: "Program Donasi",
			Columns:   []string{"Judul", "Slug", "Target", "Berakhir", "Aktif"},
			Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "title", Label: "Judul", Kind: "text", Required: true},
			{Name: "slug", Label: "Slug (kosongkan untuk otomatis)", Kind: "text"},
			{Name: "description", Label: "Deskripsi", Kind: "textarea"},
			{Name: "image_url", Label: "Gambar", Kind: "image"},
			{Name: "target_amount", Label: "Target (Rp)", Kind: "number"},
			{Name: "end_date", Label: "Berakhir", Kind: "datetime"},
			{Name: "is_active", Label: "Aktif", Kind: "checkbox"},
		},
		ID: func(m models.Campaign) uint { return m.ID },
		Row: func(m models.Campaign) []string {
			end := ""
			if m.EndDate != nil {
				end = web.FormatDate(*m.EndDate)
			}
			return []string{m.Title, m.Slug, models.FormatRupiah(m.TargetAmount), end, yesNo(m.IsActive)}
		},
		Search: func(m models.Campaign) []string { return []string{m.Title, m.Slug} },
		Values: func(m models.Campaign) map[string]string {
			return map[string]string{
				"title":         m.Title,
				"slug":          m.Slug,
				"description":   m.Description,
				"image_url":     m.ImageURL,
				"target_amount": strconv.FormatInt(m.TargetAmount, 10),
				"end_date":      timeValue(m.EndDate),
				"is_active":     boolValue(m.IsActive || m.ID == 0),
			}
		},
		Bind: func(m *models.Campaign, f formValues) error {
			var err error
			if m.Title, err = f.required("title", "Judul"); err != nil {
				return err
			}
			m.Slug = slugify(f.str("slug"))
			if m.Slug == "" {
				m.Slug = slugify(m.Title)
			}
			m.Description = f.str("description")
			m.ImageURL = f.str("image_url")
			if m.TargetAmount, err = f.number64("target_amount", "Target"); err != nil {
				return err
			}
			if m.EndDate, err = f.optionalDatetime("end_date", "Tanggal berakhir"); err != nil {
				return err
			}
			m.IsActive = f.boolean("is_active")
			return nil
		},
		Validate: func(ctx context.Context, m *models.Campaign) error {
			if m.Slug == "" {
				return invalid("Slug tidak valid.")
			}
			taken, err := slugs.SlugTaken(ctx, m.Slug, m.ID)
			if err != nil {
				return err
			}
			if taken {
				return invalid("Slug %q sudah dipakai program lain.", m.Slug)
			}
			return nil
		},
		SetImage: func(m *models.Campaign, url string) { m.ImageURL = url },
		Actions: func(m models.Campaign) []rowAction {
			return []rowAction{{Label: "Lihat", URL: checkoutPath(m.Slug)}}
		},
	}
}

func clusterResource(repo Repository[models.Cluster]) *Resource[models.Cluster] {
	return &Resource[models.Cluster]{
		Meta: resourceMeta{
			Slug: "clusters", Title: "Klaster",
			Columns: []string{"Nama", "Deskripsi"},
			Ordered: true, Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "name", Label: "Nama", Kind: "text", Required: true},
			{Name: "description", Label: "Deskripsi", Kind: "textarea"},
		},
		ID:     func(m models.Cluster) uint { return m.ID },
		Row:    func(m models.Cluster) []string { return []string{m.Name, truncate(m.Description, 80)} },
		Search: func(m models.Cluster) []string { return []string{m.Name, m.Description} },
		Values: func(m models.Cluster) map[string]string {
			return map[string]string{"name": m.Name, "description": m.Description}
		},
		Bind: func(m *models.Cluster, f formValues) error {
			var err error
			if m.Name, err = f.required("name", "Nama"); err != nil {
				return err
			}
			m.Description = f.str("description")
			return nil
		},
		SetOrder: func(m *models.Cluster, i int) { m.OrderIndex = i },
	}
}

var donationStatuses = []string{
	string(models.DonationStatusPending),
	string(models.DonationStatusPaid),
	string(models.DonationStatusFailed),
	string(models.DonationStatusExpired),
}

func donationResource(repo Repository[models.Donation]) *Resource[models.Donation] {
	return &Resource[models.Donation]{
		Meta: resourceMeta{
			Slug: "donations", Title: "Donasi",
			Columns:  []string{"Tanggal", "No. Donasi", "Donatur", "Program", "Nominal", "Status"},
			Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "donor_name", Label: "Nama donatur", Kind: "text"},
			{Name: "donor_email", Label: "Email", Kind: "text"},
			{Name: "donor_phone", Label: "No. WhatsApp", Kind: "text"},
			{Name: "message", Label: "Pesan", Kind: "textarea"},
			{Name: "is_anonymous", Label: "Anonim", Kind: "checkbox"},
		},
		ID: func(m models.Donation) uint { return m.ID },
		Row: func(m models.Donation) []string {
			donor := m.DonorName
			if m.IsAnonymous {
				donor += " (anonim)"
			}
			return []string{
				web.FormatDateTime(m.CreatedAt), m.OrderID, donor, m.CampaignTitle(),
				models.FormatRupiah(m.Amount), string(m.Status),
			}
		},
		Search: func(m models.Donation) []string {
			return []string{m.OrderID, m.DonorName, m.DonorEmail, m.DonorPhone, m.CampaignTitle()}
		},
		Values: func(m models.Donation) map[string]string {
			return map[string]string{
				"donor_name":   m.DonorName,
				"donor_email":  m.DonorEmail,
				"donor_phone":  m.DonorPhone,
				"message":      m.Message,
				"is_anonymous": boolValue(m.IsAnonymous),
			}
		},
		Bind: func(m *models.Donation, f formValues) error {
			m.DonorName = f.str("donor_name")
			m.DonorEmail = f.str("donor_email")
			m.DonorPhone = f.str("donor_phone")
			m.Message = f.str("message")
			m.IsAnonymous = f.boolean("is_anonymous") || m.IsGuest
			if m.DonorName == "" {
				m.DonorName = models.AnonymousDonorName
			}
			return nil
		},
		StatusOptions: donationStatuses,
		Status:        func(m models.Donation) string { return string(m.Status) },
		Actions: func(m models.Donation) []rowAction {
			if m.Status != models.DonationStatusPending {
				return nil
			}
			return []rowAction{{
				Label:   "Tandai lunas",
				URL:     fmt.Sprintf("/admin/donations/%d/mark-paid", m.ID),
				Post:    true,
				Confirm: "Tandai donasi " + m.OrderID + " sebagai lunas?",
			}}
		},
	}
}

func dormitoryResource(repo Repository[models.Dormitory]) *Resource[models.Dormitory] {
	return &Resource[models.Dormitory]{
		Meta: resourceMeta{
			Slug: "dormitories", Title: "Asrama",
			Columns: []string{"Nama", "Alamat"},
			Ordered: true, Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "name", Label: "Nama", Kind: "text", Required: true},
			{Name: "address", Label: "Alamat", Kind: "textarea"},
			{Name: "description", Label: "Deskripsi", Kind: "textarea"},
			{Name: "image_url", Label: "Foto", Kind: "image"},
		},
		ID:     func(m models.Dormitory) uint { return m.ID },
		Row:    func(m models.Dormitory) []string { return []string{m.Name, truncate(m.Address, 80)} },
		Search: func(m models.Dormitory) []string { return []string{m.Name, m.Address} },
		Values: func(m models.Dormitory) map[string]string {
			return map[string]string{
				"name":        m.Name,
				"address":     m.Address,
				"description": m.Description,
				"image_url":   m.ImageURL,
			}
		},
		Bind: func(m *models.Dormitory, f formValues) error {
			var err error
			if m.Name, err = f.required("name", "Nama"); err != nil {
				return err
			}
			m.Address = f.str("address")
			m.Description = f.str("description")
			m.ImageURL = f.str("image_url")
			return nil
		},
		SetOrder: func(m *models.Dormitory, i int) { m.OrderIndex = i },
		SetImage: func(m *models.Dormitory, url string) { m.ImageURL = url },
	}
}

func eventResource(repo Repository[models.Event]) *Resource[models.Event] {
	return &Resource[models.Event]{
		Meta: resourceMeta{
			Slug: "events", Title: "Acara",
			Columns:   []string{"Judul", "Waktu", "Lokasi", "Kuota", "Tayang"},
			Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "title", Label: "Judul", Kind: "text", Required: true},
			{Name: "starts_at", Label: "Mulai", Kind: "datetime", Required: true},
			{Name: "ends_at", Label: "Selesai", Kind: "datetime"},
			{Name: "location", Label: "Lokasi", Kind: "text"},
			{Name: "description", Label: "Deskripsi", Kind: "textarea"},
			{Name: "image_url", Label: "Poster", Kind: "image"},
			{Name: "capacity", Label: "Kuota (0 = tanpa batas)", Kind: "number"},
			{Name: "is_published", Label: "Tayangkan", Kind: "checkbox"},
		},
		ID: func(m models.Event) uint { return m.ID },
		Row: func(m models.Event) []string {
			capacity := "-"
			if m.Capacity > 0 {
				capacity = strconv.Itoa(m.Capacity)
			}
			return []string{m.Title, web.FormatDateTime(m.StartsAt), m.Location, capacity, yesNo(m.IsPublished)}
		},
		Search: func(m models.Event) []string { return []string{m.Title, m.Location} },
		Values: func(m models.Event) map[string]string {
			return map[string]string{
				"title":        m.Title,
				"starts_at":    web.FormatDateTimeLocal(m.StartsAt),
				"ends_at":      timeValue(m.EndsAt),
				"location":     m.Location,
				"description":  m.Description,
				"image_url":    m.ImageURL,
				"capacity":     strconv.Itoa(m.Capacity),
				"is_published": boolValue(m.IsPublished || m.ID == 0),
			}
		},
		Bind: func(m *models.Event, f formValues) error {
			var err error
			if m.Title, err = f.required("title", "Judul"); err != nil {
				return err
			}
			if m.StartsAt, err = f.datetime("starts_at", "Waktu mulai"); err != nil {
				return err
			}
			if m.EndsAt, err = f.optionalDatetime("ends_at", "Waktu selesai"); err != nil {
				return err
			}
			if m.EndsAt != nil && m.EndsAt.Before(m.StartsAt) {
				return invalid("Waktu selesai harus setelah waktu mulai.")
			}
			m.Location = f.str("location")
			m.Description = f.str("description")
			m.ImageURL = f.str("image_url")
			if m.Capacity, err = f.number("capacity", "Kuota"); err != nil {
				return err
			}
			m.IsPublished = f.boolean("is_published")
			return nil
		},
		SetImage: func(m *models.Event, url string) { m.ImageURL = url },
		Actions: func(m models.Event) []rowAction {
			return []rowAction{{Label: "Peserta", URL: fmt.Sprintf("/admin/events/%d/registrations", m.ID)}}
		},
	}
}

func heroSlideResource(repo Repository[models.HeroSlide]) *Resource[models.HeroSlide] {
	return &Resource[models.HeroSlide]{
		Meta: resourceMeta{
			Slug: "hero-slides", Title: "Hero Slide",
			Columns: []string{"Judul", "Tautan", "Aktif"},
			Ordered: true, Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "title", Label: "Judul", Kind: "text", Required: true},
			{Name: "subtitle", Label: "Subjudul", Kind: "textarea"},
			{Name: "image_url", Label: "Gambar", Kind: "image"},
			{Name: "link_url", Label: "Tautan", Kind: "text"},
			{Name: "is_active", Label: "Aktif", Kind: "checkbox"},
		},
		ID:     func(m models.HeroSlide) uint { return m.ID },
		Row:    func(m models.HeroSlide) []string { return []string{m.Title, m.LinkURL, yesNo(m.IsActive)} },
		Search: func(m models.HeroSlide) []string { return []string{m.Title, m.Subtitle} },
		Values: func(m models.HeroSlide) map[string]string {
			return map[string]string{
				"title":     m.Title,
				"subtitle":  m.Subtitle,
				"image_url": m.ImageURL,
				"link_url":  m.LinkURL,
				"is_active": boolValue(m.IsActive || m.ID == 0),
			}
		},
		Bind: func(m *models.HeroSlide, f formValues) error {
			var err error
			if m.Title, err = f.required("title", "Judul"); err != nil {
				return err
			}
			m.Subtitle = f.str("subtitle")
			m.ImageURL = f.str("image_url")
			m.LinkURL = f.str("link_url")
			m.IsActive = f.boolean("is_active")
			return nil
		},
		SetOrder: func(m *models.HeroSlide, i int) { m.OrderIndex = i },
		SetImage: func(m *models.HeroSlide, url string) { m.ImageURL = url },
	}
}

func managementResource(repo Repository[models.ManagementMember]) *Resource[models.ManagementMember] {
	return &Resource[models.ManagementMember]{
		Meta: resourceMeta{
			Slug: "management", Title: "Pengurus",
			Columns: []string{"Nama", "Jabatan", "Periode"},
			Ordered: true, Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "name", Label: "Nama", Kind: "text", Required: true},
			{Name: "position", Label: "Jabatan", Kind: "text"},
			{Name: "period", Label: "Periode", Kind: "text"},
			{Name: "photo_url", Label: "Foto", Kind: "image"},
		},
		ID:     func(m models.ManagementMember) uint { return m.ID },
		Row:    func(m models.ManagementMember) []string { return []string{m.Name, m.Position, m.Period} },
		Search: func(m models.ManagementMember) []string { return []string{m.Name, m.Position, m.Period} },
		Values: func(m models.ManagementMember) map[string]string {
			return map[string]string{
				"name":      m.Name,
				"position":  m.Position,
				"period":    m.Period,
				"photo_url": m.PhotoURL,
			}
		},
		Bind: func(m *models.ManagementMember, f formValues) error {
			var err error
			if m.Name, err = f.required("name", "Nama"); err != nil {
				return err
			}
			m.Position = f.str("position")
			m.Period = f.str("period")
			m.PhotoURL = f.str("photo_url")
			return nil
		},
		SetOrder: func(m *models.ManagementMember, i int) { m.OrderIndex = i },
		SetImage: func(m *models.ManagementMember, url string) { m.PhotoURL = url },
	}
}

func testimonialResource(repo Repository[models.Testimonial]) *Resource[models.Testimonial] {
	return &Resource[models.Testimonial]{
		Meta: resourceMeta{
			Slug: "testimonials", Title: "Testimoni",
			Columns: []string{"Nama", "Angkatan", "Kutipan", "Tayang"},
			Ordered: true, Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "name", Label: "Nama", Kind: "text", Required: true},
			{Name: "batch", Label: "Angkatan", Kind: "text"},
			{Name: "quote", Label: "Kutipan", Kind: "textarea", Required: true},
			{Name: "photo_url", Label: "Foto", Kind: "image"},
			{Name: "is_published", Label: "Tayangkan", Kind: "checkbox"},
		},
		ID: func(m models.Testimonial) uint { return m.ID },
		Row: func(m models.Testimonial) []string {
			return []string{m.Name, m.Batch, truncate(m.Quote, 80), yesNo(m.IsPublished)}
		},
		Search: func(m models.Testimonial) []string { return []string{m.Name, m.Batch, m.Quote} },
		Values: func(m models.Testimonial) map[string]string {
			return map[string]string{
				"name":         m.Name,
				"batch":        m.Batch,
				"quote":        m.Quote,
				"photo_url":    m.PhotoURL,
				"is_published": boolValue(m.IsPublished || m.ID == 0),
			}
		},
		Bind: func(m *models.Testimonial, f formValues) error {
			var err error
			if m.Name, err = f.required("name", "Nama"); err != nil {
				return err
			}
			if m.Quote, err = f.required("quote", "Kutipan"); err != nil {
				return err
			}
			m.Batch = f.str("batch")
			m.PhotoURL = f.str("photo_url")
			m.IsPublished = f.boolean("is_published")
			return nil
		},
		SetOrder: func(m *models.Testimonial, i int) { m.OrderIndex = i },
		SetImage: func(m *models.Testimonial, url string) { m.PhotoURL = url },
	}
}

var roleOptions = []option{
	{Value: string(models.RoleAlumni), Label: "Alumni"},
	{Value: string(models.RoleAdmin), Label: "Admin"},
}

func userResource(repo Repository[models.Profile], clusters func(ctx context.Context) ([]option, error), cache *services.RedisCache) *Resource[models.Profile] {
	return &Resource[models.Profile]{
		Meta: resourceMeta{
			Slug: "users", Title: "Pengguna",
			Columns:   []string{"Nama", "Email", "Angkatan", "Klaster", "Peran"},
			Creatable: true, Editable: true, Deletable: true,
		},
		Repo: repo,
		Fields: []field{
			{Name: "full_name", Label: "Nama lengkap", Kind: "text", Required: true},
			{Name: "email", Label: "Email", Kind: "text", Required: true},
			{Name: "phone", Label: "No. WhatsApp", Kind: "text"},
			{Name: "graduation_year", Label: "Tahun lulus", Kind: "number"},
			{Name: "cluster_id", Label: "Klaster", Kind: "select"},
			{Name: "role", Label: "Peran", Kind: "select", Options: roleOptions},
		},
		ID: func(m models.Profile) uint { return m.ID },
		Row: func(m models.Profile) []string {
			year, cluster := "", ""
			if m.GraduationYear > 0 {
				year = strconv.Itoa(m.GraduationYear)
			}
			if m.Cluster != nil {
				cluster = m.Cluster.Name
			}
			return []string{m.FullName, m.Email, year, cluster, string(m.Role)}
		},
		Search: func(m models.Profile) []string { return []string{m.FullName, m.Email, m.Phone} },
		Values: func(m models.Profile) map[string]string {
			year := ""
			if m.GraduationYear > 0 {
				year = strconv.Itoa(m.GraduationYear)
			}
			role := string(m.Role)
			if role == "" {
				role = string(models.RoleAlumni)
			}
			return map[string]string{
				"full_name":       m.FullName,
				"email":           m.Email,
				"phone":           m.Phone,
				"graduation_year": year,
				"cluster_id":      uintValue(m.ClusterID),
				"role":            role,
			}
		},
		Bind: func(m *models.Profile, f formValues) error {
			var err error
			if m.FullName, err = f.required("full_name", "Nama lengkap"); err != nil {
				return err
			}
			if m.Email, err = f.required("email", "Email"); err != nil {
				return err
			}
			m.Phone = f.str("phone")
			if m.GraduationYear, err = f.number("graduation_year", "Tahun lulus"); err != nil {
				return err
			}
			m.ClusterID = f.optionalUint("cluster_id")
			m.Cluster = nil
			switch role := models.Role(f.str("role")); role {
			case models.RoleAdmin, models.RoleAlumni:
				m.Role = role
			default:
				return invalid("Peran tidak dikenal.")
			}
			return nil
		},
		Options: func(ctx context.Context) (map[string][]option, error) {
			opts, err := clusters(ctx)
			if err != nil {
				return nil, err
			}
			return map[string][]option{"cluster_id": opts}, nil
		},
		Actions: func(m models.Profile) []rowAction {
			if m.IsAdmin() {
				return []rowAction{{Label: "Jadikan alumni", URL: fmt.Sprintf("/admin/users/%d/role?role=alumni", m.ID), Post: true, Confirm: "Cabut akses admin " + m.FullName + "?"}}
			}
			return []rowAction{{Label: "Jadikan admin", URL: fmt.Sprintf("/admin/users/%d/role?role=admin", m.ID), Post: true, Confirm: "Jadikan " + m.FullName + " admin?"}}
		},
		AfterSave: func(ctx context.Context, m models.Profile) {
			if m.FirebaseUID == "" {
				return
			}
			if err := cache.Delete(ctx, services.IdentityCacheKey(m.FirebaseUID)); err != nil {
				log.WithError(err).Warn("admin: failed to drop cached identity")
			}
		},
	}
}
