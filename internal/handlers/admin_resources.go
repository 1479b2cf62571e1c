package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/listing"
	"iark_app/internal/services"
	"iark_app/internal/store"
	"iark_app/web/components"
)

// Repository is the storage behind one admin resource
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, item *T) error
	Save(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, id uint, dir store.Direction) error
	NextOrderIndex(ctx context.Context) (int, error)
}

// storeRepository implements Repository over the generic store functions
type storeRepository[T any] struct {
	s     *store.Store
	order string
	list  func(ctx context.Context) ([]T, error)
}

func newStoreRepository[T any](s *store.Store, order string) *storeRepository[T] {
	return &storeRepository[T]{s: s, order: order}
}

func (r *storeRepository[T]) List(ctx context.Context) ([]T, error) {
	if r.list != nil {
		return r.list(ctx)
	}
	return store.List[T](ctx, r.s, r.order)
}

func (r *storeRepository[T]) Get(ctx context.Context, id uint) (*T, error) {
	return store.Get[T](ctx, r.s, id)
}

func (r *storeRepository[T]) Create(ctx context.Context, item *T) error {
	return store.Create(ctx, r.s, item)
}

func (r *storeRepository[T]) Save(ctx context.Context, item *T) error {
	return store.Save(ctx, r.s, item)
}

func (r *storeRepository[T]) Delete(ctx context.Context, id uint) error {
	return store.Delete[T](ctx, r.s, id)
}

func (r *storeRepository[T]) Reorder(ctx context.Context, id uint, dir store.Direction) error {
	return store.Reorder[T](ctx, r.s, id, dir)
}

func (r *storeRepository[T]) NextOrderIndex(ctx context.Context) (int, error) {
	return store.NextOrderIndex[T](ctx, r.s)
}

// Uploader stores an uploaded image and returns its public URL; *services.ObjectStorage satisfies it
type Uploader interface {
	Upload(ctx context.Context, folder, contentType string, size int64, body io.Reader) (string, error)
}

// adminEnv is shared by every resource of the back-office
type adminEnv struct {
	cache    *services.RedisCache
	uploader Uploader
	nav      []resourceMeta
}

// invalidate drops the cached home page after any admin write
func (e *adminEnv) invalidate(ctx context.Context) {
	if err := e.cache.Delete(ctx, HomeCacheKey); err != nil {
		log.WithError(err).Warn("admin: failed to invalidate home cache")
	}
}

type resourceMeta struct {
	Slug      string
	Title     string
	Columns   []string
	Ordered   bool
	Creatable bool
	Editable  bool
	Deletable bool
}

type rowAction struct {
	Label   string
	URL     string
	Post    bool
	Confirm string
}

type adminRow struct {
	ID      uint
	Cells   []string
	Actions []rowAction
}

// Resource is one back-office table: list with search and paging, create, edit, delete
// and, for ordered tables, reorder.
type Resource[T any] struct {
	Meta   resourceMeta
	Repo   Repository[T]
	Fields []field

	ID     func(T) uint
	Row    func(T) []string
	Search func(T) []string
	Values func(T) map[string]string
	Bind   func(item *T, form formValues) error

	// optional hooks
	Options       func(ctx context.Context) (map[string][]option, error)
	Validate      func(ctx context.Context, item *T) error
	SetOrder      func(item *T, index int)
	SetImage      func(item *T, url string)
	Actions       func(T) []rowAction
	StatusOptions []string
	Status        func(T) string
	AfterSave     func(ctx context.Context, item T)

	env *adminEnv
}

func (r *Resource[T]) meta() resourceMeta { return r.Meta }

func (r *Resource[T]) bindEnv(env *adminEnv) { r.env = env }

func (r *Resource[T]) register(g *echo.Group) {
	base := "/" + r.Meta.Slug
	g.GET(base, r.List)
	if r.Meta.Creatable {
		g.GET(base+"/new", r.New)
		g.POST(base, r.Create)
	}
	if r.Meta.Editable {
		g.GET(base+"/:id/edit", r.Edit)
		g.POST(base+"/:id", r.Update)
	}
	if r.Meta.Deletable {
		g.POST(base+"/:id/delete", r.Delete)
	}
	if r.Meta.Ordered {
		g.POST(base+"/:id/reorder", r.Reorder)
	}
}

func (r *Resource[T]) listURL() string {
	return "/admin/" + r.Meta.Slug
}

func (r *Resource[T]) pageData(data map[string]interface{}) map[string]interface{} {
	data["Resource"] = r.Meta
	data["IsAdminPage"] = true
	data["ResourceSlug"] = r.Meta.Slug
	if r.env != nil {
		data["AdminResources"] = r.env.nav
	}
	return data
}

// List renders the table, filtered by q and status and paged by page
func (r *Resource[T]) List(c echo.Context) error {
	items, err := r.Repo.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	status := c.QueryParam("status")
	if status != "" && r.Status != nil {
		kept := items[:0:0]
		for _, item := range items {
			if r.Status(item) == status {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	query := c.QueryParam("q")
	if r.Search != nil {
		items = listing.Search(items, query, r.Search)
	}

	rows := make([]adminRow, 0, len(items))
	for _, item := range items {
		row := adminRow{ID: r.ID(item), Cells: r.Row(item)}
		if r.Actions != nil {
			row.Actions = r.Actions(item)
		}
		rows = append(rows, row)
	}

	data := r.pageData(map[string]interface{}{
		"Page":          listing.Paginate(rows, pageParam(c), listing.DefaultPageSize),
		"Query":         query,
		"Status":        status,
		"StatusOptions": r.StatusOptions,
		"Breadcrumbs": breadcrumbs(
			components.Breadcrumb{Title: "Admin", URL: "/admin"},
			components.Breadcrumb{Title: r.Meta.Title},
		),
	})
	if flash := c.QueryParam("flash"); flash != "" {
		data["Flash"] = flashMessages[flash]
		data["FlashKind"] = "success"
	}
	return c.Render(http.StatusOK, "admin_list.html", data)
}

var flashMessages = map[string]string{
	"created":   "Data berhasil ditambahkan.",
	"updated":   "Data berhasil disimpan.",
	"deleted":   "Data berhasil dihapus.",
	"reordered": "Urutan berhasil diubah.",
	"paid":      "Donasi ditandai lunas.",
	"role":      "Peran pengguna berhasil diubah.",
}

func (r *Resource[T]) renderForm(c echo.Context, code int, item *T, id uint, formErr error) error {
	var values map[string]string
	if item != nil {
		values = r.Values(*item)
	}

	var options map[string][]option
	if r.Options != nil {
		var err error
		if options, err = r.Options(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
		}
	}

	fields := make([]formField, 0, len(r.Fields))
	for _, f := range r.Fields {
		if opts, ok := options[f.Name]; ok {
			f.Options = opts
		}
		ff := formField{field: f, Value: values[f.Name]}
		if f.Kind == "checkbox" {
			ff.Checked = ff.Value == "true"
		}
		fields = append(fields, ff)
	}

	action := r.listURL()
	title := "Tambah"
	if id != 0 {
		action += "/" + strconv.FormatUint(uint64(id), 10)
		title = "Ubah"
	}

	data := r.pageData(map[string]interface{}{
		"Fields": fields,
		"IsEdit": id != 0,
		"Action": action,
		"Breadcrumbs": breadcrumbs(
			components.Breadcrumb{Title: "Admin", URL: "/admin"},
			components.Breadcrumb{Title: r.Meta.Title, URL: r.listURL()},
			components.Breadcrumb{Title: title},
		),
	})
	if formErr != nil {
		data["Error"] = formErr.Error()
	}
	return c.Render(code, "admin_form.html", data)
}

// New renders an empty form
func (r *Resource[T]) New(c echo.Context) error {
	item := new(T)
	return r.renderForm(c, http.StatusOK, item, 0, nil)
}

// Edit renders the form for an existing row
func (r *Resource[T]) Edit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item, err := r.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, "Data tidak ditemukan.")
	}
	return r.renderForm(c, http.StatusOK, item, id, nil)
}

// apply binds the posted form, uploads the image if one was sent and runs validation.
// Validation and upload failures are returned as validationError.
func (r *Resource[T]) apply(c echo.Context, item *T) error {
	if err := r.Bind(item, c.FormValue); err != nil {
		return err
	}

	if r.SetImage != nil {
		file, err := c.FormFile("image")
		if err == nil && file.Size > 0 {
			if r.env == nil || r.env.uploader == nil {
				return invalid("Unggah gambar belum dikonfigurasi. Isi URL gambar secara manual.")
			}
			src, err := file.Open()
			if err != nil {
				return invalid("Gagal membaca berkas gambar.")
			}
			defer src.Close()

			url, err := r.env.uploader.Upload(c.Request().Context(), r.Meta.Slug, file.Header.Get("Content-Type"), file.Size, src)
			if err != nil {
				log.WithError(err).WithField("resource", r.Meta.Slug).Warn("admin: image upload failed")
				return invalid("Gagal mengunggah gambar. Gunakan JPG, PNG, WEBP atau GIF maksimal 5 MB.")
			}
			r.SetImage(item, url)
		}
	}

	if r.Validate != nil {
		return r.Validate(c.Request().Context(), item)
	}
	return nil
}

// formFailure re-renders the form for validation errors and escalates anything else
func (r *Resource[T]) formFailure(c echo.Context, item *T, id uint, err error) error {
	var ve validationError
	if errors.As(err, &ve) {
		return r.renderForm(c, http.StatusUnprocessableEntity, item, id, ve)
	}
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}

func (r *Resource[T]) afterWrite(ctx context.Context, item *T) {
	if r.env != nil {
		r.env.invalidate(ctx)
	}
	if r.AfterSave != nil && item != nil {
		r.AfterSave(ctx, *item)
	}
}

// Create inserts a new row; ordered rows go to the end of the list
func (r *Resource[T]) Create(c echo.Context) error {
	ctx := c.Request().Context()
	item := new(T)
	if err := r.apply(c, item); err != nil {
		return r.formFailure(c, item, 0, err)
	}

	if r.SetOrder != nil {
		next, err := r.Repo.NextOrderIndex(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
		}
		r.SetOrder(item, next)
	}

	if err := r.Repo.Create(ctx, item); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	r.afterWrite(ctx, item)
	return redirect(c, r.listURL()+"?flash=created")
}

// Update saves an existing row
func (r *Resource[T]) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	item, err := r.Repo.Get(ctx, id)
	if err != nil {
		return notFoundOr(err, "Data tidak ditemukan.")
	}
	if err := r.apply(c, item); err != nil {
		return r.formFailure(c, item, id, err)
	}
	if err := r.Repo.Save(ctx, item); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	r.afterWrite(ctx, item)
	return redirect(c, r.listURL()+"?flash=updated")
}

// Delete soft-deletes a row
func (r *Resource[T]) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := r.Repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Data tidak ditemukan.")
	}
	r.afterWrite(ctx, nil)
	return redirect(c, r.listURL()+"?flash=deleted")
}

// Reorder moves a row one step up or down
func (r *Resource[T]) Reorder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	dir, err := store.ParseDirection(c.QueryParam("direction"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Arah urutan harus up atau down.")
	}

	ctx := c.Request().Context()
	if err := r.Repo.Reorder(ctx, id, dir); err != nil {
		return notFoundOr(err, "Data tidak ditemukan.")
	}
	r.afterWrite(ctx, nil)
	return redirect(c, r.listURL()+"?flash=reordered")
}
