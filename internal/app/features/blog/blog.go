// internal/app/features/blog/blog.go

// Package blog serves legal articles: the public, language-resolved reading
// API and the admin authoring API.
package blog

import (
	"fmt"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	blogstore "github.com/dalemusser/stratalaw/internal/app/store/blog"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/cache"
	"github.com/dalemusser/stratalaw/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratalaw/internal/app/system/inputval"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/locale"
	"github.com/dalemusser/stratalaw/internal/app/system/uploads"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	maxBodyBytes         = 2 << 20
	DefaultMaxImageBytes = 5 << 20
	// ImagePrefix is the storage folder for featured images. It is the only
	// folder served publicly from local storage.
	ImagePrefix = "blog"
)

// Handler provides blog handlers.
type Handler struct {
	posts         *blogstore.Store
	files         storage.Store
	cache         cache.Cache
	audit         *auditlog.Logger
	errLog        *errorsfeature.ErrorLogger
	logger        *zap.Logger
	maxImageBytes int64
}

// NewHandler creates a blog Handler. files may be nil, in which case image
// upload is unavailable and featured images are returned as stored paths.
func NewHandler(
	db *mongo.Database,
	files storage.Store,
	c cache.Cache,
	audit *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
	maxImageBytes int64,
) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &Handler{
		posts:         blogstore.New(db),
		files:         files,
		cache:         c,
		audit:         audit,
		errLog:        errLog,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// Routes returns the public router, mounted at /api/posts.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listPublished)
	r.Get("/search", h.search)
	r.Get("/{slug}", h.getBySlug)
	return r
}

// AdminRoutes returns the authoring router, mounted at /api/admin/posts
// behind the admin gate.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listAll)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/publish", h.publish)
	r.Post("/{id}/image", h.uploadImage)
	return r
}

func (h *Handler) imageURL(path string) string {
	if h.files == nil || path == "" {
		return path
	}
	return h.files.URL(path)
}

func (h *Handler) resolveAll(posts []models.BlogPost, lang string) []models.BlogPostView {
	out := make([]models.BlogPostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Resolve(lang, h.imageURL))
	}
	return out
}

// --- public ---

func (h *Handler) listPublished(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := locale.FromRequest(r)
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	limit = storeutil.ClampLimit(limit, blogstore.DefaultLimit, blogstore.MaxLimit)

	key := fmt.Sprintf("list:%s:%d", lang, limit)
	views, err := cache.Fetch(ctx, h.cache, h.logger, cache.NSPosts, key, func() ([]models.BlogPostView, error) {
		posts, err := h.posts.ListPublished(ctx, limit)
		if err != nil {
			return nil, err
		}
		return h.resolveAll(posts, lang), nil
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list published posts", err)
		return
	}
	jsonutil.OK(w, views)
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := locale.FromRequest(r)
	slug := chi.URLParam(r, "slug")

	view, err := cache.Fetch(ctx, h.cache, h.logger, cache.NSPosts, "slug:"+lang+":"+slug, func() (models.BlogPostView, error) {
		p, err := h.posts.GetPublishedBySlug(ctx, slug)
		if err != nil {
			return models.BlogPostView{}, err
		}
		return p.Resolve(lang, h.imageURL), nil
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to load post", err)
		return
	}
	jsonutil.OK(w, view)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.SearchPublished(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.errLog.StoreError(w, r, "failed to search posts", err)
		return
	}
	jsonutil.OK(w, h.resolveAll(posts, locale.FromRequest(r)))
}

// --- admin ---

type createInput struct {
	Title          models.LocalizedText `json:"title" validate:"localized" label:"Title"`
	Content        models.LocalizedText `json:"content" validate:"localized" label:"Content"`
	Excerpt        models.LocalizedText `json:"excerpt"`
	Slug           string               `json:"slug" validate:"max=160" label:"Slug"`
	Published      bool                 `json:"published"`
	Tags           []string             `json:"tags"`
	SEOTitle       string               `json:"seo_title" validate:"max=200" label:"SEO title"`
	SEODescription string               `json:"seo_description" validate:"max=400" label:"SEO description"`
}

type updateInput struct {
	Title          *models.LocalizedText `json:"title"`
	Content        *models.LocalizedText `json:"content"`
	Excerpt        *models.LocalizedText `json:"excerpt"`
	Slug           *string               `json:"slug"`
	Tags           *[]string             `json:"tags"`
	SEOTitle       *string               `json:"seo_title"`
	SEODescription *string               `json:"seo_description"`
}

func sanitizedPtr(t *models.LocalizedText, fn func(models.LocalizedText) models.LocalizedText) *models.LocalizedText {
	if t == nil {
		return nil
	}
	v := fn(*t)
	return &v
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll(r.Context())
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list posts", err)
		return
	}
	jsonutil.OK(w, posts)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	p, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to load post", err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	var in createInput
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	p, err := h.posts.Create(ctx, blogstore.CreateInput{
		Title:          htmlsanitize.PlainText(in.Title),
		Content:        htmlsanitize.RichText(in.Content),
		Excerpt:        htmlsanitize.PlainText(in.Excerpt),
		Slug:           in.Slug,
		Published:      in.Published,
		Tags:           in.Tags,
		SEOTitle:       htmlsanitize.Plain(in.SEOTitle),
		SEODescription: htmlsanitize.Plain(in.SEODescription),
		AuthorID:       actor.UserID(),
		AuthorName:     actor.Name,
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to create post", err)
		return
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSPosts)
	h.audit.Admin(r, actor.ID, auditstore.EventPostCreated, map[string]string{"post_id": p.ID.Hex(), "slug": p.Slug})
	jsonutil.Created(w, map[string]string{"id": p.ID.Hex(), "slug": p.Slug})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	var in updateInput
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}

	patch := blogstore.UpdateInput{
		Title:   sanitizedPtr(in.Title, htmlsanitize.PlainText),
		Content: sanitizedPtr(in.Content, htmlsanitize.RichText),
		Excerpt: sanitizedPtr(in.Excerpt, htmlsanitize.PlainText),
		Slug:    in.Slug,
		Tags:    in.Tags,
	}
	if in.SEOTitle != nil {
		s := htmlsanitize.Plain(*in.SEOTitle)
		patch.SEOTitle = &s
	}
	if in.SEODescription != nil {
		s := htmlsanitize.Plain(*in.SEODescription)
		patch.SEODescription = &s
	}

	if err := h.posts.Update(ctx, id, patch); err != nil {
		h.errLog.StoreError(w, r, "failed to update post", err)
		return
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSPosts)
	h.audit.Admin(r, actor.ID, auditstore.EventPostUpdated, map[string]string{"post_id": id.Hex()})
	jsonutil.NoContent(w)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	var in struct {
		Published *bool `json:"published"`
	}
	if err := jsonutil.DecodeStrict(w, r, &in, 1<<10); err != nil || in.Published == nil {
		jsonutil.BadRequest(w, "published must be true or false")
		return
	}

	if err := h.posts.SetPublished(ctx, id, *in.Published); err != nil {
		h.errLog.StoreError(w, r, "failed to change post visibility", err)
		return
	}

	event := auditstore.EventPostUnpublished
	if *in.Published {
		event = auditstore.EventPostPublished
	}
	cache.Invalidate(ctx, h.cache, h.logger, cache.NSPosts)
	h.audit.Admin(r, actor.ID, event, map[string]string{"post_id": id.Hex()})
	jsonutil.NoContent(w)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	if h.files == nil {
		jsonutil.Error(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}

	fh, err := uploads.FromRequest(w, r, "image", h.maxImageBytes)
	if err != nil {
		uploads.WriteError(w, err)
		return
	}
	saved, err := uploads.Save(ctx, h.files, fh, uploads.Policy{
		Prefix:   ImagePrefix,
		MaxBytes: h.maxImageBytes,
		Types:    uploads.ImageTypes,
	})
	if err != nil {
		if !uploads.IsClientError(err) {
			h.errLog.Log(r, "failed to store featured image", err)
		}
		uploads.WriteError(w, err)
		return
	}

	previous, err := h.posts.SetFeaturedImage(ctx, id, saved.Path)
	if err != nil {
		_ = h.files.Delete(ctx, saved.Path)
		h.errLog.StoreError(w, r, "failed to set featured image", err)
		return
	}
	if previous != "" && previous != saved.Path {
		if err := h.files.Delete(ctx, previous); err != nil {
			h.logger.Warn("failed to delete old featured image", zap.String("path", previous), zap.Error(err))
		}
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSPosts)
	h.audit.Admin(r, actor.ID, auditstore.EventPostUpdated, map[string]string{"post_id": id.Hex(), "featured_image": saved.Path})
	jsonutil.OK(w, map[string]string{"featured_image": h.imageURL(saved.Path)})
}
