// internal/app/features/languages/languages.go
package languages

import (
	"net/http"

	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/locale"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type response struct {
	Languages []models.Language `json:"languages"`
	Current   string            `json:"current"`
	Default   string            `json:"default"`
}

// Routes serves GET / with the site languages and the one this request
// resolved to.
func Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", list)
	return r
}

func list(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, response{
		Languages: models.SupportedLanguages,
		Current:   locale.FromRequest(r),
		Default:   models.DefaultLang,
	})
}
