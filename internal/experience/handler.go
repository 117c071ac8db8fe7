// AngelaMos | 2026
// handler.go

package experience

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/omarkt13/seafable/internal/core"
)

const maxDraftBytes = 64 << 10

type Handler struct {
	catalog   *Catalog
	echoer    *Echoer
	validator *validator.Validate
}

func NewHandler(catalog *Catalog, echoer *Echoer) *Handler {
	return &Handler{
		catalog:   catalog,
		echoer:    echoer,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes puts reads behind searchLimit and writes behind writeLimit.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	searchLimit, writeLimit func(http.Handler) http.Handler,
) {
	r.Route("/experiences", func(r chi.Router) {
		r.With(searchLimit).Get("/", h.List)
		r.With(searchLimit).Get("/{id}", h.Get)
		r.With(writeLimit).Post("/", h.Create)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParseSearchParams(r.URL.Query(), h.validator)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	items, total := h.catalog.Search(params)

	core.Paginated(w, items, params.Page, params.Limit, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	exp, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "experience")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, exp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDraftBytes)

	var draft map[string]any
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil || draft == nil {
		core.BadRequest(w, "request body must be a JSON object")
		return
	}

	core.Created(w, h.echoer.Echo(draft))
}
