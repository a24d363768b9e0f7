package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler exposes product endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountAdminRoutes registers the admin CRUD routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.list(false))
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/active", h.setActive)
	r.Delete("/{id}", h.delete)
}

// MountCatalogRoutes registers the read-only catalogue of active products.
func (h *Handler) MountCatalogRoutes(r chi.Router) {
	r.Get("/", h.list(true))
}

func (h *Handler) list(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Category: r.URL.Query().Get("category"), ActiveOnly: activeOnly}
		rows, meta, err := h.service.List(r.Context(), filter, shared.TableQueryFromRequest(r))
		if err != nil {
			h.fail(w, "list products", err)
			return
		}
		httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: meta})
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req activeRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		h.fail(w, "toggle product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
