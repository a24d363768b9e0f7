package packages

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler exposes package endpoints.
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

// MountAdminRoutes registers package management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

// MountPublicRoutes registers the unauthenticated catalogue.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/", h.handlePublic)
}

func (h *Handler) handlePublic(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Public(r.Context())
	if err != nil {
		h.fail(w, "list public packages", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	rows, meta, err := h.service.List(r.Context(), shared.TableQueryFromRequest(r))
	if err != nil {
		h.fail(w, "list packages", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: meta})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get package", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create package", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
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
		h.fail(w, "update package", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete package", err)
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
