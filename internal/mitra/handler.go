package mitra

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler exposes mitra endpoints.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	validator      *httpx.Validator
	reminderMonths int
}

// NewHandler constructs Handler. reminderMonths is the default window of the
// expiring listing.
func NewHandler(logger *slog.Logger, service *Service, reminderMonths int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if reminderMonths <= 0 {
		reminderMonths = 3
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator(), reminderMonths: reminderMonths}
}

// MountAdminRoutes registers admin management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/expiring", h.handleExpiring)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

// MountSelfRoutes registers routes a signed in mitra uses for its own record.
func (h *Handler) MountSelfRoutes(r chi.Router) {
	r.Get("/", h.handleSelf)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	outletID, err := httpx.QueryInt64(r, "outlet_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := ListFilter{Type: Type(r.URL.Query().Get("type")), OutletID: outletID}
	rows, meta, err := h.service.List(r.Context(), filter, shared.TableQueryFromRequest(r))
	if err != nil {
		h.fail(w, "list mitra", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: meta})
}

func (h *Handler) handleExpiring(w http.ResponseWriter, r *http.Request) {
	months := httpx.QueryInt(r, "months", h.reminderMonths)
	if months <= 0 {
		months = h.reminderMonths
	}
	rows, err := h.service.Expiring(r.Context(), months)
	if err != nil {
		h.fail(w, "list expiring mitra", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: map[string]int{"months": months}})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get mitra", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleSelf(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.ForUser(r.Context(), shared.ActorID(r.Context()))
	if err != nil {
		h.fail(w, "get own mitra", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create mitra", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
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
	m, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update mitra", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete mitra", err)
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
