package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountAdminRoutes registers full inventory management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	h.MountStaffRoutes(r)
	r.Post("/", h.handleCreate)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

// MountStaffRoutes registers the routes outlet staff and crew use to check
// and move stock.
func (h *Handler) MountStaffRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/low-stock", h.handleLowStock)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/movements", h.handleMovements)
	r.Post("/{id}/movements", h.handlePostMovement)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Category: r.URL.Query().Get("category"),
		LowOnly:  r.URL.Query().Get("status") == string(StatusLow),
	}
	rows, meta, err := h.service.List(r.Context(), filter, shared.TableQueryFromRequest(r))
	if err != nil {
		h.fail(w, "list inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: meta})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context())
	if err != nil {
		h.fail(w, "list low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get inventory item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create inventory item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ItemInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update inventory item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete inventory item", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Movements(r.Context(), id, httpx.QueryInt(r, "limit", 100))
	if err != nil {
		h.fail(w, "list movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows})
}

type movementResponse struct {
	Movement Movement `json:"movement"`
	Item     Item     `json:"item"`
}

func (h *Handler) handlePostMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in MovementInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	movement, item, err := h.service.PostMovement(r.Context(), id, in)
	if err != nil {
		h.fail(w, "post movement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movementResponse{Movement: movement, Item: item})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
