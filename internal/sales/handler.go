package sales

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler exposes sales endpoints.
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

// MountAdminRoutes registers the full sales management surface.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/summary", h.handleSummary)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

// MountWorkerRoutes registers recording routes for staff and crew. Listings
// only include the caller's own records.
func (h *Handler) MountWorkerRoutes(r chi.Router) {
	r.Get("/", h.handleListMine)
	r.Post("/", h.handleCreate)
}

func rangeFilter(r *http.Request) (ListFilter, error) {
	from, err := httpx.QueryDate(r, "from")
	if err != nil {
		return ListFilter{}, err
	}
	to, err := httpx.QueryDate(r, "to")
	if err != nil {
		return ListFilter{}, err
	}
	outletID, err := httpx.QueryInt64(r, "outlet_id")
	if err != nil {
		return ListFilter{}, err
	}
	return ListFilter{From: from, To: to, OutletID: outletID}, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := rangeFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.list(w, r, filter)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	filter, err := rangeFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.RecordedBy = shared.ActorID(r.Context())
	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	rows, meta, err := h.service.List(r.Context(), filter, shared.TableQueryFromRequest(r))
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: meta})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter, err := rangeFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sum, err := h.service.Summary(r.Context(), period, filter.From, filter.To, filter.OutletID)
	if err != nil {
		h.fail(w, "sales summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get sales record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create sales record", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
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
	rec, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update sales record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete sales record", err)
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
