package attendance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler exposes attendance endpoints.
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

// MountAdminRoutes registers attendance management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/recap", h.handleRecap)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

// MountWorkerRoutes registers self-service routes for staff and crew.
func (h *Handler) MountWorkerRoutes(r chi.Router) {
	r.Get("/", h.handleListMine)
	r.Get("/today", h.handleToday)
	r.Get("/recap", h.handleRecapMine)
	r.Post("/check-in", h.handleCheckIn)
	r.Post("/check-out", h.handleCheckOut)
}

func listFilter(r *http.Request) (ListFilter, error) {
	from, err := httpx.QueryDate(r, "from")
	if err != nil {
		return ListFilter{}, err
	}
	to, err := httpx.QueryDate(r, "to")
	if err != nil {
		return ListFilter{}, err
	}
	userID, err := httpx.QueryInt64(r, "user_id")
	if err != nil {
		return ListFilter{}, err
	}
	return ListFilter{UserID: userID, Status: Status(r.URL.Query().Get("status")), From: from, To: to}, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.list(w, r, filter)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.UserID = shared.ActorID(r.Context())
	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	rows, meta, err := h.service.List(r.Context(), filter, shared.TableQueryFromRequest(r))
	if err != nil {
		h.fail(w, "list attendance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: meta})
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Today(r.Context(), shared.ActorID(r.Context()))
	if err != nil {
		h.fail(w, "get today attendance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRecap(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.QueryInt64(r, "user_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recap(w, r, userID)
}

func (h *Handler) handleRecapMine(w http.ResponseWriter, r *http.Request) {
	h.recap(w, r, shared.ActorID(r.Context()))
}

func (h *Handler) recap(w http.ResponseWriter, r *http.Request, userID int64) {
	month := r.URL.Query().Get("month")
	rows, err := h.service.Recap(r.Context(), month, userID)
	if err != nil {
		h.fail(w, "attendance recap", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: rows, Meta: map[string]string{"month": month}})
}

func (h *Handler) bindCheck(r *http.Request) (CheckInput, error) {
	var in CheckInput
	if r.ContentLength == 0 {
		return in, nil
	}
	err := h.validator.Bind(r, &in)
	return in, err
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	in, err := h.bindCheck(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.CheckIn(r.Context(), shared.ActorID(r.Context()), in)
	if err != nil {
		h.fail(w, "check in", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	in, err := h.bindCheck(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.CheckOut(r.Context(), shared.ActorID(r.Context()), in)
	if err != nil {
		h.fail(w, "check out", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in RecordInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create attendance", err)
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
	var in RecordInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update attendance", err)
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
		h.fail(w, "delete attendance", err)
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
