package restock

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// IdempotencyHeader carries the client supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

// MitraResolver maps a signed in user to its mitra record.
type MitraResolver interface {
	IDForUser(ctx context.Context, userID int64) (int64, error)
}

// Handler exposes restock endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mitra     MitraResolver
	validator *httpx.Validator
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, mitra MitraResolver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, mitra: mitra, validator: httpx.NewValidator()}
}

// MountAdminRoutes registers order management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}/status", h.handleTransition)
	r.Patch("/{id}/payment", h.handlePayment)
	r.Delete("/{id}", h.handleDelete)
}

// MountMitraRoutes registers routes a mitra uses for its own orders.
func (h *Handler) MountMitraRoutes(r chi.Router) {
	r.Get("/", h.handleListOwn)
	r.Post("/", h.handleCreateOwn)
	r.Get("/{id}", h.handleGetOwn)
	r.Post("/{id}/cancel", h.handleCancelOwn)
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
	mitraID, err := httpx.QueryInt64(r, "mitra_id")
	if err != nil {
		return ListFilter{}, err
	}
	return ListFilter{MitraID: mitraID, Status: Status(r.URL.Query().Get("status")), From: from, To: to}, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.list(w, r, filter)
}

func (h *Handler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	mitraID, ok := h.ownMitra(w, r)
	if !ok {
		return
	}
	filter, err := listFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.MitraID = mitraID
	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	rows, meta, err := h.service.List(r.Context(), filter, shared.TableQueryFromRequest(r))
	if err != nil {
		h.fail(w, "list restock orders", err)
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
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get restock order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	mitraID, ok := h.ownMitra(w, r)
	if !ok {
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.GetOwned(r.Context(), mitraID, id)
	if err != nil {
		h.fail(w, "get own restock order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.create(w, r, in)
}

func (h *Handler) handleCreateOwn(w http.ResponseWriter, r *http.Request) {
	mitraID, ok := h.ownMitra(w, r)
	if !ok {
		return
	}
	var in CreateInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.MitraID = mitraID
	h.create(w, r, in)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, in CreateInput) {
	o, err := h.service.Create(r.Context(), in, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.fail(w, "create restock order", err)
		return
	}
	if o.Replayed {
		httpx.JSON(w, http.StatusOK, o)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in TransitionInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Transition(r.Context(), id, in)
	if err != nil {
		h.fail(w, "transition restock order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleCancelOwn(w http.ResponseWriter, r *http.Request) {
	mitraID, ok := h.ownMitra(w, r)
	if !ok {
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.CancelOwned(r.Context(), mitraID, id)
	if err != nil {
		h.fail(w, "cancel own restock order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in PaymentInput
	if err := h.validator.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.SetPayment(r.Context(), id, in.PaymentStatus)
	if err != nil {
		h.fail(w, "set restock payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete restock order", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) ownMitra(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := h.mitra.IDForUser(r.Context(), shared.ActorID(r.Context()))
	if err != nil {
		h.fail(w, "resolve mitra", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
