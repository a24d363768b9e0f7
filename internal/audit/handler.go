package audit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

const maxRangeDays = 90

// Handler exposes the audit timeline to admins.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler membuat handler audit timeline.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers timeline and export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		if p := shared.PrincipalFromContext(r.Context()); p != nil {
			return "user:" + strconv.FormatInt(p.UserID, 10), nil
		}
		return httprate.KeyByIP(r)
	}))
	r.Get("/", h.timeline)
	r.With(limiter).Get("/export.csv", h.exportCSV)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.fail(w, "audit timeline", err)
		return
	}
	if result.Rows == nil {
		result.Rows = []TimelineRow{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.fail(w, "audit export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-timeline.csv"`)
	if err := WriteCSV(w, rows); err != nil {
		h.logger.Error("write audit csv", slog.Any("error", err))
	}
}

func (h *Handler) parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	now := h.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	parsedTo, err := httpx.QueryDate(r, "to")
	if err != nil {
		return TimelineFilters{}, err
	}
	if !parsedTo.IsZero() {
		to = parsedTo
	}
	from, err := httpx.QueryDate(r, "from")
	if err != nil {
		return TimelineFilters{}, err
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -7)
	}
	if from.After(to) {
		return TimelineFilters{}, fmt.Errorf("%w: from must not be after to", httpx.ErrValidation)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return TimelineFilters{}, fmt.Errorf("%w: range is limited to %d days", httpx.ErrValidation, maxRangeDays)
	}
	return TimelineFilters{
		From:     from,
		To:       to,
		Actor:    strings.TrimSpace(q.Get("actor")),
		Entity:   strings.TrimSpace(q.Get("entity")),
		Action:   strings.TrimSpace(q.Get("action")),
		Page:     httpx.QueryInt(r, "page", 1),
		PageSize: httpx.QueryInt(r, "page_size", defaultPageSize),
	}, nil
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
