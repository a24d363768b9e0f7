package finance

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler exposes finance endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Get("/export", h.handleExport)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (Report, bool) {
	from, err := httpx.QueryDate(r, "from")
	if err != nil {
		httpx.RespondError(w, err)
		return Report{}, false
	}
	to, err := httpx.QueryDate(r, "to")
	if err != nil {
		httpx.RespondError(w, err)
		return Report{}, false
	}
	outletID, err := httpx.QueryInt64(r, "outlet_id")
	if err != nil {
		httpx.RespondError(w, err)
		return Report{}, false
	}
	report, err := h.service.Report(r.Context(), from, to, outletID)
	if err != nil {
		h.fail(w, "finance report", err)
		return Report{}, false
	}
	return report, true
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("format")
	if kind == "" {
		kind = "csv"
	}
	if kind != "csv" && kind != "xlsx" {
		httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"format": "must be one of: csv xlsx"}})
		return
	}
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	var (
		buf         bytes.Buffer
		err         error
		contentType = contentTypeCSV
	)
	if kind == "xlsx" {
		contentType = contentTypeXLSX
		err = WriteXLSX(&buf, report)
	} else {
		err = WriteCSV(&buf, report)
	}
	if err != nil {
		h.fail(w, "finance export", err)
		return
	}
	filename := fmt.Sprintf("laporan-keuangan-%s-%s.%s", report.From.Format("20060102"), report.To.Format("20060102"), kind)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
