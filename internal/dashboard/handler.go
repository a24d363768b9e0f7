package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Handler exposes the admin overview.
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

// MountRoutes registers the overview route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleOverview)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
