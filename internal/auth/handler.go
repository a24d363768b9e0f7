package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers auth routes on provided router. authn guards the
// routes that need a signed in user.
func (h *Handler) MountRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Post("/login", h.handleLogin)
	r.Post("/otp/request", h.handleOTPRequest)
	r.Post("/otp/verify", h.handleOTPVerify)
	r.Post("/password/forgot", h.handleForgot)
	r.Post("/password/reset", h.handleReset)
	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type otpVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type resetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

func meta(r *http.Request) SessionMeta {
	return SessionMeta{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password, meta(r))
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RequestOTP(r.Context(), req.Email); err != nil {
		h.fail(w, "otp request", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"message": "Jika email terdaftar, kode OTP telah dikirim"})
}

func (h *Handler) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.VerifyOTP(r.Context(), req.Email, req.Code, meta(r))
	if err != nil {
		h.fail(w, "otp verify", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.fail(w, "forgot password", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"message": "Jika email terdaftar, kode reset telah dikirim"})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.validator.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.fail(w, "reset password", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.Logout(r.Context(), principal); err != nil {
		h.fail(w, "logout", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Me(r.Context(), shared.ActorID(r.Context()))
	if err != nil {
		h.fail(w, "me", err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error("auth "+op, slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Problem(w, httpx.StatusOf(err), "Authentication Failed", shared.UserSafeMessage(err))
}
