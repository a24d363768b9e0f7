package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mitrahub/mitrahub/internal/attendance"
	"github.com/mitrahub/mitrahub/internal/audit"
	"github.com/mitrahub/mitrahub/internal/auth"
	"github.com/mitrahub/mitrahub/internal/dashboard"
	"github.com/mitrahub/mitrahub/internal/finance"
	"github.com/mitrahub/mitrahub/internal/inventory"
	"github.com/mitrahub/mitrahub/internal/mitra"
	"github.com/mitrahub/mitrahub/internal/observability"
	"github.com/mitrahub/mitrahub/internal/outlets"
	"github.com/mitrahub/mitrahub/internal/packages"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/products"
	"github.com/mitrahub/mitrahub/internal/rbac"
	"github.com/mitrahub/mitrahub/internal/restock"
	"github.com/mitrahub/mitrahub/internal/sales"
	"github.com/mitrahub/mitrahub/internal/shared"
	"github.com/mitrahub/mitrahub/internal/users"
	"github.com/mitrahub/mitrahub/jobs"
)

// HealthCheck probes a backing service for /healthz.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	RBAC    rbac.Middleware
	Checks  map[string]HealthCheck

	AuthHandler       *auth.Handler
	ProductsHandler   *products.Handler
	InventoryHandler  *inventory.Handler
	MitraHandler      *mitra.Handler
	OutletsHandler    *outlets.Handler
	SalesHandler      *sales.Handler
	RestockHandler    *restock.Handler
	AttendanceHandler *attendance.Handler
	FinanceHandler    *finance.Handler
	DashboardHandler  *dashboard.Handler
	PackagesHandler   *packages.Handler
	UsersHandler      *users.Handler
	AuditHandler      *audit.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with MitraHub defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthz(params.Checks, params.Logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.PackagesHandler != nil {
		r.Route("/public/packages", params.PackagesHandler.MountPublicRoutes)
	}
	if params.AuthHandler != nil {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r, params.RBAC.Authenticate)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(params.RBAC.Authenticate)

		r.Route("/admin", func(r chi.Router) {
			r.Use(params.RBAC.RequireRole(shared.RoleAdmin))
			mountAdmin(r, params)
		})
		r.Route("/staff", func(r chi.Router) {
			r.Use(params.RBAC.RequireRole(shared.RoleStaff, shared.RoleAdmin))
			mountWorker(r, params)
		})
		r.Route("/crew", func(r chi.Router) {
			r.Use(params.RBAC.RequireRole(shared.RoleCrew, shared.RoleAdmin))
			mountWorker(r, params)
		})
		r.Route("/mitra", func(r chi.Router) {
			r.Use(params.RBAC.RequireRole(shared.RoleMitra))
			mountMitra(r, params)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "route not found")
	})
	return r
}

func mountAdmin(r chi.Router, p RouterParams) {
	if p.DashboardHandler != nil {
		r.Route("/dashboard", p.DashboardHandler.MountRoutes)
	}
	if p.ProductsHandler != nil {
		r.Route("/products", p.ProductsHandler.MountAdminRoutes)
	}
	if p.InventoryHandler != nil {
		r.Route("/inventory", p.InventoryHandler.MountAdminRoutes)
	}
	if p.MitraHandler != nil {
		r.Route("/mitra", p.MitraHandler.MountAdminRoutes)
	}
	if p.OutletsHandler != nil {
		r.Route("/outlets", p.OutletsHandler.MountAdminRoutes)
	}
	if p.SalesHandler != nil {
		r.Route("/sales", p.SalesHandler.MountAdminRoutes)
	}
	if p.RestockHandler != nil {
		r.Route("/restock", p.RestockHandler.MountAdminRoutes)
	}
	if p.AttendanceHandler != nil {
		r.Route("/attendance", p.AttendanceHandler.MountAdminRoutes)
	}
	if p.FinanceHandler != nil {
		r.Route("/finance", p.FinanceHandler.MountRoutes)
	}
	if p.PackagesHandler != nil {
		r.Route("/packages", p.PackagesHandler.MountAdminRoutes)
	}
	if p.UsersHandler != nil {
		r.Route("/users", p.UsersHandler.MountAdminRoutes)
	}
	if p.AuditHandler != nil {
		r.Route("/audit", p.AuditHandler.MountRoutes)
	}
}

// mountWorker registers the outlet-side routes shared by staff and crew.
func mountWorker(r chi.Router, p RouterParams) {
	if p.ProductsHandler != nil {
		r.Route("/products", p.ProductsHandler.MountCatalogRoutes)
	}
	if p.InventoryHandler != nil {
		r.Route("/inventory", p.InventoryHandler.MountStaffRoutes)
	}
	if p.OutletsHandler != nil {
		r.Route("/outlets", p.OutletsHandler.MountWorkerRoutes)
	}
	if p.SalesHandler != nil {
		r.Route("/sales", p.SalesHandler.MountWorkerRoutes)
	}
	if p.AttendanceHandler != nil {
		r.Route("/attendance", p.AttendanceHandler.MountWorkerRoutes)
	}
}

func mountMitra(r chi.Router, p RouterParams) {
	if p.MitraHandler != nil {
		r.Route("/profile", p.MitraHandler.MountSelfRoutes)
	}
	if p.ProductsHandler != nil {
		r.Route("/products", p.ProductsHandler.MountCatalogRoutes)
	}
	if p.RestockHandler != nil {
		r.Route("/restock", p.RestockHandler.MountMitraRoutes)
	}
}

func healthz(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		out := map[string]string{"status": "ok"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", slog.String("check", name), slog.Any("error", err))
				out[name] = "down"
				out["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "ok"
		}
		httpx.JSON(w, status, out)
	}
}
