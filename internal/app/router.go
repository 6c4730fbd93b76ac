package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vendorhub/vendorhub/internal/auth"
	"github.com/vendorhub/vendorhub/internal/billing"
	"github.com/vendorhub/vendorhub/internal/docgen"
	"github.com/vendorhub/vendorhub/internal/notify"
	"github.com/vendorhub/vendorhub/internal/observability"
	"github.com/vendorhub/vendorhub/internal/purchasing"
	"github.com/vendorhub/vendorhub/internal/shared"
	"github.com/vendorhub/vendorhub/internal/vendors"
	"github.com/vendorhub/vendorhub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler       *auth.Handler
	VendorHandler     *vendors.Handler
	PurchasingHandler *purchasing.Handler
	BillingHandler    *billing.Handler
	NotifyHandler     *notify.Handler
	DocumentHandler   *docgen.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.VendorHandler != nil {
		r.Route("/vendors", params.VendorHandler.MountRoutes)
	}
	if params.PurchasingHandler != nil {
		r.Route("/purchasing", params.PurchasingHandler.MountRoutes)
	}
	if params.BillingHandler != nil {
		r.Route("/billing", params.BillingHandler.MountRoutes)
	}
	if params.DocumentHandler != nil {
		r.Route("/documents", params.DocumentHandler.MountRoutes)
	}

	r.Route("/portal", func(r chi.Router) {
		if params.PurchasingHandler != nil {
			params.PurchasingHandler.MountPortalRoutes(r)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountPortalRoutes(r)
		}
		if params.NotifyHandler != nil {
			params.NotifyHandler.MountPortalRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
