package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lockerhub/lockerhub-backend/api/controllers"
	"github.com/lockerhub/lockerhub-backend/api/middleware"
	"github.com/lockerhub/lockerhub-backend/internal/admins"
	"github.com/lockerhub/lockerhub-backend/internal/applications"
	"github.com/lockerhub/lockerhub-backend/internal/auth"
	"github.com/lockerhub/lockerhub-backend/internal/dashboard"
	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/internal/lockers"
	"github.com/lockerhub/lockerhub-backend/internal/reminders"
	"github.com/lockerhub/lockerhub-backend/internal/stores"
	"github.com/lockerhub/lockerhub-backend/internal/users"
	"github.com/lockerhub/lockerhub-backend/pkg/auth/session"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
	"github.com/lockerhub/lockerhub-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Revoke(context.Context, string) error
}

// Deps carries everything the HTTP surface needs. Nil services make their
// handlers answer 500 instead of panicking.
type Deps struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions sessionManager
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	Auth         auth.Service
	Register     auth.RegisterService
	Stores       stores.Service
	Users        users.Service
	Admins       admins.Service
	Lockers      lockers.Service
	Applications applications.Service
	Ledger       ledger.Service
	Reminders    reminders.Service
	Dashboard    dashboard.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTP),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterPhoneLimit,
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	loginLimit := func(h http.Handler) http.Handler { return h }
	registerLimit := loginLimit
	idempotency := loginLimit
	if deps.Redis != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		registerLimit = middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)
		idempotency = middleware.Idempotency(deps.Redis, logg)
	}

	readiness := map[string]controllers.Pinger{"postgres": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(registerLimit, idempotency).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Sessions, cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireUser(logg))
			r.Use(idempotency)

			r.Get("/users/me", controllers.UserMe(deps.Users, logg))

			r.Get("/stores", controllers.StoreList(deps.Stores, logg))
			r.Get("/stores/{storeId}", controllers.StoreGet(deps.Stores, logg))

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", controllers.ApplicationList(deps.Applications, logg))
				r.Post("/", controllers.ApplicationSubmit(deps.Applications, logg))
				r.Get("/{applicationId}", controllers.ApplicationGet(deps.Applications, logg))
				r.Post("/{applicationId}/cancel", controllers.ApplicationCancel(deps.Applications, logg))
			})

			r.Route("/lockers", func(r chi.Router) {
				r.Get("/", controllers.LockerList(deps.Lockers, logg))
				r.Get("/me", controllers.LockerMine(deps.Lockers, logg))
				r.Post("/{lockerId}/release", controllers.LockerRelease(deps.Lockers, logg))
				r.Post("/{lockerId}/records", controllers.LockerRecordUsage(deps.Lockers, logg))
			})

			r.Get("/records", controllers.RecordList(deps.Ledger, logg))
			r.Get("/stats", controllers.MyStats(deps.Ledger, logg))
			r.Get("/reminders", controllers.ReminderList(deps.Reminders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(loginLimit).Post("/auth/login", controllers.AdminAuthLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Use(idempotency)

			r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))

			r.Route("/stores", func(r chi.Router) {
				r.Get("/", controllers.StoreList(deps.Stores, logg))
				r.With(middleware.RequireSuperAdmin(logg)).Post("/", controllers.AdminStoreCreate(deps.Stores, logg))
				r.Get("/{storeId}", controllers.StoreGet(deps.Stores, logg))
				r.Patch("/{storeId}", controllers.AdminStoreUpdate(deps.Stores, logg))
				r.With(middleware.RequireSuperAdmin(logg)).Delete("/{storeId}", controllers.AdminStoreDelete(deps.Stores, logg))
			})

			r.Route("/lockers", func(r chi.Router) {
				r.Get("/", controllers.LockerList(deps.Lockers, logg))
				r.Post("/", controllers.AdminLockerCreate(deps.Lockers, logg))
				r.Get("/{lockerId}", controllers.LockerGet(deps.Lockers, logg))
				r.Patch("/{lockerId}", controllers.AdminLockerUpdate(deps.Lockers, logg))
				r.Delete("/{lockerId}", controllers.AdminLockerDelete(deps.Lockers, logg))
				r.Post("/{lockerId}/assign", controllers.AdminLockerAssign(deps.Lockers, logg))
				r.Post("/{lockerId}/release", controllers.LockerRelease(deps.Lockers, logg))
				r.Post("/{lockerId}/maintenance", controllers.AdminLockerMaintenance(deps.Lockers, logg))
				r.Post("/{lockerId}/return", controllers.AdminLockerReturn(deps.Lockers, logg))
				r.Get("/{lockerId}/stats", controllers.AdminLockerStats(deps.Ledger, logg))
			})

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", controllers.ApplicationList(deps.Applications, logg))
				r.Get("/{applicationId}", controllers.ApplicationGet(deps.Applications, logg))
				r.Post("/{applicationId}/approve", controllers.AdminApplicationApprove(deps.Applications, logg))
				r.Post("/{applicationId}/reject", controllers.AdminApplicationReject(deps.Applications, logg))
				r.Post("/{applicationId}/notes", controllers.AdminApplicationNote(deps.Applications, logg))
			})

			r.Route("/records", func(r chi.Router) {
				r.Get("/", controllers.RecordList(deps.Ledger, logg))
				r.Get("/export", controllers.AdminRecordExport(deps.Ledger, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(deps.Users, logg))
				r.Get("/{userId}", controllers.AdminUserGet(deps.Users, logg))
				r.Patch("/{userId}/status", controllers.AdminUserSetStatus(deps.Users, logg))
				r.Get("/{userId}/stats", controllers.AdminUserStats(deps.Ledger, logg))
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/me", controllers.AdminMe(deps.Admins, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperAdmin(logg))
					r.Get("/", controllers.AdminList(deps.Admins, logg))
					r.Post("/", controllers.AdminCreate(deps.Admins, logg))
					r.Patch("/{adminId}/status", controllers.AdminSetStatus(deps.Admins, logg))
					r.Post("/{adminId}/reset-password", controllers.AdminResetPassword(deps.Admins, logg))
				})
			})

			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", controllers.ReminderList(deps.Reminders, logg))
				r.Post("/", controllers.AdminReminderCreate(deps.Reminders, logg))
				r.Patch("/{reminderId}", controllers.AdminReminderUpdate(deps.Reminders, logg))
				r.Delete("/{reminderId}", controllers.AdminReminderDelete(deps.Reminders, logg))
			})
		})
	})

	return r
}
