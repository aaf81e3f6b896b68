package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medimeet/platform/internal/appointments"
	"github.com/medimeet/platform/internal/availability"
	httpmiddleware "github.com/medimeet/platform/internal/http/middleware"
	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/reports"
	"github.com/medimeet/platform/internal/schedule"
	"github.com/medimeet/platform/internal/users"
	"github.com/medimeet/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	UsersHandler        *users.Handler
	AvailabilityHandler *availability.Handler
	ScheduleHandler     *schedule.Handler
	AppointmentsHandler *appointments.Handler
	Dashboard           *reports.DashboardHandler
	MetricsHandler      http.Handler
	AuthJWTSecret       string
	CORSAllowedOrigins  []string
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, doctor discovery.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.UsersHandler != nil {
			public.Get("/doctors", cfg.UsersHandler.ListDoctorsBySpecialty)
			public.Get("/doctors/{doctorID}", cfg.UsersHandler.GetDoctor)
		}
		if cfg.ScheduleHandler != nil {
			public.Get("/doctors/{doctorID}/slots", cfg.ScheduleHandler.GetSlots)
		}
	})

	// Authenticated routes.
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.Auth(cfg.AuthJWTSecret))

		if cfg.UsersHandler != nil {
			authed.Get("/users/me", cfg.UsersHandler.Me)
			authed.Post("/users/role", cfg.UsersHandler.AssignRole)
		}

		if cfg.AppointmentsHandler != nil {
			authed.Route("/appointments", func(appts chi.Router) {
				appts.Get("/", cfg.AppointmentsHandler.ListMine)
				appts.With(httpmiddleware.RequireRole(identity.RolePatient)).
					Post("/", cfg.AppointmentsHandler.Book)
				appts.Post("/{appointmentID}/cancel", cfg.AppointmentsHandler.Cancel)
				appts.With(httpmiddleware.RequireRole(identity.RoleDoctor)).
					Post("/{appointmentID}/complete", cfg.AppointmentsHandler.Complete)
				appts.With(httpmiddleware.RequireRole(identity.RoleDoctor)).
					Put("/{appointmentID}/notes", cfg.AppointmentsHandler.AddNotes)
			})
		}

		if cfg.AvailabilityHandler != nil {
			authed.Route("/doctor/availability", func(avail chi.Router) {
				avail.Use(httpmiddleware.RequireRole(identity.RoleDoctor))
				avail.Get("/", cfg.AvailabilityHandler.ListWindows)
				avail.Put("/", cfg.AvailabilityHandler.SetWindow)
			})
		}

		authed.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireRole(identity.RoleAdmin))
			if cfg.UsersHandler != nil {
				admin.Get("/doctors/pending", cfg.UsersHandler.ListPendingDoctors)
				admin.Get("/doctors", cfg.UsersHandler.ListVerifiedDoctors)
				admin.Post("/doctors/{doctorID}/status", cfg.UsersHandler.UpdateDoctorStatus)
				admin.Post("/doctors/{doctorID}/suspend", cfg.UsersHandler.SetDoctorSuspension)
			}
			if cfg.Dashboard != nil {
				admin.Get("/dashboard", cfg.Dashboard.GetOverview)
			}
		})
	})

	return r
}
