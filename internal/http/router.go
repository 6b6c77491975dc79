package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Rooms       *RoomHandler
	RoomBlocks  *RoomBlockHandler
	Bookings    *BookingHandler
	Uploads     *UploadHandler
	Admin       *AdminHandler
	Diagnostics *DiagnosticsHandler
	Sessions    SessionValidator

	// Static serves /uploads/* when set, for the local object store.
	Static http.Handler

	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(middleware.Heartbeat("/ping"))

	if cfg.Static != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", cfg.Static))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Post("/auth/login", cfg.Auth.Login)
		}
		if cfg.Diagnostics != nil {
			r.Get("/env-check", cfg.Diagnostics.EnvCheck)
			r.Get("/auth-debug", cfg.Diagnostics.AuthDebug)
			r.Get("/supabase-health", cfg.Diagnostics.Health)
		}

		r.Group(func(r chi.Router) {
			if cfg.Sessions != nil {
				r.Use(RequireSession(cfg.Sessions, logger))
			}

			if cfg.Auth != nil {
				r.Post("/auth/logout", cfg.Auth.Logout)
				r.Post("/auth/refresh", cfg.Auth.Refresh)
				r.Get("/me", cfg.Auth.Me)
			}

			if cfg.Rooms != nil {
				r.Route("/rooms", func(r chi.Router) {
					r.Get("/", cfg.Rooms.List)
					r.Post("/", cfg.Rooms.Create)
					r.Put("/", cfg.Rooms.Update)
					r.Delete("/", cfg.Rooms.Delete)
					r.Get("/{id}", cfg.Rooms.Get)
					r.Put("/{id}", cfg.Rooms.Update)
					r.Delete("/{id}", cfg.Rooms.Delete)
					if cfg.RoomBlocks != nil {
						r.Get("/{id}/blocks", cfg.RoomBlocks.List)
						r.Post("/{id}/blocks", cfg.RoomBlocks.Create)
						r.Delete("/{id}/blocks/{blockID}", cfg.RoomBlocks.Delete)
					}
				})
			}

			if cfg.Bookings != nil {
				r.Route("/bookings", func(r chi.Router) {
					r.Get("/", cfg.Bookings.List)
					r.Post("/", cfg.Bookings.Create)
					r.Put("/", cfg.Bookings.Update)
					r.Delete("/", cfg.Bookings.Delete)
					r.Get("/{id}", cfg.Bookings.Get)
				})
				r.Get("/availability", cfg.Bookings.Availability)
			}

			if cfg.Users != nil {
				r.Route("/users", func(r chi.Router) {
					r.Get("/", cfg.Users.List)
					r.Post("/", cfg.Users.Create)
					r.Put("/", cfg.Users.Update)
					r.Delete("/", cfg.Users.Delete)
				})
			}

			if cfg.Uploads != nil {
				r.Post("/upload", cfg.Uploads.Upload)
				r.Delete("/upload", cfg.Uploads.Delete)
			}

			if cfg.Admin != nil {
				r.Get("/reports", cfg.Admin.Report)
				r.Get("/settings", cfg.Admin.GetSettings)
				r.Put("/settings", cfg.Admin.UpdateSettings)
				r.Get("/audit", cfg.Admin.Audit)
			}
		})
	})

	return r
}
