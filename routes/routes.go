package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/users-api/app"
	"github.com/upb/users-api/handlers"
	"github.com/upb/users-api/middleware"
	"github.com/upb/users-api/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	requestTimeout := defaultRequestTimeout
	allowedOrigins := []string{"http://localhost:*", "https://*"}
	if deps.Config != nil {
		if deps.Config.Server.RequestTimeout > 0 {
			requestTimeout = deps.Config.Server.RequestTimeout
		}
		if len(deps.Config.Server.AllowedOrigins) > 0 {
			allowedOrigins = deps.Config.Server.AllowedOrigins
		}
	}

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestMeta)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Set before any Route/Mount so subrouters inherit them
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	users := handlers.NewUserHandler(deps.UserService, deps.Logger)
	requireAuth := deps.AuthMiddleware.Optional()

	// Function-style endpoints, one method each
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/createUser", users.Create)
		r.Get("/getUser", users.Get)
		r.Put("/updateUser", users.Update)
		r.Delete("/deleteUser", users.Delete)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/status", handlers.StatusHandler(deps))

		// User management
		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", users.Create)
			r.Get("/", users.Get)
			r.Put("/", users.Update)
			r.Delete("/", users.Delete)
			r.Get("/{id}/audit", handlers.UserAuditHandler(deps))
		})
	})

	return r
}
