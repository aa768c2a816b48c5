package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/utils"
)

// SetupRoutes configures the router.
//
// Health, version, metrics, registration, login, logout and the password
// reset flow are public. The forgot and contact endpoints are rate limited
// per client IP. Everything else requires a valid session token, and the
// route listing is for admins only.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	r.Use(corsMiddleware(s.Config.CORS.AllowedOrigins, s.Config.CORS.AllowCredentials))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger())
	}
	r.Use(s.Metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, constants.MsgResourceNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	r.Get(constants.HealthPath, s.healthCheck)
	r.Get(constants.VersionPath, func(w http.ResponseWriter, r *http.Request) {
		utils.JSON(w, http.StatusOK, map[string]string{
			"version":     s.Config.App.Version,
			"environment": s.Config.App.Environment,
		})
	})
	if s.Config.Metrics.Enabled {
		r.Method(http.MethodGet, s.Config.Metrics.Path, s.Metrics.Handler())
	}

	jwtAuth := middleware.JWTAuth(s.authProviders.JWTService)

	r.Route(constants.APIBasePath, func(r chi.Router) {
		r.With(jwtAuth, middleware.RequirePosition(constants.PositionAdmin)).Get("/routes", s.GetAPIRoutes)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.Handlers.AuthHandler.Register())
			r.Post("/login", s.Handlers.AuthHandler.Login())
			r.Post("/logout", s.Handlers.AuthHandler.Logout())
			r.With(jwtAuth).Get("/me", s.Handlers.AuthHandler.Me())
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.Limiters.Forgot, s.Metrics))
			r.Post("/forgot", s.Handlers.PasswordResetHandler.ForgotPassword())
			r.Post("/forgot/resend", s.Handlers.PasswordResetHandler.ResendResetEmail())
		})
		r.Post("/reset", s.Handlers.PasswordResetHandler.ResetPassword())
		r.Post("/reset/verify", s.Handlers.PasswordResetHandler.VerifyResetToken())

		r.With(
			middleware.RateLimit(s.Limiters.Contact, s.Metrics),
			middleware.OptionalJWTAuth(s.authProviders.JWTService),
		).
			Post("/contact", s.Handlers.ContactHandler.Submit())

		r.With(jwtAuth).Post("/user/update", s.Handlers.UserHandler.UpdateUser())

		r.Route("/projects", func(r chi.Router) {
			r.Use(jwtAuth)
			r.Use(chimiddleware.NoCache)

			r.Get("/", s.Handlers.ProjectHandler.ListProjects())
			r.Post("/", s.Handlers.ProjectHandler.CreateProject())
			r.Route("/{"+constants.ParamID+"}", func(r chi.Router) {
				r.Get("/", s.Handlers.ProjectHandler.GetProject())
				r.Put("/", s.Handlers.ProjectHandler.UpdateProject())
				r.Delete("/", s.Handlers.ProjectHandler.DeleteProject())

				r.Get("/tasks", s.Handlers.ProjectHandler.ListTasks())
				r.Post("/tasks", s.Handlers.ProjectHandler.CreateTask())
				r.Get("/tasks/{"+constants.ParamTaskID+"}", s.Handlers.ProjectHandler.GetTask())
				r.Put("/tasks/{"+constants.ParamTaskID+"}", s.Handlers.ProjectHandler.UpdateTask())
				r.Delete("/tasks/{"+constants.ParamTaskID+"}", s.Handlers.ProjectHandler.DeleteTask())
			})
		})
	})

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.health.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, "service_unavailable", "Service is not healthy", nil)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.Config.App.Version,
	})
}

// GetAPIRoutes lists every mounted route as "METHOD /path".
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []string
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if method == http.MethodOptions {
			return nil
		}
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		routes = append(routes, method+" "+route)
		return nil
	})
	if err != nil {
		utils.InternalServerError(w, err)
		return
	}

	sort.Strings(routes)
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"routes": routes,
	})
}

// corsMiddleware sets CORS headers for allowed origins and answers preflight
// requests. "*" allows any origin.
func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := allowed[origin]; !ok && !allowAll {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "300")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
