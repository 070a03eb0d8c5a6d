package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamteguh/backend-fullstack-taskman/internal/health"
	"github.com/imamteguh/backend-fullstack-taskman/internal/middleware"
	"github.com/imamteguh/backend-fullstack-taskman/internal/service"
)

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	identity *service.IdentityService,
	workspaces *service.WorkspaceService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Token validator bridging the session codec into the auth middleware.
	tokenValidator := func(token string) (*middleware.SessionClaims, error) {
		accountID, err := identity.ValidateSession(token)
		if err != nil {
			return nil, err
		}
		return &middleware.SessionClaims{AccountID: accountID}, nil
	}

	authHandler := NewAuthHandler(identity, logger)
	workspaceHandler := NewWorkspaceHandler(workspaces, logger)
	projectHandler := NewProjectHandler(workspaces, logger)

	// Identity endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/reset-password-request", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequestLogger(logger))

			r.Get("/me", authHandler.Me)
		})
	})

	// Workspace, project and task endpoints (auth required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", workspaceHandler.Create)
			r.Get("/", workspaceHandler.List)
			r.Get("/{id}", workspaceHandler.Get)
			r.Put("/{id}", workspaceHandler.Update)
			r.Delete("/{id}", workspaceHandler.Delete)

			r.Get("/{id}/members", workspaceHandler.ListMembers)
			r.Delete("/{id}/members/{accountId}", workspaceHandler.RemoveMember)

			r.Post("/{id}/invites", workspaceHandler.CreateInvite)
			r.Get("/{id}/invites", workspaceHandler.ListInvites)

			r.Post("/{id}/projects", projectHandler.Create)
			r.Get("/{id}/projects", projectHandler.List)
			r.Get("/{id}/tasks/assigned", projectHandler.ListAssignedTasks)
		})

		r.Post("/invites/accept", workspaceHandler.AcceptInvite)

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", projectHandler.Get)
			r.Put("/", projectHandler.Update)
			r.Delete("/", projectHandler.Delete)

			r.Post("/tasks", projectHandler.CreateTask)
			r.Get("/tasks", projectHandler.ListTasks)
		})

		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", projectHandler.GetTask)
			r.Put("/", projectHandler.UpdateTask)
			r.Delete("/", projectHandler.DeleteTask)
		})
	})

	return r
}
