package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apimiddleware "github.com/phrazzld/tasktrack-api/internal/api/middleware"
	"github.com/phrazzld/tasktrack-api/internal/platform/metrics"
)

// baseRouter creates a chi router with the standard middleware stack and
// the health and metrics endpoints every service exposes.
func baseRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}

// NewAuthRouter configures the routes for the credential-issuing service.
func NewAuthRouter(authHandler *AuthHandler) http.Handler {
	r := baseRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/verify", authHandler.Verify)
	})

	return r
}

// NewTaskRouter configures the routes for the task service. All task
// routes sit behind the authentication middleware; the service verifies
// tokens locally and never consults the auth service.
func NewTaskRouter(taskHandler *TaskHandler, authMiddleware *apimiddleware.AuthMiddleware) http.Handler {
	r := baseRouter()

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/summary", taskHandler.Summary)
		r.Get("/{id}", taskHandler.Get)
		r.Patch("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return r
}

// NewWorkerRouter configures the operator-facing routes served by the
// notification worker alongside its consumer loop.
func NewWorkerRouter(notificationHandler *NotificationHandler) http.Handler {
	r := baseRouter()

	r.Get("/logs", notificationHandler.Logs)
	r.Get("/stats", notificationHandler.Stats)

	return r
}
