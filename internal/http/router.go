package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vector-starter/internal/handlers"
	"vector-starter/internal/provision"
	"vector-starter/internal/vectordb"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Client      vectordb.Client
	Provisioner *provision.Provisioner
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Client))
		r.Method(http.MethodPut, "/collections/{name}", handlers.NewCollectionHandler(deps.Client, deps.Provisioner))
		r.Method(http.MethodPost, "/notes/search", handlers.NewSearchHandler(deps.Client, deps.Provisioner))
	})

	return r
}
