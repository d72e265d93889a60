package api

import (
	"net/http"

	"github.com/bellebook/catalog/internal/api/handlers"
	"github.com/bellebook/catalog/pkg/logging"
)

// Router sets up all API routes
type Router struct {
	mux      *http.ServeMux
	services *handlers.ServiceHandler
	health   *handlers.HealthHandler
	log      *logging.Logger
}

// NewRouter creates a new Router
func NewRouter(
	services *handlers.ServiceHandler,
	health *handlers.HealthHandler,
	log *logging.Logger,
) *Router {
	return &Router{
		mux:      http.NewServeMux(),
		services: services,
		health:   health,
		log:      log,
	}
}

// Setup configures all routes
func (r *Router) Setup(token string) http.Handler {
	// Listing endpoints
	r.mux.HandleFunc("GET /api/v1/services", r.services.List)
	r.mux.HandleFunc("GET /api/v1/services/download", r.services.Download)
	r.mux.HandleFunc("GET /api/v1/services/owner/{id}", r.services.ListByOwner)
	r.mux.HandleFunc("GET /api/v1/categories", r.services.Categories)
	r.mux.HandleFunc("GET /api/v1/stats", r.services.GetStats)

	protected := Chain(r.mux,
		CORS,
		SecurityHeaders,
		Auth(token),
	)

	// Health stays outside Auth so probes work without credentials
	root := http.NewServeMux()
	root.HandleFunc("GET /health", r.health.Check)
	root.Handle("/", protected)

	return Chain(root,
		Recovery(r.log),
		Logger(r.log),
	)
}
