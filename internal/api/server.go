// Package api provides the HTTP API server and handlers for Albumy.
package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
)

// Version is the API version reported in the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *sqlite.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	cfg             *config.Config
	authRateLimiter *RateLimiter
	logger          *logger.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *sqlite.Store, services *Services, tokens *auth.TokenService, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		store:           st,
		services:        services,
		router:          chi.NewRouter(),
		cfg:             cfg,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
		logger:          log,
	}

	s.setupMiddleware(tokens)

	humaConfig := huma.DefaultConfig(cfg.Server.Name+" API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(tokens *auth.TokenService) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Filename"},
		MaxAge:         300,
	}))
	s.router.Use(s.limitAuthRoutes)
	s.router.Use(authMiddleware(tokens))
}

// registerRoutes registers all huma operations and the direct chi routes.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerAccountRoutes()
	s.registerUserRoutes()
	s.registerPhotoRoutes()
	s.registerCommentRoutes()
	s.registerNotificationRoutes()
	s.registerAdminRoutes()

	// Image files stream straight through chi, bypassing the JSON envelope.
	s.router.Get("/images/{filename}", s.handleServePhotoFile)
	s.router.Get("/avatars/{filename}", s.handleServeAvatarFile)
}
