package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	validate   *validator.Validate

	// Services
	materialService   driving.MaterialService
	plagiarismService driving.PlagiarismService
	taskService       driving.TaskService

	// Infrastructure
	verifier      driven.TokenVerifier
	runtimeConfig *domain.RuntimeConfig
	db            Pinger // PostgreSQL health check
	redisClient   Pinger // Redis health check (optional)
	readiness     []readinessCheck
}

type readinessCheck struct {
	name   string
	pinger Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string

	// MaxUploadBytes limits multipart material uploads
	MaxUploadBytes int64

	// CheckTimeout bounds a synchronous plagiarism check
	CheckTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: 32 << 20,
		CheckTimeout:   2 * time.Minute,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	materialService driving.MaterialService,
	plagiarismService driving.PlagiarismService,
	taskService driving.TaskService,
	verifier driven.TokenVerifier,
	runtimeConfig *domain.RuntimeConfig,
	db Pinger, // can be nil
	redisClient Pinger, // can be nil
) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultConfig().CheckTimeout
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		validate:          validator.New(),
		materialService:   materialService,
		plagiarismService: plagiarismService,
		taskService:       taskService,
		verifier:          verifier,
		runtimeConfig:     runtimeConfig,
		db:                db,
		redisClient:       redisClient,
	}

	s.setupRoutes(cfg)

	s.handler = NewRecoveryMiddleware().Handler(
		NewLoggingMiddleware().Handler(
			NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.handler,
		ReadTimeout: 30 * time.Second,
		// Synchronous checks can take a while on large submissions
		WriteTimeout: cfg.CheckTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config) {
	authMiddleware := NewAuthMiddleware(s.verifier)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	manager := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireManager(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Materials
	s.router.Handle("POST /api/v1/materials", authed(s.handleRegisterMaterial(cfg.MaxUploadBytes)))
	s.router.Handle("GET /api/v1/materials/{id}", authed(s.handleGetMaterial))
	s.router.Handle("GET /api/v1/materials/{id}/text", authed(s.handleGetMaterialText))
	s.router.Handle("POST /api/v1/materials/{id}/process", authed(s.handleProcessMaterial))
	s.router.Handle("DELETE /api/v1/materials/{id}", manager(s.handleDeleteMaterial))

	// External references
	s.router.Handle("GET /api/v1/references", authed(s.handleListReferences))
	s.router.Handle("POST /api/v1/references", manager(s.handleRegisterReference))

	// Courses
	s.router.Handle("GET /api/v1/courses/{id}/materials", authed(s.handleListCourseMaterials))
	s.router.Handle("DELETE /api/v1/courses/{id}", manager(s.handleDeleteCourse))
	s.router.Handle("DELETE /api/v1/courses", admin(s.handleDeleteAllCourses))

	// Submissions
	s.router.Handle("GET /api/v1/submissions/{id}/materials", authed(s.handleListSubmissionMaterials))
	s.router.Handle("DELETE /api/v1/submissions/{id}", manager(s.handleDeleteSubmission))
	s.router.Handle("DELETE /api/v1/submissions", admin(s.handleDeleteAllSubmissions))

	// Plagiarism
	s.router.Handle("GET /api/v1/plagiarism/check-plagiarism/{submissionId}",
		authed(s.handleCheckPlagiarism(cfg.CheckTimeout)))
	s.router.Handle("POST /api/v1/plagiarism/check-plagiarism/{submissionId}/async",
		authed(s.handleCheckPlagiarismAsync))
	s.router.Handle("GET /api/v1/plagiarism/get-plagiarism-report/{submissionId}",
		authed(s.handleGetPlagiarismReport))

	// Tasks
	s.router.Handle("GET /api/v1/tasks/{id}", authed(s.handleGetTask))
}

// AddReadinessCheck reports p under name on /ready. A failing check makes
// the instance unready. Call before Start.
func (s *Server) AddReadinessCheck(name string, p Pinger) {
	if p == nil {
		return
	}
	s.readiness = append(s.readiness, readinessCheck{name: name, pinger: p})
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
