package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
	"LinkSynth/internal/usecase"
)

// PipelineRunner is the slice of the queue processor the API needs.
type PipelineRunner interface {
	Process(ctx context.Context, id string) (usecase.PipelineResult, error)
	ProcessNext(ctx context.Context) (usecase.PipelineResult, error)
}

// SynthesisRunner is the slice of the project synthesizer the API needs.
type SynthesisRunner interface {
	SynthesizeProject(ctx context.Context, projectID string) (domain.ProcessedItem, error)
}

// Server exposes the pipeline trigger surface and project CRUD over HTTP.
type Server struct {
	pipeline    PipelineRunner
	synthesizer SynthesisRunner
	queue       ports.QueueRepository
	projects    ports.ProjectRepository
	logger      *slog.Logger
	http        *http.Server
}

// NewServer wires handlers and middleware into a runnable HTTP server.
func NewServer(addr string, pipeline PipelineRunner, synthesizer SynthesisRunner, queue ports.QueueRepository, projects ports.ProjectRepository, logger *slog.Logger) *Server {
	s := &Server{
		pipeline:    pipeline,
		synthesizer: synthesizer,
		queue:       queue,
		projects:    projects,
		logger:      logger,
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second, // synchronous /api/process runs a full scrape session
	}
	return s
}

func (s *Server) router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	{
		api.POST("/ingest", s.handleIngest)
		api.POST("/process", s.handleProcess)
		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleCreateProject)
		api.PATCH("/projects", s.handleUpdateProject)
		api.DELETE("/projects", s.handleDeleteProject)
		api.POST("/projects/:id/synthesize", s.handleSynthesize)
	}

	return engine
}

// Start begins serving; it blocks until the listener stops.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps an error chain to the boundary contract: kind plus message,
// never internal diagnostics.
func (s *Server) writeError(c *gin.Context, err error) {
	kind := domain.Classify(err)

	status := http.StatusInternalServerError
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	}

	if s.logger != nil {
		s.logger.Error("request failed", "path", c.FullPath(), "kind", string(kind), "error", err)
	}

	c.JSON(status, gin.H{"error": string(kind), "message": err.Error()})
}

func validationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": string(domain.KindValidation), "message": message})
}
