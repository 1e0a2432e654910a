package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"easylesson/config"
	"easylesson/internal/logger"
	"easylesson/internal/models"
	"easylesson/internal/store"
	"easylesson/internal/tts"
)

// Version is reported by /api/status.
const Version = "1.0.0"

// Generator produces records and continuations.
type Generator interface {
	Generate(ctx context.Context, kind models.Kind, req *models.GenerationRequest) (*models.Record, error)
	Continue(ctx context.Context, kind models.Kind, id string, req *models.ContinuationRequest) (*models.ContinuationResponse, error)
}

// Archiver copies records and narration to object storage.
type Archiver interface {
	ArchiveRecord(ctx context.Context, rec *models.Record) (string, error)
	RemoveArchive(ctx context.Context, rec *models.Record) error
	UploadAudio(ctx context.Context, rec *models.Record, audio []byte) (string, error)
	AudioURL(ctx context.Context, rec *models.Record) (string, error)
}

// Deps are the collaborators of a Server. Archive and TTS may be nil.
type Deps struct {
	Generator     Generator
	Store         store.Store
	Archive       Archiver
	TTS           tts.Service
	LLMConfigured bool
	Log           *logger.Logger
}

// Server is the HTTP API and static front-end server.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	deps       Deps
	log        *logger.Logger
}

// NewServer wires middleware and routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(deps.Log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	s := &Server{
		config: cfg,
		router: router,
		deps:   deps,
		log:    deps.Log.With("component", "api"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api")
	{
		api.GET("/status", s.statusHandler)

		stories := api.Group("/stories")
		stories.POST("/generate", s.generateHandler(models.KindStory))
		stories.POST("/:id/continue", s.continueStoryHandler)

		lessons := api.Group("/lessons")
		lessons.POST("", s.generateHandler(models.KindLesson))
		lessons.POST("/generate", s.generateHandler(models.KindLesson))
		lessons.GET("", s.listHandler)
		lessons.GET("/:id", s.getHandler)
		lessons.DELETE("/:id", s.deleteHandler)
		lessons.POST("/:id/continue", s.continueLessonHandler)
		lessons.POST("/:id/quiz/grade", s.gradeHandler)
		lessons.POST("/:id/narration", s.narrationHandler)
	}

	s.router.NoRoute(s.staticHandler)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("server listening", "addr", s.httpServer.Addr, "public_dir", s.config.Server.PublicDir)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
