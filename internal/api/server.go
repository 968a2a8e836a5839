package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"posture-worker-go/internal/api/handlers"
	"posture-worker-go/internal/api/middleware"
	"posture-worker-go/internal/config"
	"posture-worker-go/internal/services"
)

type Server struct {
	config    *config.Config
	router    *gin.Engine
	server    *http.Server
	container *services.ServiceContainer

	healthHandler   *handlers.HealthHandler
	analysisHandler *handlers.AnalysisHandler
	systemHandler   *handlers.SystemHandler
}

func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.New()

	s := &Server{
		config:          cfg,
		router:          router,
		container:       container,
		healthHandler:   handlers.NewHealthHandler(cfg.WorkerID, cfg.Version),
		analysisHandler: handlers.NewAnalysisHandler(container),
		systemHandler:   handlers.NewSystemHandler(cfg.WorkerID),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestID())
	s.router.MaxMultipartMemory = s.config.MaxUploadSize
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.container.Shutdown(ctx)
}
