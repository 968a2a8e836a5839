package services

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"posture-worker-go/internal/config"
	"posture-worker-go/internal/services/messaging"
	"posture-worker-go/internal/services/pose"
	"posture-worker-go/internal/services/rules"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config    *config.Config
	Engine    *rules.Engine
	Messaging *messaging.Service

	// NewProvider opens a pose provider for one session. Each session owns
	// its provider exclusively and must Close it when done.
	NewProvider func() (pose.Provider, error)
}

// NewServiceContainer creates a new service container
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}

	engine := rules.NewDefaultEngine(cfg)

	// Messaging is optional: without a broker the worker still serves HTTP.
	messagingSvc, err := messaging.NewService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, session events disabled")
		messagingSvc = nil
	}

	poseConfig := pose.Config{
		MinDetectionConfidence: cfg.MinDetectionConfidence,
		MinTrackingConfidence:  cfg.MinTrackingConfidence,
		ScriptPath:             cfg.PoseScriptPath,
		PythonPath:             cfg.PosePythonPath,
	}

	return &ServiceContainer{
		Config:    cfg,
		Engine:    engine,
		Messaging: messagingSvc,
		NewProvider: func() (pose.Provider, error) {
			return pose.NewMediaPipeProvider(poseConfig)
		},
	}, nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}
