// Package messaging publishes session outcomes to NATS. Messaging is
// best-effort: a missing broker degrades the worker to HTTP-only operation
// instead of failing requests.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"posture-worker-go/internal/config"
	"posture-worker-go/internal/models"
)

type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name("posture-worker"),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.conn.Publish(subject, payload)
}

// PublishSessionResult emits the terminal session outcome on the sessions
// subject. Failures are logged, not propagated; the HTTP response already
// carries the result.
func (s *Service) PublishSessionResult(result *models.SessionResult) {
	if s == nil || !s.IsConnected() {
		return
	}

	if err := s.Publish(s.cfg.SessionsSubject, result); err != nil {
		log.Warn().Err(err).Str("session_id", result.SessionID).Msg("Failed to publish session result")
		return
	}

	log.Debug().Str("session_id", result.SessionID).Str("subject", s.cfg.SessionsSubject).Msg("Session result published")
}

func (s *Service) IsConnected() bool {
	return s != nil && s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		// Try graceful drain with timeout, fallback to immediate close
		if err := s.conn.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
