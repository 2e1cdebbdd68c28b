// Package worker contains background deliveries that run beside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"clio/config"
	"clio/internal/delivery"
	"clio/internal/usecase"
	"clio/internal/util"

	"go.uber.org/fx"
)

const defaultSweepInterval = time.Hour

// sweeper periodically removes expired session records from the whitelist.
// It is housekeeping only: expired tokens already fail verification on their
// own, the sweep just keeps the ledger from growing without bound.
type sweeper struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions usecase.SessionUsecase
	stopped  chan struct{}
}

// SweeperParams holds dependencies for the sweeper delivery.
type SweeperParams struct {
	fx.In
	fx.Lifecycle

	Config   *config.Config
	Logger   *slog.Logger
	Sessions usecase.SessionUsecase
}

// NewSweeper creates the expired-session sweeper.
func NewSweeper(params SweeperParams) (delivery.Delivery, error) {
	srv := &sweeper{
		cfg:      params.Config,
		logger:   params.Logger,
		sessions: params.Sessions,
		stopped:  make(chan struct{}),
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			close(srv.stopped)

			return nil
		},
	})

	return srv, nil
}

// Serve runs the sweep loop until shutdown.
func (s *sweeper) Serve(ctx context.Context) error {
	if s.cfg.Sweep == nil || !s.cfg.Sweep.Enabled {
		s.logger.Info("Session sweeper disabled")

		return nil
	}

	interval := s.cfg.Sweep.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	s.logger.Info("Starting session sweeper", slog.String("interval", util.FormatDuration(interval)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopped:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	count, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		// Transient ledger failures are retried on the next tick.
		s.logger.Error("Session sweep failed", slog.Any("error", err))

		return
	}

	if count > 0 {
		s.logger.Info("Session sweep completed", slog.Int64("deleted", count))
	}
}
