package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trovamart/returns-backend/internal/notifications"
	"github.com/trovamart/returns-backend/internal/settlement"
	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/db"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/pubsub"
	"github.com/trovamart/returns-backend/pkg/redis"
)

const defaultReconcileInterval = 5 * time.Minute

type ServiceParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   *db.Client
	Redis                *redis.Client
	PubSub               *pubsub.Client
	Reconciler           *settlement.Reconciler
	NotificationConsumer *notifications.Consumer
}

type Service struct {
	cfg                  *config.Config
	logg                 *logger.Logger
	db                   *db.Client
	redis                *redis.Client
	pubsub               *pubsub.Client
	reconciler           *settlement.Reconciler
	notificationConsumer *notifications.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Reconciler == nil {
		return nil, errors.New("settlement reconciler is required")
	}
	if params.NotificationConsumer == nil {
		return nil, errors.New("notification consumer is required")
	}

	return &Service{
		cfg:                  params.Config,
		logg:                 params.Logger,
		db:                   params.DB,
		redis:                params.Redis,
		pubsub:               params.PubSub,
		reconciler:           params.Reconciler,
		notificationConsumer: params.NotificationConsumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.cfg.Reconciler.Interval
	if interval <= 0 {
		interval = defaultReconcileInterval
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := s.notificationConsumer.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "notification consumer stopped unexpectedly", err)
		}
		return err
	})
	group.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logg.Info(ctx, "worker context canceled")
				return ctx.Err()
			case <-ticker.C:
				s.runReconcile(ctx)
			}
		}
	})
	return group.Wait()
}

func (s *Service) runReconcile(ctx context.Context) {
	report, err := s.reconciler.Run(ctx)
	ctxWithFields := s.logg.WithFields(ctx, map[string]any{
		"scanned":  report.Scanned,
		"repaired": report.Repaired,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
	if err != nil {
		s.logg.Error(ctxWithFields, "settlement reconcile pass finished with errors", err)
		return
	}
	if report.Scanned > 0 {
		s.logg.Info(ctxWithFields, "settlement reconcile pass complete")
	}
}
