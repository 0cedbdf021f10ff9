package lingo

import (
	"context"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/workerpool"
)

// WithWorkerPool creates the pool used for background work such as locale warm up.
func WithWorkerPool(opts ...workerpool.Option) Option {
	return func(ctx context.Context, s *Service) {
		cfg, _ := s.Config().(config.ConfigurationWorkerPool)

		manager, err := workerpool.NewManager(ctx, cfg, append([]workerpool.Option{
			workerpool.WithPoolLogger(s.logger),
		}, opts...)...)
		if err != nil {
			s.Log(ctx).WithError(err).Panic("could not create a worker pool")
		}

		pool, err := manager.GetPool()
		if err != nil {
			s.Log(ctx).WithError(err).Panic("worker pool unavailable")
		}

		if s.workerManager != nil {
			_ = s.workerManager.Shutdown(ctx)
		}
		s.workerManager = manager
		s.pool = pool
	}
}

// WorkerPool returns the service's pool.
func (s *Service) WorkerPool() workerpool.WorkerPool {
	return s.pool
}
