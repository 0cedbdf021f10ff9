package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingo/config"
)

var ErrWorkerPoolNotConfigured = errors.New("worker pool is not configured")

type manager struct {
	pool WorkerPool
}

// NewManager creates the pool described by cfg and the supplied options.
func NewManager(
	ctx context.Context,
	cfg config.ConfigurationWorkerPool,
	opts ...Option,
) (Manager, error) {
	poolOpts := defaultWorkerPoolOpts(cfg, util.Log(ctx))

	for _, opt := range opts {
		opt(poolOpts)
	}

	pool, err := setupWorkerPool(ctx, poolOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	return &manager{pool: pool}, nil
}

func (m *manager) GetPool() (WorkerPool, error) {
	if m.pool == nil {
		return nil, ErrWorkerPoolNotConfigured
	}
	return m.pool, nil
}

func (m *manager) Shutdown(_ context.Context) error {
	if m.pool != nil {
		m.pool.Shutdown()
	}
	return nil
}

// SubmitAll runs every task on the pool and waits for all of them.
// A nil pool runs the tasks inline. Task and submission errors are joined.
func SubmitAll(ctx context.Context, pool WorkerPool, tasks ...func(ctx context.Context) error) error {
	if pool == nil {
		var errs []error
		for _, task := range tasks {
			if err := task(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, task := range tasks {
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			if taskErr := task(ctx); taskErr != nil {
				record(taskErr)
			}
		})
		if err != nil {
			wg.Done()
			record(err)
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}
