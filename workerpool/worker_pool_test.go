package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/workerpool"
)

type WorkerPoolSuite struct {
	suite.Suite
}

func TestWorkerPoolSuite(t *testing.T) {
	suite.Run(t, new(WorkerPoolSuite))
}

func (s *WorkerPoolSuite) newPool(opts ...workerpool.Option) (workerpool.Manager, workerpool.WorkerPool) {
	cfg := &config.ConfigurationDefault{
		WorkerPoolCPUFactorForWorkerCount: 1,
		WorkerPoolCapacity:                4,
		WorkerPoolCount:                   1,
		WorkerPoolExpiryDuration:          "1s",
	}

	m, err := workerpool.NewManager(s.T().Context(), cfg, opts...)
	s.Require().NoError(err)

	pool, err := m.GetPool()
	s.Require().NoError(err)

	s.T().Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m, pool
}

func (s *WorkerPoolSuite) TestSubmitAllRunsEveryTask() {
	testCases := []struct {
		name  string
		opts  []workerpool.Option
		tasks int
	}{
		{name: "single pool", tasks: 32},
		{name: "multi pool", opts: []workerpool.Option{workerpool.WithPoolCount(3)}, tasks: 32},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, pool := s.newPool(tc.opts...)

			var counter atomic.Int64
			tasks := make([]func(context.Context) error, tc.tasks)
			for i := range tasks {
				tasks[i] = func(context.Context) error {
					counter.Add(1)
					return nil
				}
			}

			s.Require().NoError(workerpool.SubmitAll(s.T().Context(), pool, tasks...))
			s.Equal(int64(tc.tasks), counter.Load())
		})
	}
}

func (s *WorkerPoolSuite) TestSubmitAllJoinsErrors() {
	_, pool := s.newPool()
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	err := workerpool.SubmitAll(s.T().Context(), pool,
		func(context.Context) error { return errFirst },
		func(context.Context) error { return nil },
		func(context.Context) error { return errSecond },
	)

	s.Require().Error(err)
	s.Require().ErrorIs(err, errFirst)
	s.Require().ErrorIs(err, errSecond)
}

func (s *WorkerPoolSuite) TestSubmitAllWithoutPoolRunsInline() {
	ran := 0
	err := workerpool.SubmitAll(s.T().Context(), nil,
		func(context.Context) error { ran++; return nil },
		func(context.Context) error { ran++; return nil },
	)
	s.Require().NoError(err)
	s.Equal(2, ran)
}

func (s *WorkerPoolSuite) TestSubmitOnCancelledContext() {
	_, pool := s.newPool()

	ctx, cancel := context.WithCancel(s.T().Context())
	cancel()

	err := pool.Submit(ctx, func() {})
	s.Require().ErrorIs(err, context.Canceled)

	err = workerpool.SubmitAll(ctx, pool, func(context.Context) error { return nil })
	s.Require().ErrorIs(err, context.Canceled)
}
