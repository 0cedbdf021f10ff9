package locale_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingo/locale"
)

type MemoSuite struct {
	suite.Suite
}

func TestMemoSuite(t *testing.T) {
	suite.Run(t, new(MemoSuite))
}

type handle struct {
	key string
}

func (s *MemoSuite) TestBuildsOncePerKey() {
	var calls atomic.Int64
	m := locale.NewMemo(func(key string) (*handle, error) {
		calls.Add(1)
		return &handle{key: key}, nil
	})

	first, err := m.Get("en-US")
	s.Require().NoError(err)
	second, err := m.Get("en-US")
	s.Require().NoError(err)
	other, err := m.Get("fr")
	s.Require().NoError(err)

	s.Same(first, second)
	s.NotSame(first, other)
	s.Equal(int64(2), calls.Load())
	s.Equal(int64(2), m.Built())
	s.Equal([]string{"en-US", "fr"}, m.Keys())
}

func (s *MemoSuite) TestConcurrentFirstAccess() {
	var calls atomic.Int64
	m := locale.NewMemo(func(key string) (*handle, error) {
		calls.Add(1)
		return &handle{key: key}, nil
	})

	const callers = 64
	results := make([]*handle, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	for i := range callers {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			h, err := m.Get("sv-SE")
			if err == nil {
				results[i] = h
			}
		}()
	}
	start.Done()
	done.Wait()

	s.Equal(int64(1), calls.Load())
	for _, h := range results {
		s.Same(results[0], h)
	}
}

func (s *MemoSuite) TestFailedBuildIsNotKept() {
	errBuild := errors.New("build failed")
	fail := true
	m := locale.NewMemo(func(key string) (*handle, error) {
		if fail {
			return nil, errBuild
		}
		return &handle{key: key}, nil
	})

	h, err := m.Get("xx")
	s.Require().ErrorIs(err, errBuild)
	s.Nil(h)
	s.Empty(m.Keys())
	s.Equal(int64(0), m.Built())

	fail = false
	h, err = m.Get("xx")
	s.Require().NoError(err)
	s.Equal("xx", h.key)
	s.Equal(int64(1), m.Built())
}
