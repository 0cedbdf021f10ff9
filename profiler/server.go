// Package profiler exposes net/http/pprof on a separate listener.
package profiler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/pitabwire/util"
)

const (
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
)

// Server manages the pprof server lifecycle.
type Server struct {
	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

func NewServer() *Server {
	return &Server{}
}

// Handler serves the pprof index and profiles under /debug/pprof/.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// Start listens on address and serves profiles in the background.
func (s *Server) Start(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	log := util.Log(ctx).WithField("address", ln.Addr().String())
	log.Info("starting pprof server")

	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.server = srv
	s.mu.Unlock()

	go func(srv *http.Server) {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.WithError(serveErr).Error("pprof server failed")
		}
	}(srv)

	return nil
}

// Addr is the bound address while running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts down the pprof server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.addr = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	util.Log(ctx).Info("stopping pprof server")

	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Log(ctx).WithError(err).Error("failed to shutdown pprof server")
		return err
	}
	return nil
}

// IsRunning returns true if the profiler server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}
