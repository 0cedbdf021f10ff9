package lingo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel/metric"

	"github.com/pitabwire/lingo/browser"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/devproxy"
	"github.com/pitabwire/lingo/locale"
	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/profiler"
	"github.com/pitabwire/lingo/ratelimiter"
	"github.com/pitabwire/lingo/version"
	"github.com/pitabwire/lingo/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "lingo/" + string(c)
}

const (
	ctxKeyService = contextKey("serviceKey")

	defaultHTTPReadTimeoutSeconds     = 15
	defaultHTTPWriteTimeoutSeconds    = 15
	defaultHTTPIdleTimeoutSeconds     = 60
	defaultHTTPShutdownTimeoutSeconds = 10
)

// Service holds together the locale facility, the HTTP surface and the ambient
// components for the lifetime of the application.
type Service struct {
	name        string
	version     string
	environment string

	logger        *util.LogEntry
	configuration any

	facility      *locale.Facility
	defaultLocale string
	localization  localization.Manager
	workerManager workerpool.Manager
	pool          workerpool.WorkerPool

	proxy       *devproxy.Proxy
	shell       []byte
	userConfig  string
	opener      browser.Opener
	openBrowser bool
	appHandler  http.Handler
	handler     http.Handler

	healthCheckers  []Checker
	healthCheckPath string

	limiter       *ratelimiter.KeyedLimiter
	profiler      *profiler.Server
	meterProvider metric.MeterProvider

	listener   net.Listener
	httpServer *http.Server

	startup    func(ctx context.Context, s *Service)
	cleanup    func(ctx context.Context)
	cancelFunc context.CancelFunc
	startOnce  sync.Once
	stopMutex  sync.Mutex
	stopped    bool
}

type Option func(ctx context.Context, service *Service)

// NewService creates a new instance of Service with the name and supplied options.
// Internally it calls NewServiceWithContext and creates a background context for use.
func NewService(name string, opts ...Option) (context.Context, *Service) {
	return NewServiceWithContext(context.Background(), name, opts...)
}

// NewServiceWithContext creates a new instance of Service with context, name and supplied options.
// Components not set through options are built from the environment configuration.
func NewServiceWithContext(ctx context.Context, name string, opts ...Option) (context.Context, *Service) {
	ctx, signalCancelFunc := signal.NotifyContext(ctx,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	service := &Service{
		name:       name,
		version:    version.Version,
		cancelFunc: signalCancelFunc,
		logger:     defaultLogger,
	}

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		defaultLogger.WithError(err).Warn("could not read configuration from environment, using defaults")
	}

	// Explicit options run after the environment so they always win.
	opts = append([]Option{WithConfig(&defaultCfg)}, opts...)
	service.Init(ctx, opts...)
	service.fillDefaults(ctx)

	ctx = ToContext(ctx, service)
	ctx = config.ToContext(ctx, service.Config())
	ctx = util.ContextWithLogger(ctx, service.logger)
	return ctx, service
}

// ToContext pushes a service instance into the supplied context for easier propagation.
func ToContext(ctx context.Context, service *Service) context.Context {
	return context.WithValue(ctx, ctxKeyService, service)
}

// FromContext obtains a service instance being propagated through the context.
func FromContext(ctx context.Context) *Service {
	service, ok := ctx.Value(ctxKeyService).(*Service)
	if !ok {
		return nil
	}

	return service
}

// Init evaluates the options provided as arguments and supplies them to the service object.
func (s *Service) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		opt(ctx, s)
	}
}

// fillDefaults builds whatever the options left unset from the configuration.
func (s *Service) fillDefaults(ctx context.Context) {
	if s.facility == nil {
		WithLocaleFacility(locale.New(s.facilityOptions()...))(ctx, s)
	}

	if s.localization == nil {
		WithTranslations("")(ctx, s)
	}

	if s.workerManager == nil {
		WithWorkerPool()(ctx, s)
	}

	if s.opener == nil {
		s.opener = browser.SystemOpener{}
	}
}

// Name gets the name of the service. Its the first argument used when NewService is called.
func (s *Service) Name() string {
	return s.name
}

// WithName specifies the name the service will utilize.
func WithName(name string) Option {
	return func(_ context.Context, s *Service) {
		s.name = name
	}
}

// Version gets the release version of the service.
func (s *Service) Version() string {
	return s.version
}

// WithVersion specifies the version the service will utilize.
func WithVersion(version string) Option {
	return func(_ context.Context, s *Service) {
		s.version = version
	}
}

// Environment gets the runtime environment of the service.
func (s *Service) Environment() string {
	return s.environment
}

// WithEnvironment specifies the environment the service will utilize.
func WithEnvironment(environment string) Option {
	return func(_ context.Context, s *Service) {
		s.environment = environment
	}
}

// AddPreStartMethod Adds user defined functions that can be run just before
// the service starts receiving requests but is fully initialized.
func (s *Service) AddPreStartMethod(f func(ctx context.Context, s *Service)) {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()
	if s.startup == nil {
		s.startup = f
		return
	}

	old := s.startup
	s.startup = func(ctx context.Context, st *Service) { old(ctx, st); f(ctx, st) }
}

// AddCleanupMethod Adds user defined functions to be run just before completely stopping the service.
func (s *Service) AddCleanupMethod(f func(ctx context.Context)) {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()

	if s.cleanup == nil {
		s.cleanup = f
		return
	}

	old := s.cleanup
	s.cleanup = func(ctx context.Context) { f(ctx); old(ctx) }
}

// Run serves HTTP on address until ctx is done or the server fails.
// An empty address falls back to the configured port.
func (s *Service) Run(ctx context.Context, address string) error {
	s.startOnce.Do(func() {
		s.handler = s.Handler()
		s.httpServer = &http.Server{
			Handler: s.handler,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
			ReadTimeout:  defaultHTTPReadTimeoutSeconds * time.Second,
			WriteTimeout: defaultHTTPWriteTimeoutSeconds * time.Second,
			IdleTimeout:  defaultHTTPIdleTimeoutSeconds * time.Second,
		}
	})

	ln := s.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.determineHTTPPort(address))
		if err != nil {
			return fmt.Errorf("could not listen for http: %w", err)
		}
	}

	s.warmUp(ctx)
	s.startProfiler(ctx)

	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	if s.startup != nil {
		s.startup(ctx, s)
	}

	s.openOnStart(ctx, ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		s.Log(ctx).WithField("address", ln.Addr().String()).Info("http server listening")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.Stop(ctx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log(ctx).WithError(err).Error("system exit in error")
			s.Stop(ctx)
			return err
		}
		s.Log(ctx).Debug("system exit")
		return nil
	}
}

func (s *Service) determineHTTPPort(currentPort string) string {
	if currentPort != "" {
		return currentPort
	}

	cfg, ok := s.Config().(config.ConfigurationPorts)
	if !ok {
		return config.DefaultHTTPPort
	}
	return cfg.HTTPPort()
}

func (s *Service) warmUp(ctx context.Context) {
	cfg, ok := s.Config().(config.ConfigurationLocale)
	if !ok || len(cfg.WarmUpLocales()) == 0 {
		return
	}

	// Failures are logged by WarmUp and do not stop the server.
	_ = s.facility.WarmUp(ctx, s.pool, cfg.WarmUpLocales()...)
}

func (s *Service) openOnStart(ctx context.Context, addr net.Addr) {
	if !s.openBrowser {
		return
	}

	uri := "http://localhost/"
	if tcp, isTCP := addr.(*net.TCPAddr); isTCP {
		uri = fmt.Sprintf("http://localhost:%d/", tcp.Port)
	}

	if err := browser.OpenNewTabWith(ctx, s.opener, uri); err != nil {
		s.Log(ctx).WithError(err).WithField("uri", uri).Warn("could not open browser")
	}
}

// Stop gracefully shuts the HTTP server down and runs the clean up methods.
func (s *Service) Stop(ctx context.Context) {
	if !s.stopMutex.TryLock() {
		return
	}
	defer s.stopMutex.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true

	s.Log(ctx).Info("service stopping")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.WithoutCancel(ctx), defaultHTTPShutdownTimeoutSeconds*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.Log(ctx).WithError(err).Warn("http server did not shut down cleanly")
		}
	}

	if s.profiler != nil {
		_ = s.profiler.Stop(context.WithoutCancel(ctx))
	}

	if s.cleanup != nil {
		s.cleanup(ctx)
	}

	if s.workerManager != nil {
		s.logger.Info("shutting down worker pool")
		if err := s.workerManager.Shutdown(ctx); err != nil {
			s.Log(ctx).WithError(err).Warn("worker pool did not shut down cleanly")
		}
	}
}
