package lingo

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/pitabwire/lingo/browser"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/devproxy"
	"github.com/pitabwire/lingo/page"
)

// WithFrontendFromConfig applies the shell, user config and dev proxy settings of the configuration.
func WithFrontendFromConfig() Option {
	return func(ctx context.Context, s *Service) {
		if cfg, ok := s.Config().(config.ConfigurationFrontend); ok {
			if cfg.GetShellPath() != "" {
				WithShellFile(cfg.GetShellPath())(ctx, s)
			}
			if cfg.GetUserConfigPath() != "" {
				WithUserConfigFile(cfg.GetUserConfigPath())(ctx, s)
			}
			s.openBrowser = cfg.OpenBrowser()
		}

		if cfg, ok := s.Config().(config.ConfigurationDevProxy); ok && cfg.DevProxyEnabled() {
			WithDevProxy(devproxy.Config{
				Target:   cfg.GetDevProxyTarget(),
				Prefixes: cfg.GetDevProxyPrefixes(),
			})(ctx, s)
		}
	}
}

// WithShell sets the HTML document served for application routes.
func WithShell(shell []byte) Option {
	return func(_ context.Context, s *Service) {
		s.shell = shell
	}
}

// WithShellFile reads the application shell from path.
func WithShellFile(path string) Option {
	return func(ctx context.Context, s *Service) {
		shell, err := os.ReadFile(path)
		if err != nil {
			s.Log(ctx).WithError(err).WithField("path", path).Error("could not read application shell")
			return
		}
		s.shell = shell
	}
}

// WithUserConfig sets the configuration text embedded into the application shell.
func WithUserConfig(text string) Option {
	return func(_ context.Context, s *Service) {
		s.userConfig = text
	}
}

// WithUserConfigFile loads the embedded configuration from a json, yaml or toml file.
func WithUserConfigFile(path string) Option {
	return func(ctx context.Context, s *Service) {
		text, err := page.LoadUserConfig(path)
		if err != nil {
			s.Log(ctx).WithError(err).WithField("path", path).Error("could not load user config")
			return
		}
		s.userConfig = text
	}
}

// WithDevProxy forwards the configured prefixes to a development backend.
func WithDevProxy(cfg devproxy.Config) Option {
	return func(ctx context.Context, s *Service) {
		proxy, err := devproxy.New(cfg)
		if err != nil {
			s.Log(ctx).WithError(err).Error("could not set up dev proxy")
			return
		}
		s.proxy = proxy
	}
}

// WithBrowserOpener replaces the host browser launcher.
func WithBrowserOpener(opener browser.Opener) Option {
	return func(_ context.Context, s *Service) {
		s.opener = opener
	}
}

// WithOpenBrowser opens the application in a new browser tab once the server listens.
func WithOpenBrowser(open bool) Option {
	return func(_ context.Context, s *Service) {
		s.openBrowser = open
	}
}

// WithHTTPHandler serves application routes with h instead of the shell.
func WithHTTPHandler(h http.Handler) Option {
	return func(_ context.Context, s *Service) {
		s.appHandler = h
	}
}

// WithListener serves on an existing listener instead of opening the configured port.
func WithListener(ln net.Listener) Option {
	return func(_ context.Context, s *Service) {
		s.listener = ln
	}
}

// UserConfig returns the configuration text embedded into the shell.
func (s *Service) UserConfig() string {
	return s.userConfig
}

// DevProxy returns the development proxy, nil when disabled.
func (s *Service) DevProxy() *devproxy.Proxy {
	return s.proxy
}
