package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "lingo/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultHTTPPort       = ":8080"
	DefaultDevProxyTarget = "http://localhost:8000"
)

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogFormat     string `envDefault:"info"                      env:"LOG_FORMAT"      yaml:"log_format"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	ServiceName        string `envDefault:"" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:"" env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:"" env:"SERVICE_VERSION"     yaml:"service_version"`

	HTTPServerPort string `envDefault:":8080" env:"HTTP_PORT" yaml:"http_server_port"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	LocaleDefault    string   `envDefault:""      env:"LOCALE_DEFAULT"     yaml:"locale_default"`
	LocaleSupported  []string `envDefault:"en,sw" env:"LOCALE_SUPPORTED"   yaml:"locale_supported"`
	LocaleWarmUp     []string `                   env:"LOCALE_WARM_UP"     yaml:"locale_warm_up"`
	LocaleTimeZone   string   `envDefault:"Local" env:"LOCALE_TIME_ZONE"   yaml:"locale_time_zone"`
	LocaleMessageDir string   `envDefault:""      env:"LOCALE_MESSAGE_DIR" yaml:"locale_message_dir"`

	DevProxyEnable   bool     `envDefault:"false"                 env:"DEV_PROXY_ENABLE"   yaml:"dev_proxy_enable"`
	DevProxyTarget   string   `envDefault:"http://localhost:8000" env:"DEV_PROXY_TARGET"   yaml:"dev_proxy_target"`
	DevProxyPrefixes []string `envDefault:"/api,/download"        env:"DEV_PROXY_PREFIXES" yaml:"dev_proxy_prefixes"`

	RateLimitRequestsPerSecond float64 `envDefault:"0" env:"RATE_LIMIT_RPS"   yaml:"rate_limit_rps"`
	RateLimitBurst             int     `envDefault:"0" env:"RATE_LIMIT_BURST" yaml:"rate_limit_burst"`

	ProfilerEnable   bool   `envDefault:"false" env:"PROFILER_ENABLE" yaml:"profiler_enable"`
	ProfilerPortAddr string `envDefault:":6060" env:"PROFILER_PORT"   yaml:"profiler_port"`

	UserConfigPath     string   `env:"USER_CONFIG_PATH"     yaml:"user_config_path"`
	ShellPath          string   `env:"SHELL_PATH"           yaml:"shell_path"`
	OpenBrowserOnStart bool     `env:"OPEN_BROWSER"         yaml:"open_browser"         envDefault:"false"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}
func (c *ConfigurationDefault) Environment() string {
	return c.ServiceEnvironment
}
func (c *ConfigurationDefault) Version() string {
	return c.ServiceVersion
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingFormat() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingFormat() string {
	return c.LogFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationPorts interface {
	HTTPPort() string
}

var _ ConfigurationPorts = new(ConfigurationDefault)

func (c *ConfigurationDefault) HTTPPort() string {
	if i, err := strconv.Atoi(c.HTTPServerPort); err == nil && i > 0 {
		return fmt.Sprintf(":%s", strings.TrimSpace(c.HTTPServerPort))
	}

	if strings.HasPrefix(c.HTTPServerPort, ":") || strings.Contains(c.HTTPServerPort, ":") {
		return c.HTTPServerPort
	}

	return DefaultHTTPPort
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}

type ConfigurationLocale interface {
	DefaultLocale() string
	SupportedLocales() []string
	WarmUpLocales() []string
	TimeZone() *time.Location
	MessageDir() string
}

var _ ConfigurationLocale = new(ConfigurationDefault)

// DefaultLocale is empty when the host locale should be used.
func (c *ConfigurationDefault) DefaultLocale() string {
	return strings.TrimSpace(c.LocaleDefault)
}

func (c *ConfigurationDefault) SupportedLocales() []string {
	return trimAll(c.LocaleSupported)
}

func (c *ConfigurationDefault) WarmUpLocales() []string {
	return trimAll(c.LocaleWarmUp)
}

// TimeZone resolves LOCALE_TIME_ZONE, falling back to the host zone when it cannot be loaded.
func (c *ConfigurationDefault) TimeZone() *time.Location {
	name := strings.TrimSpace(c.LocaleTimeZone)
	if name == "" || name == "Local" {
		return time.Local
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *ConfigurationDefault) MessageDir() string {
	return c.LocaleMessageDir
}

type ConfigurationDevProxy interface {
	DevProxyEnabled() bool
	GetDevProxyTarget() string
	GetDevProxyPrefixes() []string
}

var _ ConfigurationDevProxy = new(ConfigurationDefault)

func (c *ConfigurationDefault) DevProxyEnabled() bool {
	return c.DevProxyEnable
}

func (c *ConfigurationDefault) GetDevProxyTarget() string {
	if strings.TrimSpace(c.DevProxyTarget) == "" {
		return DefaultDevProxyTarget
	}
	return c.DevProxyTarget
}

func (c *ConfigurationDefault) GetDevProxyPrefixes() []string {
	return trimAll(c.DevProxyPrefixes)
}

type ConfigurationRateLimit interface {
	RateLimitPerSecond() float64
	RateLimitBurstSize() int
}

var _ ConfigurationRateLimit = new(ConfigurationDefault)

// RateLimitPerSecond is zero when API requests are not limited.
func (c *ConfigurationDefault) RateLimitPerSecond() float64 {
	return max(0, c.RateLimitRequestsPerSecond)
}

func (c *ConfigurationDefault) RateLimitBurstSize() int {
	return c.RateLimitBurst
}

type ConfigurationProfiler interface {
	ProfilerEnabled() bool
	ProfilerPort() string
}

var _ ConfigurationProfiler = new(ConfigurationDefault)

func (c *ConfigurationDefault) ProfilerEnabled() bool {
	return c.ProfilerEnable
}

func (c *ConfigurationDefault) ProfilerPort() string {
	if c.ProfilerPortAddr != "" {
		return c.ProfilerPortAddr
	}
	return ":6060"
}

type ConfigurationFrontend interface {
	GetUserConfigPath() string
	GetShellPath() string
	OpenBrowser() bool
	AllowedOrigins() []string
}

var _ ConfigurationFrontend = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetUserConfigPath() string {
	return c.UserConfigPath
}

func (c *ConfigurationDefault) GetShellPath() string {
	return c.ShellPath
}

func (c *ConfigurationDefault) OpenBrowser() bool {
	return c.OpenBrowserOnStart
}

func (c *ConfigurationDefault) AllowedOrigins() []string {
	return trimAll(c.CORSAllowedOrigins)
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
