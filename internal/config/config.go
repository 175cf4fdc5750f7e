package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL     string        `yaml:"database_url" env:"DATABASE_URL"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT" env-default:"5s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	// Editor front-end
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`

	// Media uploads
	MediaDir      string `yaml:"media_dir" env:"MEDIA_DIR" env-default:"./media"`
	MediaBaseURL  string `yaml:"media_base_url" env:"MEDIA_BASE_URL" env-default:"/media"`
	MediaMaxBytes int64  `yaml:"media_max_bytes" env:"MEDIA_MAX_BYTES" env-default:"52428800"`

	// Publish hooks
	HookRetryMax        int           `yaml:"hook_retry_max" env:"HOOK_RETRY_MAX" env-default:"3"`
	HookRetryBackoff    time.Duration `yaml:"hook_retry_backoff" env:"HOOK_RETRY_BACKOFF" env-default:"100ms"`
	HookRPCTimeout      time.Duration `yaml:"hook_rpc_timeout" env:"HOOK_RPC_TIMEOUT" env-default:"5s"`
	HookBreakerFailures int           `yaml:"hook_breaker_max_failures" env:"HOOK_BREAKER_MAX_FAILURES" env-default:"5"`
	HookBreakerReset    time.Duration `yaml:"hook_breaker_reset" env:"HOOK_BREAKER_RESET" env-default:"30s"`
}

// Load reads the YAML file at path, if any, and then applies environment
// overrides. An empty path falls back to CONFIG_PATH; with neither set only
// the environment and defaults are used.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if c.SessionIdleTimeout < 0 {
		errs = append(errs, errors.New("session idle timeout must not be negative"))
	}
	if c.MediaDir == "" {
		errs = append(errs, errors.New("media dir is required"))
	}
	if c.MediaMaxBytes <= 0 {
		errs = append(errs, errors.New("media max bytes must be positive"))
	}
	if c.HookRetryMax < 0 {
		errs = append(errs, errors.New("hook retry max must not be negative"))
	}
	if c.HookRPCTimeout <= 0 {
		errs = append(errs, errors.New("hook rpc timeout must be positive"))
	}
	if c.HookBreakerFailures <= 0 {
		errs = append(errs, errors.New("hook breaker max failures must be positive"))
	}
	if c.HookBreakerReset <= 0 {
		errs = append(errs, errors.New("hook breaker reset must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
