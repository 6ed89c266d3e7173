package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Profile      ProfileServiceConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values for the mutation log.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how bearer tokens are located and interpreted.
type AuthConfig struct {
	JWTSecret          string
	TokenLeewaySeconds int
	AdminRole          string
	SessionCookie      string
	SessionTTLMinutes  int
	TokenKeyPrefix     string
}

// NotificationConfig tunes the notification stack.
type NotificationConfig struct {
	DefaultLifetimeMs int
	MaxVisible        int
	ExitDelayMs       int
	SwipeThreshold    float64
}

// ProfileServiceConfig points at the MaxQ profile REST service.
type ProfileServiceConfig struct {
	BaseURL                string
	TimeoutSeconds         int
	DefaultPageSize        int
	RefreshIntervalSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	swipe, err := strconv.ParseFloat(getEnv("NOTIFY_SWIPE_THRESHOLD", "100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_SWIPE_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "maxq-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenLeewaySeconds: getEnvAsInt("AUTH_TOKEN_LEEWAY_SECONDS", 30),
			AdminRole:          getEnv("AUTH_ADMIN_ROLE", "ADMIN"),
			SessionCookie:      getEnv("AUTH_SESSION_COOKIE", "maxq_session"),
			SessionTTLMinutes:  getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 480),
			TokenKeyPrefix:     getEnv("AUTH_TOKEN_KEY_PREFIX", "maxq:token:"),
		},
		Notification: NotificationConfig{
			DefaultLifetimeMs: getEnvAsInt("NOTIFY_DEFAULT_LIFETIME_MS", 10000),
			MaxVisible:        getEnvAsInt("NOTIFY_MAX_VISIBLE", 5),
			ExitDelayMs:       getEnvAsInt("NOTIFY_EXIT_DELAY_MS", 0),
			SwipeThreshold:    swipe,
		},
		Profile: ProfileServiceConfig{
			BaseURL:                getEnv("PROFILE_SERVICE_URL", "http://127.0.0.1:8081/api"),
			TimeoutSeconds:         getEnvAsInt("PROFILE_SERVICE_TIMEOUT_SECONDS", 10),
			DefaultPageSize:        getEnvAsInt("PROFILE_SERVICE_PAGE_SIZE", 20),
			RefreshIntervalSeconds: getEnvAsInt("PROFILE_CACHE_REFRESH_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns how long stored bearer tokens are kept.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// TokenLeeway is the clock skew tolerated when checking token expiry.
func (a AuthConfig) TokenLeeway() time.Duration {
	if a.TokenLeewaySeconds <= 0 {
		return 0
	}
	return time.Duration(a.TokenLeewaySeconds) * time.Second
}

// DefaultLifetime returns the display lifetime applied when none is given.
func (n NotificationConfig) DefaultLifetime() time.Duration {
	return time.Duration(n.DefaultLifetimeMs) * time.Millisecond
}

// ExitDelay returns the pause between closing and removal.
func (n NotificationConfig) ExitDelay() time.Duration {
	return time.Duration(n.ExitDelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout for profile service calls.
func (p ProfileServiceConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// RefreshInterval is how often stale cached pages are reloaded in the background.
func (p ProfileServiceConfig) RefreshInterval() time.Duration {
	if p.RefreshIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(p.RefreshIntervalSeconds) * time.Second
}
