package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"venuebook/internal/database"
	"venuebook/internal/logger"
)

const defaultJWTSecret = "change-me-jwt-secret"

// Config holds all configuration for the service.
type Config struct {
	// AppEnv is dev, test, prod or release.
	AppEnv string `mapstructure:"app_env" default:"dev"`
	// Timezone is the IANA zone used to decide what "today" and "now" mean.
	Timezone string `mapstructure:"timezone" default:"UTC"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  database.Config `mapstructure:"database"`
	Log       logger.Config   `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" default:"8080"`
	Mode            string        `mapstructure:"mode" default:"release"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"15s"`
	ExposeMetrics   bool          `mapstructure:"expose_metrics" default:"true"`
	// CORSOrigins is a comma-separated list of extra allowed origins.
	CORSOrigins string `mapstructure:"cors_origins" default:""`
}

// AllowedOrigins splits CORSOrigins.
func (s ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" default:"change-me-jwt-secret"`
	// InternalToken guards machine-to-machine endpoints such as the reconcile trigger.
	InternalToken string `mapstructure:"internal_token" default:""`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" default:"localhost:6379"`
	Password string `mapstructure:"password" default:""`
	DB       int    `mapstructure:"db" default:"0"`
}

// SyncConfig controls the Redis stream transport to the remote system.
type SyncConfig struct {
	Enabled        bool          `mapstructure:"enabled" default:"false"`
	OutboundStream string        `mapstructure:"outbound_stream" default:"venue-sync.outbound"`
	InboundStream  string        `mapstructure:"inbound_stream" default:"venue-sync.inbound"`
	Group          string        `mapstructure:"group" default:"venue-sync"`
	Consumer       string        `mapstructure:"consumer" default:"venuebook-1"`
	Block          time.Duration `mapstructure:"block" default:"5s"`
	BatchSize      int64         `mapstructure:"batch_size" default:"32"`
	MaxLen         int64         `mapstructure:"max_len" default:"100000"`

	// RejectedRetention is how long rejected inbound messages are kept.
	RejectedRetention time.Duration `mapstructure:"rejected_retention" default:"720h"`
}

// RemoteConfig points at the remote counterpart's HTTP API.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url" default:""`
	// SyncDonePath is appended to BaseURL; {venueId} is replaced by the venue id.
	SyncDonePath string        `mapstructure:"sync_done_path" default:"/sync/venues/{venueId}/done/"`
	Timeout      time.Duration `mapstructure:"timeout" default:"5s"`
}

type ReconcileConfig struct {
	Workers   int `mapstructure:"workers" default:"4"`
	QueueSize int `mapstructure:"queue_size" default:"1024"`
	// SweepSchedule is a cron spec for the full sweep; empty disables it.
	SweepSchedule    string `mapstructure:"sweep_schedule" default:"@every 15m"`
	SweepConcurrency int    `mapstructure:"sweep_concurrency" default:"4"`
}

// LoadConfig loads configuration from environment variables and an optional
// .env file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "" || path == "." {
		envPath = ".env"
	}
	// A missing .env is normal outside development.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate checks settings required by long-running commands.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("DATABASE_DSN must be set")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.Reconcile.Workers <= 0 {
		return fmt.Errorf("RECONCILE_WORKERS must be > 0")
	}
	if c.Reconcile.QueueSize <= 0 {
		return fmt.Errorf("RECONCILE_QUEUE_SIZE must be > 0")
	}
	if c.Sync.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("REDIS_ADDR must be set when SYNC_ENABLED=true")
	}
	if isProdLike(c.AppEnv) {
		if isEmptyOrDefault(c.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release AUTH_JWT_SECRET must be set and not default")
		}
		if strings.TrimSpace(c.Auth.InternalToken) == "" {
			return fmt.Errorf("in prod/release AUTH_INTERNAL_TOKEN must be set")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

// bindValues walks the struct and registers every mapstructure key with its
// default so AutomaticEnv can find it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
