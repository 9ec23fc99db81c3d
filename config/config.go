// Package config loads runtime configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/softex1/tably-paket1/utils"
)

const devJWTSecret = "tably-dev-secret"

type Config struct {
	Env       string
	Port      string
	GinMode   string
	PublicURL string

	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	SessionTTL       time.Duration
	CallCooldown     time.Duration
	CallStaleAfter   time.Duration
	CallRecentWindow time.Duration
	SweepInterval    time.Duration

	LoginMaxAttempts int
	LoginLockout     time.Duration
	LoginRatePerMin  int

	FeedBuffer  int
	CORSOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL      string
	AMQPExchange string

	Log utils.LogConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("public_url", "http://localhost:5173")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "tably.db")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("session_ttl", "60s")
	v.SetDefault("call_cooldown", "3m")
	v.SetDefault("call_stale_after", "10m")
	v.SetDefault("call_recent_window", "10m")
	v.SetDefault("sweep_interval", "5m")
	v.SetDefault("login_max_attempts", 5)
	v.SetDefault("login_lockout", "15m")
	v.SetDefault("login_rate_per_min", 10)
	v.SetDefault("feed_buffer", 32)
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("redis_db", 0)
	v.SetDefault("amqp_exchange", "tably.calls")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_max_size", 50)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age", 28)
}

// Load reads .env (if present), then the environment, then path when it is
// not empty. Environment variables win over the config file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf(".env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{
		Env:       v.GetString("app_env"),
		Port:      v.GetString("port"),
		GinMode:   v.GetString("gin_mode"),
		PublicURL: strings.TrimRight(v.GetString("public_url"), "/"),

		DBDriver: strings.ToLower(v.GetString("db_driver")),
		DBDSN:    v.GetString("db_dsn"),

		JWTSecret: v.GetString("jwt_secret"),
		JWTTTL:    v.GetDuration("jwt_ttl"),

		SessionTTL:       v.GetDuration("session_ttl"),
		CallCooldown:     v.GetDuration("call_cooldown"),
		CallStaleAfter:   v.GetDuration("call_stale_after"),
		CallRecentWindow: v.GetDuration("call_recent_window"),
		SweepInterval:    v.GetDuration("sweep_interval"),

		LoginMaxAttempts: v.GetInt("login_max_attempts"),
		LoginLockout:     v.GetDuration("login_lockout"),
		LoginRatePerMin:  v.GetInt("login_rate_per_min"),

		FeedBuffer:  v.GetInt("feed_buffer"),
		CORSOrigins: splitList(v.GetString("cors_origins")),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),

		Log: utils.LogConfig{
			Level:      v.GetString("log_level"),
			File:       v.GetString("log_file"),
			MaxSize:    v.GetInt("log_max_size"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAge:     v.GetInt("log_max_age"),
		},
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		utils.InfoLogger.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate checks the lifecycle knobs against each other.
func (c *Config) Validate() error {
	switch {
	case c.SessionTTL <= 0:
		return errors.New("SESSION_TTL must be positive")
	case c.CallCooldown <= 0:
		return errors.New("CALL_COOLDOWN must be positive")
	case c.CallStaleAfter < c.CallCooldown:
		return errors.New("CALL_STALE_AFTER must not be shorter than CALL_COOLDOWN")
	case c.CallRecentWindow <= 0:
		return errors.New("CALL_RECENT_WINDOW must be positive")
	case c.SweepInterval <= 0:
		return errors.New("SWEEP_INTERVAL must be positive")
	case c.LoginMaxAttempts < 1:
		return errors.New("LOGIN_MAX_ATTEMPTS must be at least 1")
	case c.FeedBuffer < 1:
		return errors.New("FEED_BUFFER must be at least 1")
	}
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return errors.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
