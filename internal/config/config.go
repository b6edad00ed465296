package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Lock     LockConfig
	Cart     CartConfig
	JWT      JWTConfig
	Log      LogConfig
}

type AppConfig struct {
	Name         string
	Env          string
	Port         string
	BaseCurrency string
	Timezone     string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LockConfig selects how product rows are serialized across commits
type LockConfig struct {
	Backend string // local, redis
	TTL     time.Duration
	Wait    time.Duration
	Backoff time.Duration
}

type CartConfig struct {
	Store string // memory, redis
	TTL   time.Duration
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// DSN returns the Postgres connection string
func (d DatabaseConfig) DSN(timezone string) string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, timezone,
	)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "MiniMart POS")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("app.base_currency", "VND")
	v.SetDefault("app.timezone", "UTC")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "minimart")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("lock.backend", "local")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.wait", 5*time.Second)
	v.SetDefault("lock.backoff", 50*time.Millisecond)

	v.SetDefault("cart.store", "memory")
	v.SetDefault("cart.ttl", 12*time.Hour)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "go-minimart-pos")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Load reads configuration with the following priority (highest first):
// POS_* environment variables (a .env file is loaded into the environment
// first), config.yaml, built-in defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the previous deployment used bare DATABASE_URL, PORT and JWT_SECRET
	_ = v.BindEnv("database.url", "POS_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("app.port", "POS_APP_PORT", "PORT")
	_ = v.BindEnv("jwt.secret", "POS_JWT_SECRET", "JWT_SECRET")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:         v.GetString("app.name"),
			Env:          v.GetString("app.env"),
			Port:         v.GetString("app.port"),
			BaseCurrency: strings.ToUpper(v.GetString("app.base_currency")),
			Timezone:     v.GetString("app.timezone"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Lock: LockConfig{
			Backend: v.GetString("lock.backend"),
			TTL:     v.GetDuration("lock.ttl"),
			Wait:    v.GetDuration("lock.wait"),
			Backoff: v.GetDuration("lock.backoff"),
		},
		Cart: CartConfig{
			Store: v.GetString("cart.store"),
			TTL:   v.GetDuration("cart.ttl"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			ExpirationHours: v.GetInt("jwt.expiration_hours"),
			Issuer:          v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	if c.App.BaseCurrency == "" {
		return fmt.Errorf("app.base_currency is required")
	}
	switch c.Lock.Backend {
	case "local", "redis":
	default:
		return fmt.Errorf("lock.backend must be local or redis, got %q", c.Lock.Backend)
	}
	switch c.Cart.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("cart.store must be memory or redis, got %q", c.Cart.Store)
	}
	if (c.Lock.Backend == "redis" || c.Cart.Store == "redis") && !c.Redis.Enabled {
		return fmt.Errorf("redis.enabled must be true when lock.backend or cart.store is redis")
	}
	if c.IsProduction() && c.JWT.Secret == "change-me-in-production" {
		return fmt.Errorf("jwt.secret must be set in production")
	}
	return nil
}
