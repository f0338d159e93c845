package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Search  SearchConfig  `mapstructure:"search"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// APIConfig describes the upstream library REST API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	MaxRPS  float64       `mapstructure:"max_rps"`
	Burst   int           `mapstructure:"burst"`
}

type CacheConfig struct {
	StaleTime   time.Duration `mapstructure:"stale_time"`
	GCTime      time.Duration `mapstructure:"gc_time"`
	ReadRetries int           `mapstructure:"read_retries"`
}

type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type SessionConfig struct {
	Cookie      string        `mapstructure:"cookie"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret"`
	ExpiryHours       int    `mapstructure:"expiry_hours"`
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.lmsdesk")
	v.AddConfigPath("/etc/lmsdesk")

	v.SetEnvPrefix("LMSDESK")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	// Secrets have no defaults, so AutomaticEnv alone would not surface them.
	for _, key := range []string{"auth.jwt_secret", "auth.admin_password_hash", "redis.password"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if apiURL := os.Getenv("API_URL"); apiURL != "" {
		v.Set("api.base_url", apiURL)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("api.base_url", "http://localhost:8081/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.max_rps", 0)
	v.SetDefault("api.burst", 10)

	v.SetDefault("cache.stale_time", 30*time.Second)
	v.SetDefault("cache.gc_time", 5*time.Minute)
	v.SetDefault("cache.read_retries", 1)

	v.SetDefault("search.debounce", 300*time.Millisecond)

	v.SetDefault("session.cookie", "lmsdesk_session")
	v.SetDefault("session.idle_timeout", 30*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.expiry_hours", 24)
	v.SetDefault("auth.admin_username", "admin")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
}

// Validate rejects settings the rest of the process cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Cache.ReadRetries < 0 {
		return fmt.Errorf("cache.read_retries must not be negative, got %d", c.Cache.ReadRetries)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce must not be negative, got %s", c.Search.Debounce)
	}
	return nil
}

// RedisAddr returns host:port for the Redis connection.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
