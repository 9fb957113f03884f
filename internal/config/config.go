package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration from an optional YAML file and the environment.
type Config struct {
	HTTPPort    string `yaml:"http_port"`
	APIPrefix   string `yaml:"api_prefix"`
	DatabaseURL string `yaml:"database_url"`
	DBPoolSize  int    `yaml:"db_pool_size"`

	RedisURL      string `yaml:"redis_url"`
	RedisPoolSize int    `yaml:"redis_pool_size"`
	StatsCacheTTL int    `yaml:"stats_cache_ttl_sec"` // seconds

	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaTopic      string   `yaml:"kafka_topic"`
	KafkaPartitions int      `yaml:"kafka_partitions"`
	KafkaGroupID    string   `yaml:"kafka_group_id"`

	JWTSecret           string `yaml:"jwt_secret"`
	AccessTokenTTLMin   int    `yaml:"access_token_ttl_min"`
	RefreshTokenTTLDays int    `yaml:"refresh_token_ttl_days"`
	BcryptCost          int    `yaml:"bcrypt_cost"`

	TimeZone    string `yaml:"timezone"`
	LogLevel    string `yaml:"log_level"`
	PageSize    int    `yaml:"page_size"`
	MaxPageSize int    `yaml:"max_page_size"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from CONFIG_FILE and env).
// A broken config file is reported on stderr and the defaults plus env are used instead.
func Get() *Config {
	cfgOnce.Do(func() {
		c, err := Load(os.Getenv("CONFIG_FILE"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			c = defaults()
			c.applyEnv()
		}
		cfg = c
	})
	return cfg
}

// Load builds a Config from defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (*Config, error) {
	c := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	c.applyEnv()
	return c, nil
}

// Location returns the configured time zone used for calendar-day filters and stats.
// Its name is also sent to Postgres, so only IANA names are honoured; "Local",
// an empty value or an unknown zone fall back to UTC.
func (c *Config) Location() *time.Location {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" || strings.EqualFold(name, "Local") {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AccessTTL is the lifetime of access tokens.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RefreshTTL is the lifetime of refresh tokens.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func defaults() *Config {
	return &Config{
		HTTPPort:            "8080",
		APIPrefix:           "/api",
		DBPoolSize:          20,
		RedisURL:            "redis://localhost:6379/0",
		RedisPoolSize:       50,
		StatsCacheTTL:       30,
		KafkaTopic:          "todo-events",
		KafkaPartitions:     8,
		KafkaGroupID:        "todo-stats-invalidator",
		AccessTokenTTLMin:   60,
		RefreshTokenTTLDays: 7,
		BcryptCost:          bcrypt.DefaultCost,
		TimeZone:            "UTC",
		LogLevel:            "info",
		PageSize:            20,
		MaxPageSize:         100,
	}
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.APIPrefix = getEnv("API_PREFIX", c.APIPrefix)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DBPoolSize = getIntEnv("DB_POOL_SIZE", c.DBPoolSize)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPoolSize = getIntEnv("REDIS_POOL_SIZE", c.RedisPoolSize)
	c.StatsCacheTTL = getIntEnv("STATS_CACHE_TTL_SEC", c.StatsCacheTTL)
	c.KafkaBrokers = getSliceEnv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TODO_TOPIC", c.KafkaTopic)
	c.KafkaPartitions = getIntEnv("KAFKA_PARTITIONS", c.KafkaPartitions)
	c.KafkaGroupID = getEnv("KAFKA_GROUP_ID", c.KafkaGroupID)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.AccessTokenTTLMin = getIntEnv("ACCESS_TOKEN_TTL_MIN", c.AccessTokenTTLMin)
	c.RefreshTokenTTLDays = getIntEnv("REFRESH_TOKEN_TTL_DAYS", c.RefreshTokenTTLDays)
	c.BcryptCost = getIntEnv("BCRYPT_COST", c.BcryptCost)
	c.TimeZone = getEnv("APP_TIMEZONE", c.TimeZone)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.PageSize = getIntEnv("PAGE_SIZE", c.PageSize)
	c.MaxPageSize = getIntEnv("MAX_PAGE_SIZE", c.MaxPageSize)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
