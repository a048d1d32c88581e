package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Mailer    MailerConfig    `mapstructure:"mailer"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	// Addr empty disables the cross-process pass lease.
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

type KafkaConfig struct {
	// Enabled false runs the service with HTTP triggers only.
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id"`
	Topics          []string `mapstructure:"topics"`
}

type MailerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RecommendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	AdminRole string `mapstructure:"admin_role"`
}

type EngineConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	OutboxEnabled bool          `mapstructure:"outbox_enabled"`
	ClaimLease    time.Duration `mapstructure:"claim_lease"`
}

type OutboxConfig struct {
	RetentionDays int `mapstructure:"retention_days"` // Default: 30
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: ONSALE_ANALYTICS_
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "onsalenow")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lease_ttl", 15*time.Minute)
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group_id", "onsale-analytics-group")
	v.SetDefault("kafka.topics", []string{"product-events", "seller-events", "analytics-commands"})
	v.SetDefault("mailer.base_url", "http://localhost:5173")
	v.SetDefault("mailer.path", "/api/email/send-gmail-email")
	v.SetDefault("mailer.timeout", 10*time.Second)
	v.SetDefault("recommend.base_url", "http://localhost:8000")
	v.SetDefault("recommend.timeout", 5*time.Second)
	v.SetDefault("recommend.cache_ttl", time.Minute)
	v.SetDefault("auth.admin_role", "admin")
	v.SetDefault("engine.concurrency", 4)
	v.SetDefault("engine.outbox_enabled", true)
	v.SetDefault("engine.claim_lease", 5*time.Minute)
	v.SetDefault("outbox.retention_days", 30)

	// Environment variables (e.g. ONSALE_ANALYTICS_DATABASE_HOST -> database.host)
	v.SetEnvPrefix("ONSALE_ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support simple env vars without prefix for Docker Compose convenience
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("mailer.base_url", "MAILER_URL")
	v.BindEnv("recommend.base_url", "RECOMMEND_URL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("server.port", "PORT")

	// Try loading config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // Not required

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// KAFKA_BROKERS arrives as a single comma-separated string.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	// A pass lease that expires before a pending claim does lets a second
	// instance start a pass while the first is still sending.
	if cfg.Redis.LeaseTTL <= cfg.Engine.ClaimLease {
		cfg.Redis.LeaseTTL = 3 * cfg.Engine.ClaimLease
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" dbname=" + d.Name +
		" user=" + d.User +
		" password=" + d.Password +
		" sslmode=disable"
}
