package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// ServerConfig configures the local API. The console serves one session:
// Subject names its owner and JWTSecret verifies the owner's tokens.
type ServerConfig struct {
	Port      string `mapstructure:"port"`
	Env       string `mapstructure:"env"`
	Subject   string `mapstructure:"subject"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RemoteConfig points at the console backend. Token is a static service
// credential; ClientID/ClientSecret/TokenURL switch to client credentials.
type RemoteConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	TokenURL     string        `mapstructure:"token_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	// Demo serves seeded in-memory data instead of calling BaseURL.
	Demo bool `mapstructure:"demo"`
}

type CacheConfig struct {
	FreshWindow time.Duration `mapstructure:"fresh_window"`
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
	MaxEntries  int           `mapstructure:"max_entries"`
}

type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type BatchConfig struct {
	// FailurePolicy is "continue" (default) or "stop".
	FailurePolicy string        `mapstructure:"failure_policy"`
	ItemTimeout   time.Duration `mapstructure:"item_timeout"`
	JournalSize   int           `mapstructure:"journal_size"`
}

// DatabaseConfig configures the optional batch journal. When Enabled is false
// batch results are kept in memory.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// KafkaConfig configures the optional invalidation feed.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topics  []string `mapstructure:"topics"`
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: ARDA_CONSOLE_
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8091")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.subject", "")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("remote.base_url", "http://localhost:8080/api")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("remote.max_retries", 2)
	v.SetDefault("remote.demo", false)
	v.SetDefault("cache.fresh_window", 5*time.Second)
	v.SetDefault("cache.load_timeout", 15*time.Second)
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("poller.interval", 30*time.Second)
	v.SetDefault("poller.timeout", 10*time.Second)
	v.SetDefault("batch.failure_policy", "continue")
	v.SetDefault("batch.item_timeout", 10*time.Second)
	v.SetDefault("batch.journal_size", 500)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "arda_console")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topics", []string{"notification-events", "review-events", "console-cache-commands"})

	// Environment variables (e.g. ARDA_CONSOLE_CACHE_FRESH_WINDOW -> cache.fresh_window)
	v.SetEnvPrefix("ARDA_CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support simple env vars without prefix for Docker Compose convenience
	v.BindEnv("remote.base_url", "API_BASE_URL")
	v.BindEnv("remote.token", "API_TOKEN")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.jwt_secret", "JWT_SECRET")

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
