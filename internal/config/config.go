package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"tracc-api/internal/stock"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Store   StoreConfig
	Cache   CacheConfig
	Reports ReportsConfig
	Rules   RulesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"tracc-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// StoreConfig selects and configures the ledger store.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, postgres, mysql or memory
	Path string `envconfig:"STORE_PATH" default:"./data/tracc.db"`
	// postgres and mysql settings
	Host     string `envconfig:"STORE_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_PORT" default:"0"`
	Name     string `envconfig:"STORE_NAME" default:"tracc"`
	User     string `envconfig:"STORE_USER" default:"tracc"`
	Password string `envconfig:"STORE_PASS" default:""`
	SSLMode  string `envconfig:"STORE_SSLMODE" default:"disable"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory, redis or none
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"tracc"`
}

// ReportsConfig holds the stock report scheduler and archive settings.
type ReportsConfig struct {
	Enabled  bool   `envconfig:"REPORTS_ENABLED" default:"true"`
	Schedule string `envconfig:"REPORTS_SCHEDULE" default:"0 * * * *"`
	Keep     int    `envconfig:"REPORTS_KEEP" default:"168"` // in-memory archive size

	// An empty URI keeps the archive in memory.
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"tracc"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"stock_reports"`
}

// RulesConfig holds the movement validation bounds.
type RulesConfig struct {
	MinQuantityKg string        `envconfig:"RULES_MIN_QUANTITY_KG" default:"0.1"`
	MaxQuantityKg string        `envconfig:"RULES_MAX_QUANTITY_KG" default:"100000"`
	EditWindow    time.Duration `envconfig:"RULES_EDIT_WINDOW" default:"24h"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.portOr(5432), s.Name, s.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		s.User, s.Password, s.Host, s.portOr(3306), s.Name)
}

func (s *StoreConfig) portOr(def int) int {
	if s.Port == 0 {
		return def
	}
	return s.Port
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// StockRules converts the configured bounds into validation rules.
func (r *RulesConfig) StockRules() (stock.Rules, error) {
	rules := stock.DefaultRules()

	lo, err := decimal.NewFromString(r.MinQuantityKg)
	if err != nil {
		return rules, fmt.Errorf("invalid RULES_MIN_QUANTITY_KG %q: %w", r.MinQuantityKg, err)
	}
	hi, err := decimal.NewFromString(r.MaxQuantityKg)
	if err != nil {
		return rules, fmt.Errorf("invalid RULES_MAX_QUANTITY_KG %q: %w", r.MaxQuantityKg, err)
	}
	if !lo.IsPositive() || hi.LessThan(lo) {
		return rules, fmt.Errorf("invalid quantity bounds [%s, %s]", lo, hi)
	}
	if r.EditWindow <= 0 {
		return rules, fmt.Errorf("invalid RULES_EDIT_WINDOW %s", r.EditWindow)
	}

	rules.MinQuantity = lo
	rules.MaxQuantity = hi
	rules.EditWindow = r.EditWindow
	return rules, nil
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Type) {
	case "sqlite", "postgres", "postgresql", "mysql", "memory":
	default:
		return fmt.Errorf("unsupported STORE_TYPE %q", c.Store.Type)
	}
	switch strings.ToLower(c.Cache.Type) {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unsupported CACHE_TYPE %q", c.Cache.Type)
	}
	if _, err := c.Rules.StockRules(); err != nil {
		return err
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
