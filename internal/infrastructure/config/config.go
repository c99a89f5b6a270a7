package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Reporting ReportingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// ReportingConfig holds financial statement generation settings
type ReportingConfig struct {
	DefaultBasis string // cash, accrual

	// Month attribution for entries whose metadata carries no explicit
	// month. Parsing month names out of entry descriptions exists for
	// ledgers imported before structured metadata; turn it off once the
	// backfill is complete.
	LegacyTextParsing bool

	// Account roll-up by numeric code series (1200 heads 1201, 1202)
	// alongside explicit parent links.
	CodePrefixMatching bool

	// Account code bands for cash flow activity classification.
	CashAccountMin       int
	CashAccountMax       int
	LongTermAssetMin     int
	LongTermAssetMax     int
	LiabilityMin         int
	LiabilityMax         int
	DepositLiabilityCode string

	CacheEnabled bool
	CacheTTL     time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PROPERTYHUB_ prefix (e.g., PROPERTYHUB_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Booleans that default to true cannot round-trip through the
	// zero-value check below, so they get viper defaults.
	v.SetDefault("reporting.legacy_text_parsing", true)
	v.SetDefault("reporting.code_prefix_matching", true)
	v.SetDefault("reporting.cache_enabled", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PROPERTYHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Reporting: ReportingConfig{
			DefaultBasis:         v.GetString("reporting.default_basis"),
			LegacyTextParsing:    v.GetBool("reporting.legacy_text_parsing"),
			CodePrefixMatching:   v.GetBool("reporting.code_prefix_matching"),
			CashAccountMin:       v.GetInt("reporting.cash_account_min"),
			CashAccountMax:       v.GetInt("reporting.cash_account_max"),
			LongTermAssetMin:     v.GetInt("reporting.long_term_asset_min"),
			LongTermAssetMax:     v.GetInt("reporting.long_term_asset_max"),
			LiabilityMin:         v.GetInt("reporting.liability_min"),
			LiabilityMax:         v.GetInt("reporting.liability_max"),
			DepositLiabilityCode: v.GetString("reporting.deposit_liability_code"),
			CacheEnabled:         v.GetBool("reporting.cache_enabled"),
			CacheTTL:             v.GetDuration("reporting.cache_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "propertyhub-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "propertyhub"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Reporting.DefaultBasis == "" {
		cfg.Reporting.DefaultBasis = "accrual"
	}
	if cfg.Reporting.CashAccountMin == 0 {
		cfg.Reporting.CashAccountMin = 1000
	}
	if cfg.Reporting.CashAccountMax == 0 {
		cfg.Reporting.CashAccountMax = 1099
	}
	if cfg.Reporting.LongTermAssetMin == 0 {
		cfg.Reporting.LongTermAssetMin = 1500
	}
	if cfg.Reporting.LongTermAssetMax == 0 {
		cfg.Reporting.LongTermAssetMax = 1999
	}
	if cfg.Reporting.LiabilityMin == 0 {
		cfg.Reporting.LiabilityMin = 2000
	}
	if cfg.Reporting.LiabilityMax == 0 {
		cfg.Reporting.LiabilityMax = 2999
	}
	if cfg.Reporting.DepositLiabilityCode == "" {
		cfg.Reporting.DepositLiabilityCode = "2300"
	}
	if cfg.Reporting.CacheTTL == 0 {
		cfg.Reporting.CacheTTL = 15 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Reporting.DefaultBasis != "cash" && c.Reporting.DefaultBasis != "accrual" {
		return fmt.Errorf("reporting.default_basis must be 'cash' or 'accrual', got %q", c.Reporting.DefaultBasis)
	}
	if c.Reporting.CashAccountMin > c.Reporting.CashAccountMax {
		return fmt.Errorf("reporting.cash_account_min (%d) cannot exceed reporting.cash_account_max (%d)",
			c.Reporting.CashAccountMin, c.Reporting.CashAccountMax)
	}
	if c.Reporting.LiabilityMin > c.Reporting.LiabilityMax {
		return fmt.Errorf("reporting.liability_min (%d) cannot exceed reporting.liability_max (%d)",
			c.Reporting.LiabilityMin, c.Reporting.LiabilityMax)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
