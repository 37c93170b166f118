// Package config loads the application configuration from flags, environment
// variables, an optional .env file and an optional YAML file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stock_ingest/internal/feature/bars/adapters/filesink"
	"stock_ingest/internal/platform/db"
	"stock_ingest/internal/platform/externalapi/twelvedata"
	"stock_ingest/internal/platform/logger"
	"stock_ingest/internal/platform/redis"
)

// Providers of market data.
const (
	ProviderYahoo      = "yahoo"
	ProviderTwelveData = "twelvedata"
)

// Config is the full application configuration.
type Config struct {
	Env  string
	Log  logger.Config
	HTTP HTTPConfig

	DB         db.Config
	TableName  string // Table sink table
	File       filesink.Config
	Redis      redis.Config
	CacheTTL   time.Duration
	Provider   string // yahoo | twelvedata
	TwelveData twelvedata.Config
	Ingest     IngestConfig
}

// HTTPConfig holds the presentation server settings.
type HTTPConfig struct {
	Addr string
}

// IngestConfig holds the fetch and polling settings.
type IngestConfig struct {
	Symbols      []string      // Symbols to poll; empty uses the watchlist
	Interval     string        // Bar interval (e.g., "1m", "1h", "1d")
	PollInterval time.Duration // Wait between two poller ticks
	Poll         bool          // Run the poller inside the server
	RateLimit    int           // Provider calls per RateWindow; 0 disables throttling
	RateWindow   time.Duration
}

// defaults は全設定キーの既定値です。既定値はここにのみ定義します。
var defaults = map[string]any{
	"env":                  "development",
	"log.level":            "info",
	"log.format":           "console",
	"http.addr":            ":8080",
	"db.driver":            db.DriverMySQL,
	"db.host":              "localhost",
	"db.port":              "3306",
	"db.user":              "root",
	"db.password":          "",
	"db.name":              "trading_data",
	"db.instance":          "",
	"db.sslmode":           "disable",
	"db.path":              "stock_data.db",
	"db.connect_timeout":   60 * time.Second,
	"db.log_level":         "warn",
	"db.table":             "stocks",
	"file.path":            "stock_data.csv",
	"file.format":          "csv",
	"redis.host":           "",
	"redis.port":           "6379",
	"redis.password":       "",
	"redis.db":             0,
	"cache.ttl":            5 * time.Minute,
	"provider":             ProviderYahoo,
	"twelvedata.api_key":   "",
	"twelvedata.base_url":  twelvedata.DefaultBaseURL,
	"twelvedata.timeout":   twelvedata.DefaultTimeout,
	"ingest.symbols":       []string{},
	"ingest.interval":      "1m",
	"ingest.poll_interval": 60 * time.Second,
	"ingest.poll":          false,
	"ingest.rate_limit":    8,
	"ingest.rate_window":   time.Minute,
}

// legacyEnv binds keys to environment variable names that do not follow the
// KEY_PATH naming.
var legacyEnv = map[string]string{
	"db.instance":         "INSTANCE_CONNECTION_NAME",
	"twelvedata.api_key":  "TWELVE_DATA_API_KEY",
	"twelvedata.base_url": "TWELVE_DATA_BASE_URL",
	"env":                 "APP_ENV",
}

// Flags registers the command-line flags shared by every binary.
func Flags(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "path to a YAML config file")
	flags.String("env-file", ".env", "path to a .env file (ignored if missing)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("provider", "", "market data provider: yahoo or twelvedata")
	flags.String("interval", "", "bar interval (e.g., 1m, 1h, 1d)")
	flags.StringSlice("symbols", nil, "comma-separated symbols (default: the watchlist)")
	flags.String("file", "", "file sink path")
	flags.String("file-format", "", "file sink format: csv or parquet")
	flags.String("db-driver", "", "database driver: mysql, postgres or sqlite")
	flags.String("table", "", "table sink table name")
	flags.Duration("poll-interval", 0, "wait between two polls (default 60s)")
	flags.Bool("poll", false, "run the poller inside the server")
	return flags
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"provider":      "provider",
	"interval":      "ingest.interval",
	"symbols":       "ingest.symbols",
	"file":          "file.path",
	"file-format":   "file.format",
	"db-driver":     "db.driver",
	"table":         "db.table",
	"poll-interval": "ingest.poll_interval",
	"poll":          "ingest.poll",
}

// Load parses args with flags (which must come from Flags, optionally
// extended) and returns the resolved configuration.
func Load(flags *pflag.FlagSet, args []string) (Config, error) {
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	envFile, _ := flags.GetString("env-file")
	if envFile != "" {
		// 既存の環境変数は上書きしない
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, env := range legacyEnv {
		if err := v.BindEnv(k, env); err != nil {
			return Config{}, err
		}
	}
	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, err
			}
		}
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Env: v.GetString("env"),
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{Addr: v.GetString("http.addr")},
		DB: db.Config{
			Driver:         v.GetString("db.driver"),
			User:           v.GetString("db.user"),
			Password:       v.GetString("db.password"),
			Name:           v.GetString("db.name"),
			Host:           v.GetString("db.host"),
			Port:           v.GetString("db.port"),
			InstanceName:   v.GetString("db.instance"),
			SSLMode:        v.GetString("db.sslmode"),
			Path:           v.GetString("db.path"),
			ConnectTimeout: v.GetDuration("db.connect_timeout"),
			LogLevel:       v.GetString("db.log_level"),
		},
		TableName: v.GetString("db.table"),
		File: filesink.Config{
			Path:   v.GetString("file.path"),
			Format: v.GetString("file.format"),
		},
		Redis: redis.Config{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CacheTTL: v.GetDuration("cache.ttl"),
		Provider: v.GetString("provider"),
		TwelveData: twelvedata.Config{
			APIKey:  v.GetString("twelvedata.api_key"),
			BaseURL: v.GetString("twelvedata.base_url"),
			Timeout: v.GetDuration("twelvedata.timeout"),
		},
		Ingest: IngestConfig{
			Symbols:      splitSymbols(v.GetStringSlice("ingest.symbols")),
			Interval:     v.GetString("ingest.interval"),
			PollInterval: v.GetDuration("ingest.poll_interval"),
			Poll:         v.GetBool("ingest.poll"),
			RateLimit:    v.GetInt("ingest.rate_limit"),
			RateWindow:   v.GetDuration("ingest.rate_window"),
		},
	}
}

// splitSymbols accepts both repeated values and a single comma-separated
// value (environment variables arrive as one string).
func splitSymbols(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// Validate checks the settings every binary depends on.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderYahoo:
	case ProviderTwelveData:
		if c.TwelveData.APIKey == "" {
			errs = append(errs, errors.New("twelvedata provider requires TWELVE_DATA_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	switch c.DB.Driver {
	case db.DriverMySQL, db.DriverPostgres, db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", db.ErrUnsupportedDriver, c.DB.Driver))
	}
	if c.TableName == "" {
		errs = append(errs, errors.New("table name is empty"))
	}
	if c.File.Path == "" {
		errs = append(errs, filesink.ErrEmptyPath)
	}
	if filesink.NewCodec(c.File.Format) == nil {
		errs = append(errs, fmt.Errorf("%w: %q", filesink.ErrUnsupportedFormat, c.File.Format))
	}
	if c.Ingest.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.Ingest.PollInterval))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether Env is "production".
func (c Config) IsProduction() bool { return c.Env == "production" }
