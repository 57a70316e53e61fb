// Package config loads runtime settings from the environment, optional .env
// files and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys double as environment variable names (upper-cased).
const (
	KeyCronSecret         = "cron_secret"
	KeyWalletPrivateKey   = "platform_wallet_private_key"
	KeyRPCURL             = "solana_rpc_url"
	KeyWSURL              = "solana_ws_url"
	KeyMoltbookToken      = "moltbook_api_token"
	KeyFourclawToken      = "fourclaw_api_token"
	KeyMoltxToken         = "moltx_api_token"
	KeyRedisURL           = "redis_url"
	KeyRedisAddr          = "redis_addr"
	KeyRedisPassword      = "redis_password"
	KeyRedisDB            = "redis_db"
	KeyPostgresDSN        = "postgres_dsn"
	KeyClickhouseDSN      = "clickhouse_dsn"
	KeyHTTPAddr           = "http_addr"
	KeyMaxLaunches        = "max_launches_per_run"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
	KeyScanInterval       = "scan_interval"
	KeyUseMemory          = "use_memory"
	KeyRateLimitPerMinute = "rate_limit_per_minute"
	KeyRateLimitBurst     = "rate_limit_burst"
	KeyIPFSEndpoint       = "pump_ipfs_endpoint"
	KeyPumpPortalEndpoint = "pumpportal_endpoint"
)

// DefaultRPCURL is the public mainnet endpoint.
const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

var keys = []string{
	KeyCronSecret, KeyWalletPrivateKey, KeyRPCURL, KeyWSURL,
	KeyMoltbookToken, KeyFourclawToken, KeyMoltxToken,
	KeyRedisURL, KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyPostgresDSN, KeyClickhouseDSN, KeyHTTPAddr, KeyMaxLaunches,
	KeyLogLevel, KeyLogFormat, KeyScanInterval, KeyUseMemory,
	KeyRateLimitPerMinute, KeyRateLimitBurst, KeyIPFSEndpoint, KeyPumpPortalEndpoint,
}

// Config holds every setting the binary reads.
type Config struct {
	CronSecret       string
	WalletPrivateKey string
	RPCURL           string
	WSURL            string

	MoltbookToken string
	FourclawToken string
	MoltxToken    string

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	UseMemory     bool

	PostgresDSN   string
	ClickhouseDSN string

	HTTPAddr           string
	MaxLaunches        int
	ScanInterval       time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int

	IPFSEndpoint       string
	PumpPortalEndpoint string

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads the given files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// NewViper returns a viper instance with defaults set and every key bound to
// its environment variable.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRPCURL, DefaultRPCURL)
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyMaxLaunches, 3)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyScanInterval, time.Duration(0))
	v.SetDefault(KeyRateLimitPerMinute, 6)
	v.SetDefault(KeyRateLimitBurst, 2)

	for _, k := range keys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}
	return v
}

// FromViper reads a Config from v and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		CronSecret:         v.GetString(KeyCronSecret),
		WalletPrivateKey:   strings.TrimSpace(v.GetString(KeyWalletPrivateKey)),
		RPCURL:             v.GetString(KeyRPCURL),
		WSURL:              v.GetString(KeyWSURL),
		MoltbookToken:      v.GetString(KeyMoltbookToken),
		FourclawToken:      v.GetString(KeyFourclawToken),
		MoltxToken:         v.GetString(KeyMoltxToken),
		RedisURL:           v.GetString(KeyRedisURL),
		RedisAddr:          v.GetString(KeyRedisAddr),
		RedisPassword:      v.GetString(KeyRedisPassword),
		RedisDB:            v.GetInt(KeyRedisDB),
		UseMemory:          v.GetBool(KeyUseMemory),
		PostgresDSN:        v.GetString(KeyPostgresDSN),
		ClickhouseDSN:      v.GetString(KeyClickhouseDSN),
		HTTPAddr:           v.GetString(KeyHTTPAddr),
		MaxLaunches:        v.GetInt(KeyMaxLaunches),
		ScanInterval:       v.GetDuration(KeyScanInterval),
		RateLimitPerMinute: v.GetInt(KeyRateLimitPerMinute),
		RateLimitBurst:     v.GetInt(KeyRateLimitBurst),
		IPFSEndpoint:       v.GetString(KeyIPFSEndpoint),
		PumpPortalEndpoint: v.GetString(KeyPumpPortalEndpoint),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          strings.ToLower(v.GetString(KeyLogFormat)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", strings.ToUpper(KeyRPCURL)))
	}
	if c.MaxLaunches <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", strings.ToUpper(KeyMaxLaunches), c.MaxLaunches))
	}
	if c.ScanInterval < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", strings.ToUpper(KeyScanInterval)))
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate limit and burst must be positive"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("%s must be json or console, got %q", strings.ToUpper(KeyLogFormat), c.LogFormat))
	}
	return errors.Join(errs...)
}

// HasRedis reports whether a Redis connection is configured.
func (c *Config) HasRedis() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}
