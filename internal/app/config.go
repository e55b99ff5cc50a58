package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	JWT         JWTConfig
	Storefront  StorefrontConfig
	Sheets      SheetsConfig
	Tracker     TrackerConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// JWTConfig controls merchant bearer tokens.
type JWTConfig struct {
	Secret string        `usage:"HS256 signing secret (STOREFRONT_JWT_SECRET)" flag:"secret"`
	Issuer string        `default:"storefront" usage:"Expected token issuer"`
	TTL    time.Duration `default:"168h" usage:"Lifetime of issued tokens"`
}

// StorefrontConfig controls links rendered into order messages.
type StorefrontConfig struct {
	Domain   string `default:"mywabiz.in" usage:"Storefront host suffix, stores are served at <slug>.<domain>"`
	LinkBase string `default:"https://wa.me" usage:"Base of WhatsApp deep links" flag:"link-base"`
}

// SheetsConfig controls the Google Sheets product source.
type SheetsConfig struct {
	ExportURL string        `default:"" usage:"CSV export URL template with a %s for the sheet id" flag:"export-url"`
	Timeout   time.Duration `default:"15s" usage:"Timeout of a sheet download"`
}

// TrackerConfig sizes the daily unique-visitor filter.
type TrackerConfig struct {
	ExpectedVisitors uint    `default:"100000" usage:"Expected unique visitors per day"`
	FalsePositive    float64 `default:"0.01" usage:"Tolerated false positive rate of unique visitor estimation"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads an optional .env file, then configuration from environment
// variables and YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	if err := aconfig.LoaderFor(&cfg, loaderConfig()).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix:        "STOREFRONT",
		AllowUnknownEnvs: true,
		Files:            []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
	case c.JWT.Secret == "":
		return errors.New("jwt secret is required: set STOREFRONT_JWT_SECRET")
	case c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0:
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
