package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/store"
)

// loadTestConfig loads cfg from defaults and args only.
func loadTestConfig(t *testing.T, args ...string) (*Config, *aconfig.Loader) {
	t.Helper()
	lc := loaderConfig()
	lc.SkipFiles = true
	lc.SkipEnv = true
	lc.Args = append([]string{}, args...)

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, lc)
	require.NoError(t, loader.Load())
	return &cfg, loader
}

func TestConfig_DefaultLinks(t *testing.T) {
	cfg, _ := loadTestConfig(t)
	r := newRenderer(cfg)

	msg := r.Render(&order.Order{OrderNumber: "10001", Currency: "INR", TrackToken: "tok-1"},
		&store.Store{Slug: "chai", Language: store.LanguageEnglish})

	assert.Contains(t, msg, "Order from chai.mywabiz.in")
	assert.Contains(t, msg, "https://chai.mywabiz.in/orders/tok-1")
	assert.Equal(t, "https://wa.me/919123456789?text=hi", r.DeepLink("+91 91234 56789", "hi"))
}

func TestConfig_FlagNames(t *testing.T) {
	cfg, loader := loadTestConfig(t,
		"-jwt.secret=s3cret",
		"-sheets.export-url=https://sheets.example/%s.csv",
		"-storefront.domain=shop.example",
		"-storefront.link-base=https://chat.example",
	)

	for _, name := range []string{"jwt.secret", "sheets.export-url", "storefront.domain", "storefront.link-base"} {
		assert.NotNil(t, loader.Flags().Lookup(name), name)
	}
	assert.Nil(t, loader.Flags().Lookup("jwt.jwt-secret"))
	assert.Nil(t, loader.Flags().Lookup("sheets.sheets-export-url"))

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "https://sheets.example/%s.csv", cfg.Sheets.ExportURL)
	assert.Equal(t, "shop.example", cfg.Storefront.Domain)
	assert.Equal(t, "https://chat.example", cfg.Storefront.LinkBase)
}

func TestApplyPlatformDefaults(t *testing.T) {
	t.Run("FillsFromPlatform", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://platform/db")
		t.Setenv("PORT", "9000")

		cfg := Config{Addr: defaultAddr}
		cfg.applyPlatformDefaults()

		assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
		assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	})
	t.Run("KeepsExplicit", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://platform/db")
		t.Setenv("PORT", "9000")

		cfg := Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/db"}
		cfg.applyPlatformDefaults()

		assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
		assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://localhost/storefront",
			JWT:         JWTConfig{Secret: "s3cret"},
			RateLimit:   RateLimitConfig{Max: 100, Window: time.Minute},
		}
	}
	for _, tt := range []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"Valid", func(*Config) {}, ""},
		{"NoDatabase", func(c *Config) { c.DatabaseURL = "" }, "database URL is required"},
		{"NoSecret", func(c *Config) { c.JWT.Secret = "" }, "jwt secret is required"},
		{"ZeroWindow", func(c *Config) { c.RateLimit.Window = 0 }, "rate limit"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
