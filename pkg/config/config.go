package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "storefront"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Commerce CommerceConfig
	Checkout CheckoutConfig
	JWT      JWTConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Checkout.TaxRateDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.GiftWrapFeeDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CommerceConfig points at the commerce backend this service orchestrates
// against. The request timeout bounds every remote call; expiry is surfaced
// as a retryable dependency failure.
type CommerceConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_COMMERCE_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_COMMERCE_REQUEST_TIMEOUT" default:"30s"`
}

type CheckoutConfig struct {
	TaxRate     string        `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.07"`
	GiftWrapFee string        `envconfig:"STOREFRONT_CHECKOUT_GIFT_WRAP_FEE" default:"5.00"`
	SnapshotTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_SNAPSHOT_TTL" default:"24h"`
	CartTTL     time.Duration `envconfig:"STOREFRONT_CHECKOUT_CART_TTL" default:"24h"`
	Currency    string        `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"USD"`
}

func (c CheckoutConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must not be negative: %s", c.TaxRate)
	}
	return rate, nil
}

func (c CheckoutConfig) GiftWrapFeeDecimal() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.GiftWrapFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing gift wrap fee %q: %w", c.GiftWrapFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("gift wrap fee must not be negative: %s", c.GiftWrapFee)
	}
	return fee, nil
}

// JWTConfig is only consulted when a bearer token accompanies a request;
// checkout works unauthenticated for guest carts.
type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
