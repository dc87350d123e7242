package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Backend      BackendConfig
	Razorpay     RazorpayConfig
	Redis        RedisConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	Diagnosis    DiagnosisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DIAGNOSIS_APP_ENV" required:"true"`
	Port         string   `envconfig:"DIAGNOSIS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"DIAGNOSIS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DIAGNOSIS_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"DIAGNOSIS_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"DIAGNOSIS_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the diagnosis and pharmacy collaborator.
type BackendConfig struct {
	BaseURL    string        `envconfig:"DIAGNOSIS_BACKEND_BASE_URL" default:"http://localhost:8000"`
	Timeout    time.Duration `envconfig:"DIAGNOSIS_BACKEND_TIMEOUT" default:"30s"`
	CatalogTTL time.Duration `envconfig:"DIAGNOSIS_BACKEND_CATALOG_TTL" default:"5m"`
}

func (b BackendConfig) validate() error {
	parsed, err := url.Parse(b.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", EnvBackendBaseURL, b.BaseURL)
	}
	return nil
}

type RazorpayConfig struct {
	KeyID          string `envconfig:"DIAGNOSIS_RAZORPAY_KEY_ID" required:"true"`
	ScriptURL      string `envconfig:"DIAGNOSIS_RAZORPAY_SCRIPT_URL" default:"https://checkout.razorpay.com/v1/checkout.js"`
	MerchantName   string `envconfig:"DIAGNOSIS_RAZORPAY_MERCHANT_NAME" default:"Ayurvedic Pharmacy"`
	Description    string `envconfig:"DIAGNOSIS_RAZORPAY_DESCRIPTION" default:"Intelligent Diagnosis System Checkout"`
	ImageURL       string `envconfig:"DIAGNOSIS_RAZORPAY_IMAGE_URL"`
	ThemeColor     string `envconfig:"DIAGNOSIS_RAZORPAY_THEME_COLOR" default:"#16a34a"`
	PrefillEmail   string `envconfig:"DIAGNOSIS_RAZORPAY_PREFILL_EMAIL" default:"patient@example.com"`
	PrefillContact string `envconfig:"DIAGNOSIS_RAZORPAY_PREFILL_CONTACT" default:"9999999999"`

	// SessionTimeout dismisses a widget session that never called back.
	SessionTimeout time.Duration `envconfig:"DIAGNOSIS_RAZORPAY_SESSION_TIMEOUT" default:"30m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIAGNOSIS_REDIS_URL"`
	Address      string        `envconfig:"DIAGNOSIS_REDIS_ADDR"`
	Password     string        `envconfig:"DIAGNOSIS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIAGNOSIS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIAGNOSIS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIAGNOSIS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAGNOSIS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIAGNOSIS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIAGNOSIS_REDIS_WRITE_TIMEOUT" default:"5s"`
	CartTTL      time.Duration `envconfig:"DIAGNOSIS_REDIS_CART_TTL" default:"168h"`
}

// Enabled reports whether a Redis endpoint is configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DBConfig struct {
	DSN    string `envconfig:"DIAGNOSIS_DB_DSN" default:"file:diagnosis.db?cache=shared"`
	Driver string `envconfig:"DIAGNOSIS_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"DIAGNOSIS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DIAGNOSIS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DIAGNOSIS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIAGNOSIS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DIAGNOSIS_DB_SLOW_QUERY" default:"200ms"`
}

func (db DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DBDriverPostgres, DBDriverSQLite, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// NormalizedDriver returns the lower-cased driver name.
func (db DBConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(db.Driver))
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DIAGNOSIS_AUTO_MIGRATE" default:"false"`
}

type DiagnosisConfig struct {
	MaxTextLength   int           `envconfig:"DIAGNOSIS_PREDICT_MAX_TEXT_LENGTH" default:"4000"`
	RateLimit       int           `envconfig:"DIAGNOSIS_PREDICT_RATE_LIMIT" default:"20"`
	RateLimitWindow time.Duration `envconfig:"DIAGNOSIS_PREDICT_RATE_LIMIT_WINDOW" default:"1m"`
}
