package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Backend.BaseURL != "http://backend.internal:8000" {
		t.Fatalf("unexpected backend url: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Fatalf("expected default backend timeout 30s, got %v", cfg.Backend.Timeout)
	}
	if cfg.Razorpay.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected razorpay key %q", cfg.Razorpay.KeyID)
	}
	if cfg.Razorpay.ScriptURL != "https://checkout.razorpay.com/v1/checkout.js" {
		t.Fatalf("unexpected default script url %q", cfg.Razorpay.ScriptURL)
	}
	if cfg.Razorpay.SessionTimeout != 30*time.Minute {
		t.Fatalf("unexpected default session timeout %v", cfg.Razorpay.SessionTimeout)
	}
	if cfg.Backend.CatalogTTL != 5*time.Minute {
		t.Fatalf("unexpected default catalog ttl %v", cfg.Backend.CatalogTTL)
	}
	if cfg.Redis.CartTTL != 168*time.Hour {
		t.Fatalf("unexpected cart ttl %v", cfg.Redis.CartTTL)
	}
	if cfg.DB.NormalizedDriver() != DBDriverSQLite {
		t.Fatalf("expected sqlite default driver, got %q", cfg.DB.Driver)
	}
	if len(cfg.App.CORSOrigins) != 2 {
		t.Fatalf("expected two default cors origins, got %v", cfg.App.CORSOrigins)
	}
	if cfg.Diagnosis.MaxTextLength != 4000 {
		t.Fatalf("unexpected max text length %d", cfg.Diagnosis.MaxTextLength)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsRelativeBackendURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendBaseURL, "localhost:8000")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative backend url to be rejected")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown driver to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvBackendBaseURL, "http://backend.internal:8000")
	t.Setenv(EnvRazorpayKeyID, "rzp_test_key")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func TestRedisEnabled(t *testing.T) {
	if (RedisConfig{}).Enabled() {
		t.Fatal("empty redis config should be disabled")
	}
	if !(RedisConfig{Address: "localhost:6379"}).Enabled() {
		t.Fatal("address-only redis config should be enabled")
	}
}
