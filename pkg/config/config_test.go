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

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Backend.IsEmbedded() {
		t.Fatalf("expected hosted backend by default")
	}
	if cfg.Backend.URL != "https://project.example.co" {
		t.Fatalf("unexpected backend URL %q", cfg.Backend.URL)
	}
	if cfg.Session.CookieName != "printshop_sid" {
		t.Fatalf("unexpected cookie name %q", cfg.Session.CookieName)
	}
	if got := cfg.Session.IdleTimeout; got != 30*time.Minute {
		t.Fatalf("expected idle timeout 30m, got %v", got)
	}
	if got := cfg.OneTimeCode.TTL; got != 10*time.Minute {
		t.Fatalf("expected otp ttl 10m, got %v", got)
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

func TestLoad_HostedRequiresKey(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendAnonKey, "")

	if _, err := Load(); err == nil {
		t.Fatal("expected hosted backend without anon key to fail")
	}
}

func TestLoad_UnknownBackendMode(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendMode, "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend mode to fail")
	}
}

func TestLoad_EmbeddedSQLiteSkipsDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendMode, "embedded")
	t.Setenv(EnvUseSQLite, "true")
	t.Setenv(EnvJWTSecret, "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Backend.IsEmbedded() || !cfg.FeatureFlags.UseSQLite {
		t.Fatalf("expected embedded sqlite config, got %+v", cfg.FeatureFlags)
	}
	if cfg.DB.DSN != "" {
		t.Fatalf("expected no DSN, got %q", cfg.DB.DSN)
	}
}

func TestLoad_EmbeddedPostgresBuildsLegacyDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendMode, "embedded")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvDBHost, "db.local")
	t.Setenv(EnvDBUser, "printshop")
	t.Setenv(EnvDBName, "printshop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	want := "postgres://printshop@db.local:5432/printshop?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected DSN %q, got %q", want, cfg.DB.DSN)
	}
}

func TestLoad_EmbeddedRequiresJWTSecret(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendMode, "embedded")
	t.Setenv(EnvUseSQLite, "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected embedded backend without jwt secret to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvBackendURL, "https://project.example.co")
	t.Setenv(EnvBackendAnonKey, "anon-key")
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

func TestJWTConfigDurations(t *testing.T) {
	cfg := JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 0}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTTL())
	}
	if cfg.RefreshTokenTTL() != 0 {
		t.Fatalf("expected zero refresh ttl, got %v", cfg.RefreshTokenTTL())
	}
}
