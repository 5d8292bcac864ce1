package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "STORE_DRIVER", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR", "LOGIN_MAX_ATTEMPTS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Addr != ":3000" {
		t.Fatalf("Server.Addr = %q, want :3000", cfg.Server.Addr)
	}
	if cfg.Auth.JWTAccessTTL != "15m" || cfg.Auth.JWTRefreshTTL != "240h" {
		t.Fatalf("unexpected TTL defaults: %q / %q", cfg.Auth.JWTAccessTTL, cfg.Auth.JWTRefreshTTL)
	}
	if cfg.Store.Driver != "postgres" {
		t.Fatalf("Store.Driver = %q, want postgres", cfg.Store.Driver)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"*"}) {
		t.Fatalf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Redis.Addr != "" || cfg.Redis.LoginMaxAttempts != 10 {
		t.Fatalf("unexpected redis defaults: %+v", cfg.Redis)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MONGO")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	if cfg.Store.Driver != "mongo" {
		t.Fatalf("Store.Driver = %q, want mongo", cfg.Store.Driver)
	}
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("CORS.AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("Redis.DB = %d, want 3", cfg.Redis.DB)
	}
	if cfg.Redis.LoginMaxAttempts != 10 {
		t.Fatalf("LoginMaxAttempts = %d, want fallback 10", cfg.Redis.LoginMaxAttempts)
	}
}
