package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/users")
	t.Setenv("SECRET_KEY", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.TokenTTL != 10*time.Minute {
		t.Fatalf("expected default token ttl 10m, got %v", cfg.TokenTTL)
	}
	if cfg.RegistrationDelay != time.Second {
		t.Fatalf("expected default registration delay 1s, got %v", cfg.RegistrationDelay)
	}
	if cfg.UserCacheTTL != 5*time.Minute {
		t.Fatalf("expected default cache ttl 5m, got %v", cfg.UserCacheTTL)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate enabled by default")
	}
	if cfg.DBMaxConns != 10 || cfg.DBMinConns != 1 || cfg.DBConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected pool defaults: max=%d min=%d timeout=%v", cfg.DBMaxConns, cfg.DBMinConns, cfg.DBConnectTimeout)
	}
	if cfg.Argon2Time != 1 || cfg.Argon2Memory != 64*1024 || cfg.Argon2Threads != 4 {
		t.Fatalf("unexpected argon2 defaults: t=%d m=%d p=%d", cfg.Argon2Time, cfg.Argon2Memory, cfg.Argon2Threads)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/users")
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_MIN_CONNS", "3")
	t.Setenv("ARGON2_MEMORY_KB", "19456")
	t.Setenv("ARGON2_TIME", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBMaxConns != 25 || cfg.DBMinConns != 3 {
		t.Fatalf("expected pool overrides, got max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.Argon2Memory != 19456 || cfg.Argon2Time != 2 {
		t.Fatalf("expected argon2 overrides, got m=%d t=%d", cfg.Argon2Memory, cfg.Argon2Time)
	}
}

func TestLoadConfig_RequiresSecretKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/users")
	t.Setenv("SECRET_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when SECRET_KEY is missing")
	}
}
