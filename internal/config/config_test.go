package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadReadsYAML(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9000"
postgres:
  url: postgres://quiz@localhost/quiz
redis:
  addr: localhost:6379
  lock_ttl: 15s
auth:
  jwt_secret: s3cret
  token_ttl: 2h
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Postgres.URL == "" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("expected secret from file, got %q", cfg.Auth.JWTSecret)
	}
	if d := Duration(cfg.Redis.LockTTL, time.Minute); d != 15*time.Second {
		t.Fatalf("expected 15s lock ttl, got %v", d)
	}

	l := cfg.NewLogger()
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", l.Formatter)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("expected env secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.NewLogger().GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level by default")
	}
}

func TestDurationFallback(t *testing.T) {
	if d := Duration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", d)
	}
	if d := Duration("soon", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for invalid, got %v", d)
	}
}
