package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.OverdueInterval != time.Minute {
		t.Errorf("OverdueInterval = %v, want 1m", cfg.OverdueInterval)
	}
	if cfg.EventsTopic != "quiz.attempts" {
		t.Errorf("EventsTopic = %q", cfg.EventsTopic)
	}
	if cfg.DatabaseURL == "" {
		t.Error("sqlite driver should default DatabaseURL")
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies = %v, want none by default", cfg.TrustedProxies)
	}
}

func TestParse_TrustedProxies(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1,172.16.0.0/12")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "172.16.0.0/12" {
		t.Errorf("TrustedProxies = %v", cfg.TrustedProxies)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without url", env: map[string]string{"DB_DRIVER": "postgres", "JWT_SECRET": "s"}},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "oracle", "JWT_SECRET": "s"}},
		{name: "no auth", env: map[string]string{"DB_DRIVER": "sqlite"}},
		{name: "bad interval", env: map[string]string{"DB_DRIVER": "sqlite", "JWT_SECRET": "s", "OVERDUE_INTERVAL": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("JWT_SECRET", "")
			t.Setenv("CASDOOR_ENDPOINT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Parse(); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}
