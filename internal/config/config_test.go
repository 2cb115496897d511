package config

import (
	"slices"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.GRPC.Port != 50051 {
		t.Errorf("expected gRPC port 50051, got %d", cfg.GRPC.Port)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC, got %v", cfg.Location)
	}
	if !cfg.Sweep.Enabled || cfg.Sweep.Interval != 5*time.Minute {
		t.Errorf("unexpected sweep config: %+v", cfg.Sweep)
	}
	if !slices.Equal(cfg.CORS.Origins, []string{"*"}) {
		t.Errorf("expected wildcard origins, got %v", cfg.CORS.Origins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TIMEZONE", "America/New_York")
	t.Setenv("EVENT_WORKERS", "4")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Location.String() != "America/New_York" {
		t.Errorf("expected America/New_York, got %v", cfg.Location)
	}
	if cfg.Events.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Events.Workers)
	}
	if cfg.Sweep.Interval != 30*time.Second {
		t.Errorf("expected 30s sweep, got %v", cfg.Sweep.Interval)
	}
	if cfg.RateLimit.RPS != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.RateLimit.RPS)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !slices.Equal(cfg.CORS.Origins, want) {
		t.Errorf("expected %v, got %v", want, cfg.CORS.Origins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"grpc port", "GRPC_PORT", "0"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"timezone", "TIMEZONE", "Mars/Olympus"},
		{"workers", "EVENT_WORKERS", "0"},
		{"buffer", "EVENT_BUFFER_SIZE", "-1"},
		{"sweep interval", "SWEEP_INTERVAL", "10ms"},
		{"rate limit", "RATE_LIMIT_RPS", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_DisabledSweepSkipsIntervalCheck(t *testing.T) {
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("SWEEP_INTERVAL", "1ms")

	if _, err := Load(); err != nil {
		t.Errorf("expected disabled sweep to load, got %v", err)
	}
}
