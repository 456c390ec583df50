package common

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	// getEnv treats empty values as unset, so this shields the test from
	// ambient environment.
	for _, key := range []string{"HTTP_ADDR", "DB_DRIVER", "RATE_PER_SQM_DAY", "FALLBACK_DURATION_DAYS", "EXTRACTOR_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q", cfg.Database.Driver)
	}
	if cfg.Fees.RatePerSqmDay != 10 {
		t.Errorf("RatePerSqmDay = %d", cfg.Fees.RatePerSqmDay)
	}
	if cfg.Fees.FallbackDurationDays != 7 {
		t.Errorf("FallbackDurationDays = %d", cfg.Fees.FallbackDurationDays)
	}
	if cfg.Extractor.Timeout != 45*time.Second {
		t.Errorf("Extractor.Timeout = %v", cfg.Extractor.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("RATE_PER_SQM_DAY", "25")
	t.Setenv("EXTRACTOR_TIMEOUT", "90s")

	cfg := LoadConfig()
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Driver = %q", cfg.Database.Driver)
	}
	if cfg.Fees.RatePerSqmDay != 25 {
		t.Errorf("RatePerSqmDay = %d", cfg.Fees.RatePerSqmDay)
	}
	if cfg.Extractor.Timeout != 90*time.Second {
		t.Errorf("Extractor.Timeout = %v", cfg.Extractor.Timeout)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }},
		{"negative rate", func(c *Config) { c.Fees.RatePerSqmDay = -1 }},
		{"zero fallback duration", func(c *Config) { c.Fees.FallbackDurationDays = 0 }},
		{"empty addr", func(c *Config) { c.Server.HTTPAddr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
