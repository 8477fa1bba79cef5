package config

import (
	"strings"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := GetDefaults()
	if err := validateConfig(cfg); err != nil {
		t.Errorf("Default configuration failed validation: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "unknown detector mode",
			mutate:  func(c *Config) { c.Detector.Mode = "oracle" },
			wantErr: "invalid detector mode",
		},
		{
			name: "remote mode without URL",
			mutate: func(c *Config) {
				c.Detector.Mode = "remote"
				c.Detector.Remote.URL = ""
			},
			wantErr: "no remote URL",
		},
		{
			name: "rate limit enabled with zero budget",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerMin = 0
			},
			wantErr: "invalid rate limit",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
