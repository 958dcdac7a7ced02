package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Source: SourceConfig{
			PageSize:          100,
			RequestsPerSecond: 10,
			MaxRetries:        5,
		},
		Scan: ScanConfig{
			MaxResultsCap:  100000,
			EmptyPageLimit: 3,
			Concurrency:    8,
		},
		Scoring: ScoringConfig{
			NeutralBand:         0.1,
			SpamMediumThreshold: 33,
			SpamHighThreshold:   66,
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"page size too small", func(c *Config) { c.Source.PageSize = 0 }, "source.pageSize"},
		{"page size too large", func(c *Config) { c.Source.PageSize = 101 }, "source.pageSize"},
		{"zero request rate", func(c *Config) { c.Source.RequestsPerSecond = 0 }, "source.requestsPerSecond"},
		{"negative request rate", func(c *Config) { c.Source.RequestsPerSecond = -1 }, "source.requestsPerSecond"},
		{"zero retries", func(c *Config) { c.Source.MaxRetries = 0 }, "source.maxRetries"},
		{"zero results cap", func(c *Config) { c.Scan.MaxResultsCap = 0 }, "scan.maxResultsCap"},
		{"zero empty page limit", func(c *Config) { c.Scan.EmptyPageLimit = 0 }, "scan.emptyPageLimit"},
		{"zero concurrency", func(c *Config) { c.Scan.Concurrency = 0 }, "scan.concurrency"},
		{"neutral band too large", func(c *Config) { c.Scoring.NeutralBand = 1 }, "scoring.neutralBand"},
		{"negative neutral band", func(c *Config) { c.Scoring.NeutralBand = -0.1 }, "scoring.neutralBand"},
		{"inverted spam thresholds", func(c *Config) { c.Scoring.SpamMediumThreshold = 70 }, "spamMediumThreshold"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://oauth.reddit.com", cfg.Source.BaseURL)
	assert.Equal(t, 100, cfg.Source.PageSize)
	assert.InDelta(t, 10.0, cfg.Source.RequestsPerSecond, 0.001)
	assert.Equal(t, 100000, cfg.Scan.MaxResultsCap)
	assert.Equal(t, 2500, cfg.Scan.DefaultResults)
	assert.InDelta(t, 0.1, cfg.Scoring.NeutralBand, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "excel", cfg.Export.Format)
}
