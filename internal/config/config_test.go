package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
	assert.Equal(t, "data/derivative_data_db.csv", cfg.Storage.CSVPath)
	assert.Equal(t, "^NSEI", cfg.SpotPrice.Symbol)
	assert.Equal(t, 5, cfg.SpotPrice.Lookback)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OIPULSE_SERVER_PORT", "9090")
	t.Setenv("OIPULSE_SPOT_PRICE_SYMBOL", "^BANKNIFTY")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "^BANKNIFTY", cfg.SpotPrice.Symbol)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "postgres" },
			wantErr: true,
		},
		{
			name:    "sheets backend without spreadsheet id",
			mutate:  func(c *Config) { c.Storage.Backend = BackendSheets },
			wantErr: true,
		},
		{
			name: "sheets backend with spreadsheet id",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendSheets
				c.Storage.SpreadsheetID = "1abc"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}
