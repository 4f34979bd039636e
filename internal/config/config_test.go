package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "track"

[strategy]
bankroll = 5000.0
selector_policy = "permissive"

[copy]
wallets = ["0x1f0a1a94a00De02dC8fEa36fBEc2b89d0cAd3030"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "track", cfg.Mode)
	assert.Equal(t, 5000.0, cfg.Strategy.Bankroll)
	assert.Equal(t, "permissive", cfg.Strategy.SelectorPolicy)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.10, cfg.Strategy.MaxMarketExposurePct)
	assert.Equal(t, "https://clob.polymarket.com", cfg.Feed.ClobHost)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[copy]
wallets = ["0x1f0a1a94a00De02dC8fEa36fBEc2b89d0cAd3030"]
`)

	t.Setenv("COPYBOT_STRATEGY_BANKROLL", "2500")
	t.Setenv("COPYBOT_MODE", "track")
	t.Setenv("COPYBOT_COPY_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, cfg.Strategy.Bankroll)
	assert.Equal(t, "track", cfg.Mode)
	assert.False(t, cfg.Copy.Enabled)
}

func TestValidateAcceptsDefaultsWithWallet(t *testing.T) {
	cfg := Defaults()
	cfg.Copy.Wallets = []string{"0x1f0a1a94a00De02dC8fEa36fBEc2b89d0cAd3030"}
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "live"
	cfg.Strategy.Bankroll = 0
	cfg.Strategy.StopLossPct = 0.12
	cfg.Copy.Wallets = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "live"`)
	assert.Contains(t, err.Error(), "bankroll must be positive")
	assert.Contains(t, err.Error(), "stop_loss_pct must be negative")
	assert.Contains(t, err.Error(), "tracked wallet")
}

func TestValidateRejectsBadServerPort(t *testing.T) {
	cfg := Defaults()
	cfg.Copy.Wallets = []string{"0x1f0a1a94a00De02dC8fEa36fBEc2b89d0cAd3030"}
	cfg.Server.Enabled = true
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	// Original is untouched.
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
}

func TestValidateRejectsBadLatencyBounds(t *testing.T) {
	cfg := Defaults()
	cfg.Copy.Wallets = []string{"0x1f0a1a94a00De02dC8fEa36fBEc2b89d0cAd3030"}
	cfg.Strategy.LatencyMinMs = 300
	cfg.Strategy.LatencyMaxMs = 100

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latency_min_ms")
}

func TestValidateRejectsBadDCAParams(t *testing.T) {
	cfg := Defaults()
	cfg.Copy.Wallets = []string{"0x1f0a1a94a00De02dC8fEa36fBEc2b89d0cAd3030"}
	cfg.Copy.DCATriggerPct = 0.05
	cfg.Copy.DCASizeRatio = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dca_trigger_pct")
	assert.Contains(t, err.Error(), "dca_size_ratio")

	// Disabled DCA skips the checks.
	cfg.Copy.DCAEnabled = false
	assert.NoError(t, cfg.Validate())
}
