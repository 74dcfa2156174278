package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"YieldSentinel/internal/collector"
	"YieldSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "data/yield_sentinel.db", cfg.Database.SQLitePath)
	assert.Equal(t, "https://ethereum.publicnode.com", cfg.Chain.RPCURL)
	assert.Equal(t, 15*time.Second, cfg.Chain.Timeout)
	assert.Equal(t, "@every 5m", cfg.Scan.Schedule)
	assert.True(t, cfg.RunOnStart())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
app:
  env: production
chain:
  rpc_url: https://rpc.example.org
  timeout: 3s
scan:
  schedule: "0 */10 * * * *"
  run_on_start: false
telegram:
  bot_token: abc
  chat_id: "-100123"
wallet_address: "0x1111111111111111111111111111111111111111"
tokens:
  - symbol: USDC
    kind: erc20
    contract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
    decimals: 6
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 3*time.Second, cfg.Chain.Timeout)
	assert.Equal(t, "0 */10 * * * *", cfg.Scan.Schedule)
	assert.False(t, cfg.RunOnStart())
	require.Len(t, cfg.Tokens, 1)
	assert.Equal(t, model.KindERC20, cfg.Tokens[0].Kind)
	assert.Equal(t, 6, cfg.Tokens[0].Decimals)

	id, err := cfg.TelegramChatID()
	require.NoError(t, err)
	assert.EqualValues(t, -100123, id)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "chain:\n  rpc_url: https://from-file.example\n")
	t.Setenv("RPC_URL", "https://from-env.example")
	t.Setenv("SCHEDULER_INTERVAL_SECONDS", "60")
	t.Setenv("RUN_ON_START", "false")
	t.Setenv("SQLITE_PATH", "/tmp/y.db")
	t.Setenv("RPC_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example", cfg.Chain.RPCURL)
	assert.Equal(t, "@every 60s", cfg.Scan.Schedule)
	assert.False(t, cfg.RunOnStart())
	assert.Equal(t, "/tmp/y.db", cfg.Database.SQLitePath)
	assert.Equal(t, 2*time.Second, cfg.Chain.Timeout)

	t.Setenv("SCAN_SCHEDULE", "@hourly")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "@hourly", cfg.Scan.Schedule)
}

func TestEnvOverrideErrors(t *testing.T) {
	tests := map[string]string{
		"SCHEDULER_INTERVAL_SECONDS": "soon",
		"RUN_ON_START":               "maybe",
		"RPC_TIMEOUT":                "forever",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "chain: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.Chain.RPCURL = "ftp://node"
	cfg.Scan.Schedule = "whenever"
	cfg.Telegram.BotToken = "abc"
	cfg.Telegram.ChatID = "chat"
	cfg.WalletAddress = "0x12"
	cfg.Tokens = []model.Token{{Symbol: "X", Kind: model.KindERC20, Contract: "nope"}, {Kind: "nft"}}

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"chain.rpc_url scheme", "scan.schedule", "telegram.chat_id", "wallet_address", "tokens[0].contract", "tokens[1].symbol", "tokens[1].kind"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.ErrorIs(t, err, collector.ErrInvalidAddress)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "x.yaml", ResolvePath("x.yaml"))
	t.Setenv("CONFIG_PATH", "/etc/ys.yaml")
	assert.Equal(t, "/etc/ys.yaml", ResolvePath(""))
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, ResolvePath(""))
}
