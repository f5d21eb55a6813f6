package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "0", cfg.Ledger.MintPrice)
	assert.Equal(t, 15, cfg.Ledger.TimeoutSeconds)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_ADDRESS", "0x00000000000000000000000000000000000c0a17")
	t.Setenv("MINT_PRICE", "1000000000000000000")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0x00000000000000000000000000000000000c0a17", cfg.Ledger.TokenAddress)
	assert.Equal(t, "1000000000000000000", cfg.Ledger.MintPrice)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petmint.toml")
	data := `
[server]
port = 7000

[ledger]
rpc_url = "http://localhost:8545"
token_address = "0x00000000000000000000000000000000000c0a17"
mint_price = "500"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	t.Setenv("PETMINT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8545", cfg.Ledger.RPCURL)
	assert.Equal(t, "500", cfg.Ledger.MintPrice)
	// Untouched values keep their defaults.
	assert.Equal(t, "sqlite", cfg.Storage.Type)
}

func TestEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petmint.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 7000\n"), 0600))
	t.Setenv("PETMINT_CONFIG", path)
	t.Setenv("PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestDatabaseURLSwitchesToPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/petmint")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Type)
}
