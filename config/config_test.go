package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.ListenAddress)
	require.Equal(t, uint32(250), cfg.FeeRateBps)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	// A second load reads the file we just wrote.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, reloaded.ListenAddress)
}

func TestLoadParsesGenesisSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
ListenAddress = ":9000"
DataDir = "/tmp/patrond"
Authority = "0x00000000000000000000000000000000000000ad"
FeeCollector = "0x00000000000000000000000000000000000000fe"
FeeRateBps = 250
MinPatronageAmount = "1000000"

[GenesisAlloc]
"0x0000000000000000000000000000000000000001" = "50000000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	params, err := cfg.GenesisParams()
	require.NoError(t, err)
	require.Equal(t, uint32(250), params.FeeRateBps)
	require.Equal(t, "1000000", params.MinPatronageAmount.String())
	require.Equal(t, byte(0xad), params.Authority[19])
	require.Equal(t, byte(0xfe), params.FeeCollector[19])

	balances, err := cfg.GenesisBalances()
	require.NoError(t, err)
	require.Len(t, balances, 1)
	for _, amount := range balances {
		require.Equal(t, "50000000", amount.String())
	}
}

func TestLoadRejectsFeeRateAboveCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
Authority = "0x00000000000000000000000000000000000000ad"
FeeCollector = "0x00000000000000000000000000000000000000fe"
FeeRateBps = 1001
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "FeeRateBps")
}

func TestLoadRejectsMalformedAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
Authority = "not-an-address"
FeeCollector = "0x00000000000000000000000000000000000000fe"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
