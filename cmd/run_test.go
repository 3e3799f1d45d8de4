package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mevkit/chainswap/config"
)

const scenarioYAML = `
caller: "0x00000000000000000000000000000000000000CA"
strategy: "triangle"
tokens:
  - "0x000000000000000000000000000000000000000A"
  - "0x000000000000000000000000000000000000000B"
  - "0x000000000000000000000000000000000000000C"
venues: ["v1", "v2"]
slippage: [1, 1]
amount: "100000"
pools:
  - id: v1
    kind: pair_reserve
    token_a: "0x000000000000000000000000000000000000000A"
    token_b: "0x000000000000000000000000000000000000000B"
    reserve_a: "80000000"
    reserve_b: "100000000"
    max_slippage_percent: 10
  - id: v2
    kind: single_liquidity
    token_a: "0x000000000000000000000000000000000000000B"
    token_b: "0x000000000000000000000000000000000000000C"
    rate_num: 106
    rate_den: 100
    liquidity: "50000000"
    max_slippage_percent: 5
`

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	sc, err := loadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "triangle", sc.Strategy)
	require.Len(t, sc.Pools, 2)
	assert.Equal(t, "single_liquidity", sc.Pools[1].Kind)

	_, err = loadScenario("")
	require.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	sc, err := loadScenario(path)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.MaxSlippagePercent = 10

	rec, eng, err := runScenario(cfg, sc, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, eng)

	assert.Equal(t, uint64(0), rec.RunID)
	assert.Equal(t, "triangle", rec.Strategy)
	require.Len(t, rec.Hops, 2)
	// The chain must end above the break-even bound.
	assert.Equal(t, 1, rec.AmountOut.Cmp(rec.AmountIn))
}
