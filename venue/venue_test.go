package venue

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevkit/chainswap/custody"
)

var (
	tokenX = common.HexToAddress("0x1001")
	tokenY = common.HexToAddress("0x1002")
	pool1  = common.HexToAddress("0xF001")
	trader = common.HexToAddress("0xE001")
)

func TestRegistry(t *testing.T) {
	book := custody.NewBook()
	reg := NewRegistry()
	pp := NewPairPool("uni", book, pool1, trader, tokenX, tokenY, big.NewInt(1_000_000), big.NewInt(1_000_000))

	require.NoError(t, reg.Register("v1", Registered{Adapter: pp, Kind: KindPairReserve, MaxSlippagePercent: 10}))

	// Duplicate id is rejected.
	err := reg.Register("v1", Registered{Adapter: pp, Kind: KindPairReserve, MaxSlippagePercent: 10})
	require.Error(t, err)

	// A pair-reserve registration needs a reserve probe.
	sp := NewSinglePool("solo", book, common.HexToAddress("0xF002"), trader, tokenX, tokenY, big.NewInt(1), big.NewInt(1), big.NewInt(100))
	err = reg.Register("v2", Registered{Adapter: sp, Kind: KindPairReserve, MaxSlippagePercent: 10})
	require.Error(t, err)
	require.NoError(t, reg.Register("v2", Registered{Adapter: sp, Kind: KindSingleLiquidity, MaxSlippagePercent: 10}))

	got, ok := reg.Lookup("v1")
	require.True(t, ok)
	assert.Equal(t, "uni", got.Adapter.Name())

	_, ok = reg.Lookup("v9")
	assert.False(t, ok)

	assert.Equal(t, []string{"v1", "v2"}, reg.IDs())
}

func TestPairPoolSwap(t *testing.T) {
	book := custody.NewBook()
	pp := NewPairPool("uni", book, pool1, trader, tokenX, tokenY, big.NewInt(1_000_000), big.NewInt(1_000_000))
	book.Mint(tokenX, trader, big.NewInt(1000))

	out, err := pp.Swap(context.Background(), tokenX, tokenY, big.NewInt(1000), big.NewInt(1))
	require.NoError(t, err)
	// 1000 in against 1M/1M reserves with the 0.3% fee yields 996.
	assert.Equal(t, "996", out.String())
	assert.Equal(t, "0", book.BalanceOf(tokenX, trader).String())
	assert.Equal(t, "996", book.BalanceOf(tokenY, trader).String())

	// Reserves moved with the trade.
	rx, ry, err := pp.Reserves(context.Background(), tokenX, tokenY)
	require.NoError(t, err)
	assert.Equal(t, "1001000", rx.String())
	assert.Equal(t, "999004", ry.String())
}

func TestPairPoolMinOut(t *testing.T) {
	book := custody.NewBook()
	pp := NewPairPool("uni", book, pool1, trader, tokenX, tokenY, big.NewInt(1_000_000), big.NewInt(1_000_000))
	book.Mint(tokenX, trader, big.NewInt(1000))

	_, err := pp.Swap(context.Background(), tokenX, tokenY, big.NewInt(1000), big.NewInt(1000))
	require.Error(t, err)
	// Failed swap moves no funds.
	assert.Equal(t, "1000", book.BalanceOf(tokenX, trader).String())
}

func TestPairPoolUnsupportedPair(t *testing.T) {
	book := custody.NewBook()
	pp := NewPairPool("uni", book, pool1, trader, tokenX, tokenY, big.NewInt(1000), big.NewInt(1000))

	other := common.HexToAddress("0x1003")
	_, _, err := pp.Reserves(context.Background(), tokenX, other)
	require.Error(t, err)
}

func TestSinglePoolSwapAndLiquidity(t *testing.T) {
	book := custody.NewBook()
	sp := NewSinglePool("solo", book, common.HexToAddress("0xF002"), trader, tokenX, tokenY,
		big.NewInt(105), big.NewInt(100), big.NewInt(10_000))
	book.Mint(tokenX, trader, big.NewInt(1000))

	liq, err := sp.Liquidity(context.Background(), tokenX, tokenY)
	require.NoError(t, err)
	assert.Equal(t, "10000", liq.String())

	out, err := sp.Swap(context.Background(), tokenX, tokenY, big.NewInt(1000), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "1050", out.String())

	liq, err = sp.Liquidity(context.Background(), tokenX, tokenY)
	require.NoError(t, err)
	assert.Equal(t, "8950", liq.String())
}
