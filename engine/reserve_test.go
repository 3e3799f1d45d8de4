package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevkit/chainswap/venue"
)

// liquidityStub is a minimal single-liquidity adapter.
type liquidityStub struct {
	liquidity *big.Int
	err       error
}

func (l *liquidityStub) Name() string { return "liq" }

func (l *liquidityStub) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (l *liquidityStub) Liquidity(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, error) {
	return l.liquidity, l.err
}

func TestValidateReservesPairKind(t *testing.T) {
	ctx := context.Background()
	s := &stubVenue{name: "v1", reserveOut: big.NewInt(5)}
	reg := venue.Registered{Adapter: s, Kind: venue.KindPairReserve}

	require.NoError(t, validateReserves(ctx, "v1", reg, tokenX, tokenY))

	s.reserveOut = big.NewInt(0)
	err := validateReserves(ctx, "v1", reg, tokenX, tokenY)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestValidateReservesSingleKind(t *testing.T) {
	ctx := context.Background()
	s := &liquidityStub{liquidity: big.NewInt(5)}
	reg := venue.Registered{Adapter: s, Kind: venue.KindSingleLiquidity}

	require.NoError(t, validateReserves(ctx, "liq", reg, tokenX, tokenY))

	s.liquidity = big.NewInt(0)
	err := validateReserves(ctx, "liq", reg, tokenX, tokenY)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	s.liquidity = big.NewInt(5)
	s.err = assert.AnError
	err = validateReserves(ctx, "liq", reg, tokenX, tokenY)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestValidateReservesKindMismatch(t *testing.T) {
	ctx := context.Background()
	// A single-liquidity adapter registered under the pair kind has no
	// reserve probe.
	s := &liquidityStub{liquidity: big.NewInt(5)}
	reg := venue.Registered{Adapter: s, Kind: venue.KindPairReserve}

	err := validateReserves(ctx, "liq", reg, tokenX, tokenY)
	require.ErrorIs(t, err, ErrUnknownVenue)
}
