package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mevkit/chainswap/venue"
)

// validateReserves probes a venue's liquidity for the hop's pair and rejects
// the hop before any funds reach the venue. Pair-reserve venues are judged
// on the output-side reserve, the side the hop will draw from;
// single-liquidity venues on the aggregate value. The snapshot is read fresh
// per hop and never reused: the time between hops is adversarial.
func validateReserves(ctx context.Context, venueID string, reg venue.Registered, tokenIn, tokenOut common.Address) error {
	switch reg.Kind {
	case venue.KindPairReserve:
		pairer, ok := reg.Adapter.(venue.ReservePairer)
		if !ok {
			return fmt.Errorf("%w: venue %s registered as %s without a reserve probe", ErrUnknownVenue, venueID, reg.Kind)
		}
		_, reserveOut, err := pairer.Reserves(ctx, tokenIn, tokenOut)
		if err != nil {
			return fmt.Errorf("%w: venue %s reserve probe: %v", ErrInsufficientLiquidity, venueID, err)
		}
		if !positive(reserveOut) {
			return fmt.Errorf("%w: venue %s has no %s-side reserve", ErrInsufficientLiquidity, venueID, tokenOut.Hex())
		}
	case venue.KindSingleLiquidity:
		prober, ok := reg.Adapter.(venue.LiquidityProber)
		if !ok {
			return fmt.Errorf("%w: venue %s registered as %s without a liquidity probe", ErrUnknownVenue, venueID, reg.Kind)
		}
		liquidity, err := prober.Liquidity(ctx, tokenIn, tokenOut)
		if err != nil {
			return fmt.Errorf("%w: venue %s liquidity probe: %v", ErrInsufficientLiquidity, venueID, err)
		}
		if !positive(liquidity) {
			return fmt.Errorf("%w: venue %s has no liquidity", ErrInsufficientLiquidity, venueID)
		}
	default:
		return fmt.Errorf("%w: venue %s has unrecognized kind %d", ErrUnknownVenue, venueID, int(reg.Kind))
	}
	return nil
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
