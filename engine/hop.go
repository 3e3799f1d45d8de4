package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// hopState tracks the per-hop state machine:
// pending -> fundsLocked -> venueInvoked -> settled | rolledBack.
type hopState int

const (
	hopPending hopState = iota
	hopFundsLocked
	hopVenueInvoked
	hopSettled
	hopRolledBack
)

func (s hopState) String() string {
	switch s {
	case hopPending:
		return "pending"
	case hopFundsLocked:
		return "funds_locked"
	case hopVenueInvoked:
		return "venue_invoked"
	case hopSettled:
		return "settled"
	case hopRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

type hopRequest struct {
	index     int
	venueID   string
	tokenIn   common.Address
	tokenOut  common.Address
	amountIn  *big.Int
	tolerance uint64

	// first hops fund from the caller's approved balance; later hops
	// spend custody already held for the run.
	first bool
}

// executeHop runs one atomic swap. Funds are locked into custody first;
// every failure after locking refunds whatever the hop currently holds to
// the caller before the error propagates, so an aborted run never strands
// value inside the engine.
func (e *Engine) executeHop(ctx context.Context, caller common.Address, req hopRequest) (*HopRecord, error) {
	state := hopPending

	if req.first {
		allowance := e.ledger.Allowance(req.tokenIn, caller, e.account)
		if allowance.Cmp(req.amountIn) < 0 {
			return nil, fmt.Errorf("%w: approved %s, need %s", ErrInsufficientAllowance, allowance, req.amountIn)
		}
		if err := e.ledger.TransferFrom(req.tokenIn, caller, e.account, e.account, req.amountIn); err != nil {
			return nil, fmt.Errorf("%w: pull input: %v", ErrInsufficientAllowance, err)
		}
	}
	state = hopFundsLocked

	refund := func(token common.Address, amount *big.Int) {
		state = hopRolledBack
		if err := e.ledger.Transfer(token, e.account, caller, amount); err != nil {
			e.logger.Error("Failed to refund hop funds",
				zap.Int("hop", req.index),
				zap.String("state", state.String()),
				zap.String("token", token.Hex()),
				zap.String("amount", amount.String()),
				zap.Error(err),
			)
		}
	}

	reg, ok := e.venues.Lookup(req.venueID)
	if !ok {
		refund(req.tokenIn, req.amountIn)
		return nil, fmt.Errorf("%w: %q", ErrUnknownVenue, req.venueID)
	}

	if err := validateReserves(ctx, req.venueID, reg, req.tokenIn, req.tokenOut); err != nil {
		refund(req.tokenIn, req.amountIn)
		return nil, err
	}

	minOut, err := MinOut(req.amountIn, req.tolerance)
	if err != nil {
		refund(req.tokenIn, req.amountIn)
		return nil, err
	}

	state = hopVenueInvoked
	amountOut, err := reg.Adapter.Swap(ctx, req.tokenIn, req.tokenOut, req.amountIn, minOut)
	if err != nil || amountOut == nil || amountOut.Sign() == 0 {
		// Hop-local rollback: the locked input goes back before the
		// failure propagates.
		refund(req.tokenIn, req.amountIn)
		if err != nil {
			return nil, fmt.Errorf("%w: venue %s: %v", ErrSwapFailed, req.venueID, err)
		}
		return nil, fmt.Errorf("%w: venue %s returned zero output", ErrSwapFailed, req.venueID)
	}

	if e.guard != nil && e.guard.IsUnsafe(ctx, req.tokenOut) {
		// The flagged output is still the caller's value; custody is
		// not a quarantine.
		refund(req.tokenOut, amountOut)
		return nil, fmt.Errorf("%w: %s", ErrGuardRejected, req.tokenOut.Hex())
	}

	state = hopSettled
	rec := &HopRecord{
		Index:     req.index,
		Venue:     req.venueID,
		TokenIn:   req.tokenIn,
		TokenOut:  req.tokenOut,
		AmountIn:  new(big.Int).Set(req.amountIn),
		AmountOut: amountOut,
	}
	e.logger.Debug("Hop settled",
		zap.Int("hop", req.index),
		zap.String("state", state.String()),
		zap.String("venue", req.venueID),
		zap.String("token_in", req.tokenIn.Hex()),
		zap.String("token_out", req.tokenOut.Hex()),
		zap.String("amount_in", rec.AmountIn.String()),
		zap.String("amount_out", rec.AmountOut.String()),
	)
	return rec, nil
}
