// Package bridge holds the cross-chain settlement boundary. Dispatch is
// fire-and-forget: the engine never waits on bridge-side finality and never
// retries, so implementations may drop work when overloaded.
package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Dispatcher hands a final token amount to a cross-chain transfer mechanism.
type Dispatcher interface {
	Transfer(ctx context.Context, token, recipient common.Address, amount *big.Int, destinationChain string) error
}

// LogDispatcher records each handoff and performs no transfer. It stands in
// for a live bridge client in tests and dry runs.
type LogDispatcher struct {
	logger *zap.Logger

	// Dispatched counts accepted handoffs.
	Dispatched int
}

// NewLogDispatcher creates a logging dispatcher.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// Transfer logs the handoff.
func (d *LogDispatcher) Transfer(ctx context.Context, token, recipient common.Address, amount *big.Int, destinationChain string) error {
	d.Dispatched++
	d.logger.Info("Settlement dispatched",
		zap.String("token", token.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", amount.String()),
		zap.String("destination_chain", destinationChain),
	)
	return nil
}

// Throttled rate-limits an underlying dispatcher. Dispatches above the
// configured rate are dropped with a warning, never queued.
type Throttled struct {
	next    Dispatcher
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewThrottled wraps next with a token-bucket limiter of perSecond/burst.
func NewThrottled(next Dispatcher, perSecond float64, burst int, logger *zap.Logger) *Throttled {
	if logger == nil {
		logger = zap.NewNop()
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

// Transfer forwards the handoff if the limiter admits it.
func (t *Throttled) Transfer(ctx context.Context, token, recipient common.Address, amount *big.Int, destinationChain string) error {
	if !t.limiter.Allow() {
		t.logger.Warn("Settlement dispatch dropped by throttle",
			zap.String("token", token.Hex()),
			zap.String("amount", amount.String()),
			zap.String("destination_chain", destinationChain),
		)
		return nil
	}
	return t.next.Transfer(ctx, token, recipient, amount, destinationChain)
}
