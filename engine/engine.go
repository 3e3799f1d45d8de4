// Package engine implements the multi-hop swap execution core: a chain
// executor that drives an ordered sequence of venue swaps, validating
// liquidity and received amounts at every hop, and either settles the whole
// chain above its profit threshold or aborts it.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mevkit/chainswap/config"
	"github.com/mevkit/chainswap/venue"
)

const defaultStrategy = "multi_hop"

// recordWindow bounds how many completed run records stay correlatable.
const recordWindow = 256

// Ledger is the token custody boundary the engine settles against.
type Ledger interface {
	Allowance(token, owner, spender common.Address) *big.Int
	TransferFrom(token, owner, spender, to common.Address, amount *big.Int) error
	Transfer(token, from, to common.Address, amount *big.Int) error
	BalanceOf(token, account common.Address) *big.Int
}

// Guard flags tokens that must not be accepted as hop output.
type Guard interface {
	IsUnsafe(ctx context.Context, token common.Address) bool
}

// Dispatcher hands a settled run's final output to a cross-chain transfer
// mechanism. The engine treats the call as fire-and-forget.
type Dispatcher interface {
	Transfer(ctx context.Context, token, recipient common.Address, amount *big.Int, destinationChain string) error
}

// Run describes one end-to-end chain execution request.
type Run struct {
	// Tokens is the swap path; each adjacent pair is one hop.
	Tokens []common.Address

	// Venues holds one venue identifier per hop.
	Venues []string

	// Slippage holds one tolerance percent [0,100] per hop.
	Slippage []uint64

	// Amount is the initial input, denominated in Tokens[0].
	Amount *big.Int

	// MinReturnFloor aborts the run if the running amount drops below it
	// after any hop; nil disables the floor.
	MinReturnFloor *big.Int

	// Strategy labels the emitted run record.
	Strategy string
}

func (r Run) hops() int {
	return len(r.Tokens) - 1
}

// Engine executes runs strictly sequentially. One mutex guards the whole
// call: concurrent runs, administrative updates, and reentrant callbacks
// from venues or guards are all excluded at call granularity.
type Engine struct {
	mu        sync.Mutex
	ledger    Ledger
	venues    *venue.Registry
	guard     Guard
	dispatch  Dispatcher
	params    config.Params
	account   common.Address
	admin     common.Address
	nextRunID uint64
	records   *recordLog
	metrics   *Metrics
	logger    *zap.Logger
}

// New creates an engine settling through ledger with venues from the
// registry. account is the engine's own custody address; admin is the only
// caller allowed to update parameters.
func New(ledger Ledger, venues *venue.Registry, account, admin common.Address, params config.Params, logger *zap.Logger) (*Engine, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if venues == nil {
		return nil, fmt.Errorf("venue registry is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	records, err := newRecordLog(recordWindow)
	if err != nil {
		return nil, err
	}
	return &Engine{
		ledger:  ledger,
		venues:  venues,
		params:  params.Clone(),
		account: account,
		admin:   admin,
		records: records,
		metrics: newMetrics(),
		logger:  logger,
	}, nil
}

// SetGuard wires an optional output-token guard.
func (e *Engine) SetGuard(g Guard) {
	e.guard = g
}

// SetDispatcher wires the settlement dispatcher used by
// ExecuteChainWithSettlement.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatch = d
}

// Metrics returns the engine's instrumentation.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Account returns the engine's custody address.
func (e *Engine) Account() common.Address {
	return e.account
}

// ExecuteChain runs all hops and returns the final output to the caller.
func (e *Engine) ExecuteChain(ctx context.Context, caller common.Address, run Run) (*RunRecord, error) {
	return e.execute(ctx, caller, run, "")
}

// ExecuteChainWithSettlement runs all hops and hands the final output to the
// settlement dispatcher for the given destination chain instead of returning
// it to the caller directly.
func (e *Engine) ExecuteChainWithSettlement(ctx context.Context, caller common.Address, run Run, destinationChain string) (*RunRecord, error) {
	if destinationChain == "" {
		return nil, fmt.Errorf("%w: empty destination chain", ErrInvalidInput)
	}
	if e.dispatch == nil {
		return nil, fmt.Errorf("%w: no settlement dispatcher configured", ErrInvalidInput)
	}
	return e.execute(ctx, caller, run, destinationChain)
}

func (e *Engine) execute(ctx context.Context, caller common.Address, run Run, destinationChain string) (rec *RunRecord, err error) {
	if !e.mu.TryLock() {
		return nil, ErrReentrancy
	}
	defer e.mu.Unlock()

	// One consistent snapshot for the whole run; administrative updates
	// block on the engine mutex and are never interleaved.
	snap := e.params.Clone()

	if err := e.validateRun(run, snap); err != nil {
		return nil, err
	}

	// Failed runs consume ids too.
	runID := e.nextRunID
	e.nextRunID++

	start := time.Now()
	e.metrics.runsTotal.Inc()
	e.metrics.activeRuns.Inc()
	defer func() {
		e.metrics.activeRuns.Dec()
		e.metrics.runLatency.Observe(time.Since(start).Seconds())
		e.metrics.updateSuccessRate()
		if err != nil {
			e.metrics.errors.WithLabelValues(errorLabel(err)).Inc()
			e.logger.Warn("Run aborted",
				zap.Uint64("run_id", runID),
				zap.Error(err),
			)
		}
	}()

	strategy := run.Strategy
	if strategy == "" {
		strategy = defaultStrategy
	}

	current := new(big.Int).Set(run.Amount)
	hops := make([]HopRecord, 0, run.hops())

	for i := 0; i < run.hops(); i++ {
		hopRec, hopErr := e.executeHop(ctx, caller, hopRequest{
			index:     i,
			venueID:   run.Venues[i],
			tokenIn:   run.Tokens[i],
			tokenOut:  run.Tokens[i+1],
			amountIn:  current,
			tolerance: run.Slippage[i],
			first:     i == 0,
		})
		if hopErr != nil {
			return nil, fmt.Errorf("run %d hop %d: %w", runID, i, hopErr)
		}
		hops = append(hops, *hopRec)

		// Hop i+1's input is exactly hop i's output.
		current = new(big.Int).Set(hopRec.AmountOut)

		if run.MinReturnFloor != nil && current.Cmp(run.MinReturnFloor) < 0 {
			e.unwind(caller, run.Tokens[i+1], current)
			return nil, fmt.Errorf("run %d hop %d: %w: %s below floor %s",
				runID, i, ErrInsufficientReturn, current, run.MinReturnFloor)
		}
	}

	finalToken := run.Tokens[len(run.Tokens)-1]

	required, profitErr := profitBound(run.Amount, snap)
	if profitErr != nil {
		e.unwind(caller, finalToken, current)
		return nil, fmt.Errorf("run %d: %w", runID, profitErr)
	}
	if current.Cmp(required) <= 0 {
		e.unwind(caller, finalToken, current)
		return nil, fmt.Errorf("run %d: %w: final %s not above required %s",
			runID, ErrProfitThresholdNotMet, current, required)
	}

	rec = &RunRecord{
		RunID:       runID,
		Strategy:    strategy,
		Tokens:      append([]common.Address(nil), run.Tokens...),
		AmountIn:    new(big.Int).Set(run.Amount),
		AmountOut:   new(big.Int).Set(current),
		Hops:        hops,
		CompletedAt: time.Now(),
	}
	rec.Digest = rec.digest()
	e.records.add(rec)

	e.metrics.settledRuns.Inc()
	volume, _ := new(big.Float).SetInt(current).Float64()
	e.metrics.settledVolume.Add(volume)

	e.logger.Info("Run settled",
		zap.Uint64("run_id", runID),
		zap.String("strategy", strategy),
		zap.String("amount_in", rec.AmountIn.String()),
		zap.String("amount_out", rec.AmountOut.String()),
		zap.Uint64("digest", rec.Digest),
	)

	if destinationChain != "" {
		// Fire-and-forget: a bridge-side failure is logged, never
		// retried, and does not fail the settled run.
		if dispatchErr := e.dispatch.Transfer(ctx, finalToken, caller, current, destinationChain); dispatchErr != nil {
			e.logger.Warn("Settlement dispatch failed",
				zap.Uint64("run_id", runID),
				zap.String("destination_chain", destinationChain),
				zap.Error(dispatchErr),
			)
		}
		return rec, nil
	}

	if deliverErr := e.ledger.Transfer(finalToken, e.account, caller, current); deliverErr != nil {
		return nil, fmt.Errorf("run %d: deliver final output: %v", runID, deliverErr)
	}
	return rec, nil
}

// unwind returns the run's current holdings to the caller. Reverse-swapping
// prior hops is not possible without taking new market risk, so whatever
// token the run currently holds is what goes back.
func (e *Engine) unwind(caller, token common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if err := e.ledger.Transfer(token, e.account, caller, amount); err != nil {
		e.logger.Error("Failed to unwind run holdings",
			zap.String("token", token.Hex()),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
	}
}

func (e *Engine) validateRun(run Run, snap config.Params) error {
	if len(run.Tokens) < 2 {
		return fmt.Errorf("%w: need at least 2 tokens, got %d", ErrInvalidInput, len(run.Tokens))
	}
	if len(run.Venues) != run.hops() {
		return fmt.Errorf("%w: %d tokens require %d venues, got %d",
			ErrInvalidInput, len(run.Tokens), run.hops(), len(run.Venues))
	}
	if len(run.Slippage) != run.hops() {
		return fmt.Errorf("%w: %d hops require %d slippage tolerances, got %d",
			ErrInvalidInput, run.hops(), run.hops(), len(run.Slippage))
	}
	if run.Amount == nil || run.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if run.Amount.BitLen() > maxAmountBits {
		return fmt.Errorf("%w: amount exceeds %d bits", ErrInvalidInput, maxAmountBits)
	}
	if run.MinReturnFloor != nil && run.MinReturnFloor.Sign() < 0 {
		return fmt.Errorf("%w: negative min return floor", ErrInvalidInput)
	}

	for i, id := range run.Venues {
		reg, ok := e.venues.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVenue, id)
		}
		ceiling := snap.MaxSlippagePercent
		if reg.MaxSlippagePercent < ceiling {
			ceiling = reg.MaxSlippagePercent
		}
		if run.Slippage[i] > ceiling {
			return fmt.Errorf("%w: hop %d slippage %d above ceiling %d",
				ErrInvalidInput, i, run.Slippage[i], ceiling)
		}
	}
	return nil
}

// profitBound computes amount * (100 + feePercent) / 100, plus the absolute
// profit threshold when configured. The final amount must strictly exceed
// the bound.
func profitBound(amount *big.Int, snap config.Params) (*big.Int, error) {
	product := new(big.Int).Mul(amount, new(big.Int).SetUint64(100+snap.FeePercent))
	if product.BitLen() > maxAmountBits {
		return nil, fmt.Errorf("%w: profit bound for %s exceeds %d bits", ErrArithmeticOverflow, amount, maxAmountBits)
	}
	required := product.Div(product, oneHundred)
	if snap.MinProfitThreshold != nil {
		required.Add(required, snap.MinProfitThreshold)
	}
	return required, nil
}

// UpdateParameters replaces the process-wide parameters. Only the admin may
// call it; the update excludes in-flight runs rather than interleaving with
// them.
func (e *Engine) UpdateParameters(caller common.Address, params config.Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return fmt.Errorf("%w: %s is not the administrator", ErrUnauthorized, caller.Hex())
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e.params = params.Clone()
	e.logger.Info("Parameters updated",
		zap.Uint64("fee_percent", params.FeePercent),
		zap.Uint64("max_gas_budget", params.MaxGasBudget),
		zap.Uint64("max_slippage_percent", params.MaxSlippagePercent),
	)
	return nil
}

// Params returns a copy of the current parameters.
func (e *Engine) Params() config.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Clone()
}

// Record returns the retained completion record for a run id.
func (e *Engine) Record(id uint64) (*RunRecord, bool) {
	return e.records.record(id)
}
