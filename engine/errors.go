package engine

import "errors"

// Failure taxonomy. Every abort wraps exactly one of these sentinels;
// callers match with errors.Is.
var (
	// ErrInvalidInput covers length mismatches, zero amounts and
	// out-of-range fee or slippage values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientAllowance means the caller's approved allowance does
	// not cover the run's input amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInsufficientLiquidity means a venue's reserve or liquidity probe
	// failed or reported zero.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrArithmeticOverflow means an intermediate product exceeded the
	// 256-bit amount width.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrUnknownVenue means a venue identifier has no registry entry.
	ErrUnknownVenue = errors.New("unknown venue")

	// ErrSwapFailed means a venue returned zero output; the hop's locked
	// input is refunded before this propagates.
	ErrSwapFailed = errors.New("swap failed")

	// ErrInsufficientReturn means a hop left the running amount below the
	// run's minimum-return floor.
	ErrInsufficientReturn = errors.New("insufficient return")

	// ErrProfitThresholdNotMet means the final amount did not clear the
	// fee-adjusted profit bound.
	ErrProfitThresholdNotMet = errors.New("profit threshold not met")

	// ErrGuardRejected means the guard flagged a hop's output token.
	ErrGuardRejected = errors.New("guard rejected token")

	// ErrUnauthorized means a non-administrative caller invoked a
	// privileged operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrReentrancy means a call re-entered the engine while another call
	// held it.
	ErrReentrancy = errors.New("reentrancy detected")
)

var taxonomy = map[error]string{
	ErrInvalidInput:          "invalid_input",
	ErrInsufficientAllowance: "insufficient_allowance",
	ErrInsufficientLiquidity: "insufficient_liquidity",
	ErrArithmeticOverflow:    "arithmetic_overflow",
	ErrUnknownVenue:          "unknown_venue",
	ErrSwapFailed:            "swap_failed",
	ErrInsufficientReturn:    "insufficient_return",
	ErrProfitThresholdNotMet: "profit_threshold_not_met",
	ErrGuardRejected:         "guard_rejected",
	ErrUnauthorized:          "unauthorized",
	ErrReentrancy:            "reentrancy_detected",
}

// errorLabel maps a failure to its metrics label.
func errorLabel(err error) string {
	for sentinel, label := range taxonomy {
		if errors.Is(err, sentinel) {
			return label
		}
	}
	return "other"
}
