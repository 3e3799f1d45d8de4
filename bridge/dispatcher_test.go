package bridge

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLogDispatcher(t *testing.T) {
	d := NewLogDispatcher(zaptest.NewLogger(t))
	err := d.Transfer(context.Background(), common.HexToAddress("0x01"), common.HexToAddress("0x02"), big.NewInt(100), "polygon")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Dispatched)
}

func TestThrottledDropsAboveRate(t *testing.T) {
	inner := NewLogDispatcher(zaptest.NewLogger(t))
	// 1 token burst, negligible refill: only the first dispatch passes.
	throttled := NewThrottled(inner, 0.0001, 1, zaptest.NewLogger(t))

	ctx := context.Background()
	token := common.HexToAddress("0x01")
	recipient := common.HexToAddress("0x02")

	require.NoError(t, throttled.Transfer(ctx, token, recipient, big.NewInt(1), "polygon"))
	require.NoError(t, throttled.Transfer(ctx, token, recipient, big.NewInt(2), "polygon"))
	require.NoError(t, throttled.Transfer(ctx, token, recipient, big.NewInt(3), "polygon"))

	// Drops are silent successes; only one handoff reached the bridge.
	assert.Equal(t, 1, inner.Dispatched)
}
