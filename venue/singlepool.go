package venue

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mevkit/chainswap/custody"
)

// SinglePool is a fixed-rate venue exposing one aggregate liquidity number.
// It implements Adapter and LiquidityProber (KindSingleLiquidity).
type SinglePool struct {
	mu        sync.Mutex
	name      string
	book      *custody.Book
	account   common.Address
	trader    common.Address
	tokenIn   common.Address
	tokenOut  common.Address
	rateNum   *big.Int
	rateDen   *big.Int
	liquidity *big.Int
}

// NewSinglePool creates a one-directional venue quoting tokenIn -> tokenOut
// at rateNum/rateDen, backed by liquidity units of tokenOut.
func NewSinglePool(name string, book *custody.Book, account, trader, tokenIn, tokenOut common.Address, rateNum, rateDen, liquidity *big.Int) *SinglePool {
	book.Mint(tokenOut, account, liquidity)
	return &SinglePool{
		name:      name,
		book:      book,
		account:   account,
		trader:    trader,
		tokenIn:   tokenIn,
		tokenOut:  tokenOut,
		rateNum:   new(big.Int).Set(rateNum),
		rateDen:   new(big.Int).Set(rateDen),
		liquidity: new(big.Int).Set(liquidity),
	}
}

// Name returns the venue name
func (s *SinglePool) Name() string {
	return s.name
}

// Swap trades amountIn of tokenIn for tokenOut at the fixed rate.
func (s *SinglePool) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tokenIn != s.tokenIn || tokenOut != s.tokenOut {
		return nil, fmt.Errorf("venue %s: unsupported pair %s/%s", s.name, tokenIn.Hex(), tokenOut.Hex())
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("venue %s: zero input", s.name)
	}

	amountOut := new(big.Int).Mul(amountIn, s.rateNum)
	amountOut.Div(amountOut, s.rateDen)
	if amountOut.Cmp(s.liquidity) > 0 {
		return nil, fmt.Errorf("venue %s: output %s exceeds liquidity %s", s.name, amountOut, s.liquidity)
	}
	if minAmountOut != nil && amountOut.Cmp(minAmountOut) < 0 {
		return nil, fmt.Errorf("venue %s: output %s below minimum %s", s.name, amountOut, minAmountOut)
	}

	if err := s.book.Transfer(tokenIn, s.trader, s.account, amountIn); err != nil {
		return nil, fmt.Errorf("venue %s: pull input: %w", s.name, err)
	}
	if err := s.book.Transfer(tokenOut, s.account, s.trader, amountOut); err != nil {
		return nil, fmt.Errorf("venue %s: deliver output: %w", s.name, err)
	}

	s.liquidity.Sub(s.liquidity, amountOut)
	return amountOut, nil
}

// Liquidity returns the aggregate tradable liquidity for a token pair
func (s *SinglePool) Liquidity(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tokenA != s.tokenIn || tokenB != s.tokenOut {
		return nil, fmt.Errorf("venue %s: unsupported pair %s/%s", s.name, tokenA.Hex(), tokenB.Hex())
	}
	return new(big.Int).Set(s.liquidity), nil
}

// SetLiquidity replaces the pool's liquidity value.
func (s *SinglePool) SetLiquidity(v *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liquidity.Set(v)
}
