package venue

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mevkit/chainswap/custody"
)

// PairPool is a constant-product two-sided pool settling against a custody
// book. It implements Adapter and ReservePairer (KindPairReserve).
type PairPool struct {
	mu       sync.Mutex
	name     string
	book     *custody.Book
	account  common.Address
	trader   common.Address
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
}

// NewPairPool creates a pool for (token0, token1) funded with the given
// reserves. The book is credited with the pool's holdings; trader is the
// counterparty account swaps settle against.
func NewPairPool(name string, book *custody.Book, account, trader, token0, token1 common.Address, reserve0, reserve1 *big.Int) *PairPool {
	book.Mint(token0, account, reserve0)
	book.Mint(token1, account, reserve1)
	return &PairPool{
		name:     name,
		book:     book,
		account:  account,
		trader:   trader,
		token0:   token0,
		token1:   token1,
		reserve0: new(big.Int).Set(reserve0),
		reserve1: new(big.Int).Set(reserve1),
	}
}

// Name returns the venue name
func (p *PairPool) Name() string {
	return p.name
}

// Swap trades amountIn of tokenIn for tokenOut at the constant-product rate
// with a 0.3% pool fee.
func (p *PairPool) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reserveIn, reserveOut, err := p.orient(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("pool %s: zero input", p.name)
	}

	amountOut := getAmountOut(amountIn, reserveIn, reserveOut)
	if minAmountOut != nil && amountOut.Cmp(minAmountOut) < 0 {
		return nil, fmt.Errorf("pool %s: output %s below minimum %s", p.name, amountOut, minAmountOut)
	}

	if err := p.book.Transfer(tokenIn, p.trader, p.account, amountIn); err != nil {
		return nil, fmt.Errorf("pool %s: pull input: %w", p.name, err)
	}
	if err := p.book.Transfer(tokenOut, p.account, p.trader, amountOut); err != nil {
		return nil, fmt.Errorf("pool %s: deliver output: %w", p.name, err)
	}

	reserveIn.Add(reserveIn, amountIn)
	reserveOut.Sub(reserveOut, amountOut)
	return amountOut, nil
}

// Reserves returns the reserves of a token pair, oriented (tokenA, tokenB)
func (p *PairPool) Reserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ra, rb, err := p.orient(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Set(ra), new(big.Int).Set(rb), nil
}

// Drain zeroes the output-side reserve of the pair; used to model a pool
// emptied between hops.
func (p *PairPool) Drain(token common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch token {
	case p.token0:
		p.reserve0.SetInt64(0)
	case p.token1:
		p.reserve1.SetInt64(0)
	}
}

func (p *PairPool) orient(tokenIn, tokenOut common.Address) (*big.Int, *big.Int, error) {
	switch {
	case tokenIn == p.token0 && tokenOut == p.token1:
		return p.reserve0, p.reserve1, nil
	case tokenIn == p.token1 && tokenOut == p.token0:
		return p.reserve1, p.reserve0, nil
	default:
		return nil, nil, fmt.Errorf("pool %s: unsupported pair %s/%s", p.name, tokenIn.Hex(), tokenOut.Hex())
	}
}

// getAmountOut calculates output amount for an input amount
func getAmountOut(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Add(
		new(big.Int).Mul(reserveIn, big.NewInt(1000)),
		amountInWithFee,
	)
	if denominator.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Div(numerator, denominator)
}
