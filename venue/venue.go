package venue

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Kind tags how a venue reports tradable liquidity.
type Kind int

const (
	// KindPairReserve venues expose a two-sided reserve tuple per pair.
	KindPairReserve Kind = iota
	// KindSingleLiquidity venues expose one aggregate liquidity value.
	KindSingleLiquidity
)

func (k Kind) String() string {
	switch k {
	case KindPairReserve:
		return "pair_reserve"
	case KindSingleLiquidity:
		return "single_liquidity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Adapter executes a single token-to-token swap on one liquidity venue.
type Adapter interface {
	// Name returns the venue name
	Name() string

	// Swap trades amountIn of tokenIn for tokenOut, failing if the venue
	// cannot deliver at least minAmountOut
	Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error)
}

// ReservePairer is implemented by KindPairReserve adapters.
type ReservePairer interface {
	// Reserves returns the reserves of a token pair, oriented (tokenA, tokenB)
	Reserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error)
}

// LiquidityProber is implemented by KindSingleLiquidity adapters.
type LiquidityProber interface {
	// Liquidity returns the aggregate tradable liquidity for a token pair
	Liquidity(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, error)
}

// Registered couples an adapter with its kind and slippage-ceiling metadata.
type Registered struct {
	Adapter Adapter
	Kind    Kind

	// MaxSlippagePercent is the venue-level ceiling on per-hop tolerance,
	// in whole percent [0,100].
	MaxSlippagePercent uint64
}

// Registry maps venue identifiers to registered adapters. Dispatch goes
// through the registry only; an identifier without an entry is an unknown
// venue, never a fallback.
type Registry struct {
	mu     sync.RWMutex
	venues map[string]Registered
}

// NewRegistry creates an empty venue registry.
func NewRegistry() *Registry {
	return &Registry{venues: make(map[string]Registered)}
}

// Register adds a venue under id. Registering a duplicate id is an error.
func (r *Registry) Register(id string, reg Registered) error {
	if id == "" {
		return fmt.Errorf("empty venue id")
	}
	if reg.Adapter == nil {
		return fmt.Errorf("venue %s: nil adapter", id)
	}
	if reg.MaxSlippagePercent > 100 {
		return fmt.Errorf("venue %s: slippage ceiling %d above 100", id, reg.MaxSlippagePercent)
	}
	switch reg.Kind {
	case KindPairReserve:
		if _, ok := reg.Adapter.(ReservePairer); !ok {
			return fmt.Errorf("venue %s: kind %s requires a reserve probe", id, reg.Kind)
		}
	case KindSingleLiquidity:
		if _, ok := reg.Adapter.(LiquidityProber); !ok {
			return fmt.Errorf("venue %s: kind %s requires a liquidity probe", id, reg.Kind)
		}
	default:
		return fmt.Errorf("venue %s: unknown kind %d", id, int(reg.Kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.venues[id]; exists {
		return fmt.Errorf("venue %s already registered", id)
	}
	r.venues[id] = reg
	return nil
}

// Lookup returns the venue registered under id.
func (r *Registry) Lookup(id string) (Registered, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.venues[id]
	return reg, ok
}

// IDs returns all registered venue identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.venues))
	for id := range r.venues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
