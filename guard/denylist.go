// Package guard provides flagged-token checks consulted after each swap.
package guard

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Denylist flags tokens that must never be accepted as hop output.
type Denylist struct {
	mu     sync.RWMutex
	tokens map[common.Address]struct{}
}

// NewDenylist creates a denylist pre-populated with the given tokens.
func NewDenylist(tokens ...common.Address) *Denylist {
	d := &Denylist{tokens: make(map[common.Address]struct{}, len(tokens))}
	for _, t := range tokens {
		d.tokens[t] = struct{}{}
	}
	return d
}

// Flag adds a token to the denylist.
func (d *Denylist) Flag(token common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens[token] = struct{}{}
}

// Unflag removes a token from the denylist.
func (d *Denylist) Unflag(token common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tokens, token)
}

// IsUnsafe reports whether token is flagged.
func (d *Denylist) IsUnsafe(ctx context.Context, token common.Address) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, flagged := d.tokens[token]
	return flagged
}
