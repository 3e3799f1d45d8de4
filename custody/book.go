// Package custody provides an in-memory token balance and allowance ledger.
// It is the reference implementation of the custody boundary the execution
// engine settles against; production deployments substitute a chain-backed
// ledger behind the same methods.
package custody

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Book tracks per-token balances and spender allowances.
type Book struct {
	mu         sync.RWMutex
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]map[common.Address]*big.Int
}

// NewBook creates an empty ledger.
func NewBook() *Book {
	return &Book{
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits amount of token to account.
func (b *Book) Mint(token, account common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(token, account, amount)
}

// BalanceOf returns account's balance of token.
func (b *Book) BalanceOf(token, account common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if accounts, ok := b.balances[token]; ok {
		if bal, ok := accounts[account]; ok {
			return new(big.Int).Set(bal)
		}
	}
	return new(big.Int)
}

// Approve sets spender's allowance over owner's token balance.
func (b *Book) Approve(token, owner, spender common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byToken, ok := b.allowances[token]
	if !ok {
		byToken = make(map[common.Address]map[common.Address]*big.Int)
		b.allowances[token] = byToken
	}
	byOwner, ok := byToken[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		byToken[owner] = byOwner
	}
	byOwner[spender] = new(big.Int).Set(amount)
}

// Allowance returns the remaining amount spender may pull from owner.
func (b *Book) Allowance(token, owner, spender common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if byToken, ok := b.allowances[token]; ok {
		if byOwner, ok := byToken[owner]; ok {
			if a, ok := byOwner[spender]; ok {
				return new(big.Int).Set(a)
			}
		}
	}
	return new(big.Int)
}

// Transfer moves amount of token from one account to another.
func (b *Book) Transfer(token, from, to common.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(token, from, to, amount)
}

// TransferFrom moves amount of token from owner to recipient, consuming
// spender's allowance.
func (b *Book) TransferFrom(token, owner, spender, to common.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	allowance := b.allowanceLocked(token, owner, spender)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("allowance %s below requested %s", allowance, amount)
	}
	if err := b.move(token, owner, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

func (b *Book) allowanceLocked(token, owner, spender common.Address) *big.Int {
	if byToken, ok := b.allowances[token]; ok {
		if byOwner, ok := byToken[owner]; ok {
			if a, ok := byOwner[spender]; ok {
				return a
			}
		}
	}
	return new(big.Int)
}

func (b *Book) move(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid transfer amount")
	}
	if amount.Sign() == 0 {
		return nil
	}
	accounts, ok := b.balances[token]
	if !ok {
		return fmt.Errorf("balance %s below requested %s", "0", amount)
	}
	bal, ok := accounts[from]
	if !ok || bal.Cmp(amount) < 0 {
		have := new(big.Int)
		if ok {
			have = bal
		}
		return fmt.Errorf("balance %s below requested %s", have, amount)
	}
	bal.Sub(bal, amount)
	b.credit(token, to, amount)
	return nil
}

func (b *Book) credit(token, account common.Address, amount *big.Int) {
	accounts, ok := b.balances[token]
	if !ok {
		accounts = make(map[common.Address]*big.Int)
		b.balances[token] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = new(big.Int)
		accounts[account] = bal
	}
	bal.Add(bal, amount)
}
