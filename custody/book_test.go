package custody

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenX = common.HexToAddress("0x01")
	alice  = common.HexToAddress("0xA1")
	bob    = common.HexToAddress("0xB1")
	carol  = common.HexToAddress("0xC1")
)

func TestBookTransfer(t *testing.T) {
	book := NewBook()
	book.Mint(tokenX, alice, big.NewInt(1000))

	require.NoError(t, book.Transfer(tokenX, alice, bob, big.NewInt(400)))
	assert.Equal(t, "600", book.BalanceOf(tokenX, alice).String())
	assert.Equal(t, "400", book.BalanceOf(tokenX, bob).String())

	// Overdraw fails and leaves balances untouched.
	err := book.Transfer(tokenX, alice, bob, big.NewInt(601))
	require.Error(t, err)
	assert.Equal(t, "600", book.BalanceOf(tokenX, alice).String())
}

func TestBookTransferFrom(t *testing.T) {
	book := NewBook()
	book.Mint(tokenX, alice, big.NewInt(1000))
	book.Approve(tokenX, alice, bob, big.NewInt(500))

	require.NoError(t, book.TransferFrom(tokenX, alice, bob, carol, big.NewInt(300)))
	assert.Equal(t, "300", book.BalanceOf(tokenX, carol).String())
	assert.Equal(t, "200", book.Allowance(tokenX, alice, bob).String())

	// Remaining allowance is insufficient.
	err := book.TransferFrom(tokenX, alice, bob, carol, big.NewInt(201))
	require.Error(t, err)
	assert.Equal(t, "300", book.BalanceOf(tokenX, carol).String())
}

func TestBookZeroValues(t *testing.T) {
	book := NewBook()
	assert.Equal(t, "0", book.BalanceOf(tokenX, alice).String())
	assert.Equal(t, "0", book.Allowance(tokenX, alice, bob).String())

	// Zero-amount transfer is a no-op, not an error.
	require.NoError(t, book.Transfer(tokenX, alice, bob, big.NewInt(0)))
}
