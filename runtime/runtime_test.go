// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	admin = scrap.BytesToAddress([]byte("admin"))
	alice = scrap.BytesToAddress([]byte("alice"))
	bob   = scrap.BytesToAddress([]byte("bob"))
)

type transferArgs struct {
	To     scrap.Address         `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func amount(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

func newRuntime(t *testing.T) (*runtime.Runtime, *token.Token) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	block := &xenv.BlockContext{Number: 7, Time: 1000}

	addr := builtin.TokenAddress("AAA")
	tk, err := builtin.DeployToken(xenv.New(st, block, nil, addr, nil), addr, "Token A", "AAA", admin)
	require.NoError(t, err)
	require.NoError(t, tk.Mint(admin, alice, big.NewInt(100)))
	return runtime.New(st, block), tk
}

func balance(t *testing.T, tk *token.Token, addr scrap.Address) string {
	bal, err := tk.BalanceOf(addr)
	require.NoError(t, err)
	return bal.String()
}

func TestExecuteTransaction(t *testing.T) {
	rt, tk := newRuntime(t)
	transfer := tx.NewClause(tk.Address(), "transfer")

	trx := tx.New(alice, 1,
		transfer.MustWithArgs(&transferArgs{bob, amount(30)}),
		transfer.MustWithArgs(&transferArgs{admin, amount(20)}),
	)
	receipt, err := rt.ExecuteTransaction(trx)
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)
	assert.Equal(t, trx.ID(), receipt.TxID)
	assert.Equal(t, alice, receipt.Origin)
	assert.Equal(t, uint32(7), receipt.BlockNumber)
	assert.Len(t, receipt.Outputs, 2)
	assert.Len(t, receipt.Events.Filter(func(ev *tx.Event) bool { return ev.Name == "Transfer" }), 2)

	assert.Equal(t, "50", balance(t, tk, alice))
	assert.Equal(t, "30", balance(t, tk, bob))
	assert.Equal(t, "20", balance(t, tk, admin))
}

func TestExecuteTransactionAllOrNone(t *testing.T) {
	rt, tk := newRuntime(t)
	transfer := tx.NewClause(tk.Address(), "transfer")

	receipt, err := rt.ExecuteTransaction(tx.New(alice, 1,
		transfer.MustWithArgs(&transferArgs{bob, amount(60)}),
		transfer.MustWithArgs(&transferArgs{bob, amount(60)}),
	))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Contains(t, receipt.Error, "clause #1")
	assert.Nil(t, receipt.Outputs)
	assert.Empty(t, receipt.Events)

	assert.Equal(t, "100", balance(t, tk, alice))
	assert.Equal(t, "0", balance(t, tk, bob))

	receipt, err = rt.ExecuteTransaction(tx.New(alice, 2, tx.NewClause(tk.Address(), "swap")))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Contains(t, receipt.Error, runtime.ErrMethodNotFound.Error())

	receipt, err = rt.ExecuteTransaction(tx.New(alice, 3, tx.NewClause(bob, "transfer")))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
}

func TestExecuteClause(t *testing.T) {
	rt, tk := newRuntime(t)
	transfer := tx.NewClause(tk.Address(), "transfer")

	out := rt.ExecuteClause(transfer.MustWithArgs(&transferArgs{bob, amount(101)}), alice)
	assert.ErrorIs(t, out.Err, reverts.ErrTransferFailed)
	assert.Empty(t, out.Events)

	out = rt.ExecuteClause(transfer.MustWithArgs(&transferArgs{bob, amount(1)}), alice)
	require.NoError(t, out.Err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "Transfer", out.Events[0].Name)

	out = rt.Call(tx.NewClause(tk.Address(), "balanceOf").MustWithArgs(map[string]any{"owner": bob}), bob)
	require.NoError(t, out.Err)
	assert.Equal(t, `"0x1"`, string(out.Data))
}

func TestResolveTransaction(t *testing.T) {
	to := builtin.TokenAddress("AAA")
	tests := []struct {
		name string
		trx  *tx.Transaction
		ok   bool
	}{
		{"valid", tx.New(alice, 0, tx.NewClause(to, "transfer")), true},
		{"zero origin", tx.New(scrap.Address{}, 0, tx.NewClause(to, "transfer")), false},
		{"no clause", tx.New(alice, 0), false},
		{"zero to", tx.New(alice, 0, tx.NewClause(scrap.Address{}, "transfer")), false},
		{"no method", tx.New(alice, 0, tx.NewClause(to, "")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := runtime.ResolveTransaction(tt.trx)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, &to, resolved.CommonTo())
			} else {
				assert.Error(t, err)
			}
		})
	}

	clauses := make([]*tx.Clause, runtime.MaxClauses+1)
	for i := range clauses {
		clauses[i] = tx.NewClause(to, "transfer")
	}
	_, err := runtime.ResolveTransaction(tx.New(alice, 0, clauses...))
	assert.Error(t, err)
}
