// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/solidity"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	logger = log.WithContext("pkg", "token")

	slotName       = solidity.Slot("token-name")
	slotSymbol     = solidity.Slot("token-symbol")
	slotAdmin      = solidity.Slot("token-admin")
	slotSupply     = solidity.Slot("token-supply")
	slotBalances   = solidity.Slot("token-balances")
	slotAllowances = solidity.Slot("token-allowances")
	slotMinters    = solidity.Slot("token-minters")
)

// Token is a fungible token with a minter gated supply.
// It keeps its storage under its own address, so any contract address can act as a token.
type Token struct {
	addr scrap.Address
	env  *xenv.Environment

	name       *solidity.Raw[string]
	symbol     *solidity.Raw[string]
	admin      *solidity.Raw[scrap.Address]
	supply     *solidity.Uint256
	balances   *solidity.Mapping[scrap.Address, *big.Int]
	allowances *solidity.Mapping[scrap.Bytes32, *big.Int]
	minters    *solidity.Mapping[scrap.Address, bool]
}

// New binds the token at addr. Events are logged into env.
func New(addr scrap.Address, env *xenv.Environment) *Token {
	sctx := solidity.NewContext(addr, env.State())
	return &Token{
		addr:       addr,
		env:        env,
		name:       solidity.NewRaw[string](sctx, slotName),
		symbol:     solidity.NewRaw[string](sctx, slotSymbol),
		admin:      solidity.NewRaw[scrap.Address](sctx, slotAdmin),
		supply:     solidity.NewUint256(sctx, slotSupply),
		balances:   solidity.NewMapping[scrap.Address, *big.Int](sctx, slotBalances),
		allowances: solidity.NewMapping[scrap.Bytes32, *big.Int](sctx, slotAllowances),
		minters:    solidity.NewMapping[scrap.Address, bool](sctx, slotMinters),
	}
}

func (t *Token) Address() scrap.Address {
	return t.addr
}

// Initialize sets the metadata and the admin. The admin is granted the minter role.
func (t *Token) Initialize(name, symbol string, admin scrap.Address) error {
	cur, err := t.admin.Get()
	if err != nil {
		return err
	}
	if !cur.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "token %v already initialized", t.addr)
	}
	if admin.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "admin is the zero address")
	}
	if err := t.name.Set(name); err != nil {
		return err
	}
	if err := t.symbol.Set(symbol); err != nil {
		return err
	}
	if err := t.admin.Set(admin); err != nil {
		return err
	}
	return t.minters.Set(admin, true)
}

func (t *Token) Name() (string, error) {
	return t.name.Get()
}

func (t *Token) Symbol() (string, error) {
	return t.symbol.Get()
}

func (t *Token) Admin() (scrap.Address, error) {
	return t.admin.Get()
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

func (t *Token) BalanceOf(addr scrap.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

func allowanceKey(owner, spender scrap.Address) scrap.Bytes32 {
	return scrap.Blake2b(owner.Bytes(), spender.Bytes())
}

func (t *Token) Allowance(owner, spender scrap.Address) (*big.Int, error) {
	return t.allowances.Get(allowanceKey(owner, spender))
}

func (t *Token) IsMinter(addr scrap.Address) (bool, error) {
	return t.minters.Get(addr)
}

func (t *Token) setBalance(addr scrap.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	return t.balances.Set(addr, amount)
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(from, to scrap.Address, amount *big.Int) error {
	if to.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "transfer to the zero address")
	}
	bal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrTransferFailed, "insufficient balance of %v: have %v, want %v", from, bal, amount)
	}
	if from != to && amount.Sign() > 0 {
		toBal, err := t.BalanceOf(to)
		if err != nil {
			return err
		}
		toBal, err = bn.Add(toBal, amount)
		if err != nil {
			return reverts.Arithmetic(err, "transfer")
		}
		if err := t.setBalance(from, new(big.Int).Sub(bal, amount)); err != nil {
			return err
		}
		if err := t.setBalance(to, toBal); err != nil {
			return err
		}
	}
	return t.emitTransfer(from, to, amount)
}

// Approve sets the amount spender may move out of owner's balance.
// An allowance of 2^256-1 is unlimited and never consumed.
func (t *Token) Approve(owner, spender scrap.Address, amount *big.Int) error {
	if spender.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "approve to the zero address")
	}
	if !bn.InRange(amount) {
		return reverts.New(reverts.ErrInvalidParameter, "allowance out of range")
	}
	key := allowanceKey(owner, spender)
	if amount.Sign() == 0 {
		t.allowances.Delete(key)
	} else if err := t.allowances.Set(key, amount); err != nil {
		return err
	}
	return t.emit("Approval", &approvalEvent{
		Owner:   owner,
		Spender: spender,
		Amount:  (*math.HexOrDecimal256)(amount),
	}, scrap.AddressToBytes32(owner), scrap.AddressToBytes32(spender))
}

// TransferFrom moves amount out of from's balance on behalf of spender.
func (t *Token) TransferFrom(spender, from, to scrap.Address, amount *big.Int) error {
	allowance, err := t.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrTransferFailed, "insufficient allowance of %v for %v: have %v, want %v", from, spender, allowance, amount)
	}
	if allowance.Cmp(scrap.MaxUint256) != 0 {
		key := allowanceKey(from, spender)
		if rest := new(big.Int).Sub(allowance, amount); rest.Sign() == 0 {
			t.allowances.Delete(key)
		} else if err := t.allowances.Set(key, rest); err != nil {
			return err
		}
	}
	return t.Transfer(from, to, amount)
}

// Mint creates amount for to. The caller must hold the minter role.
func (t *Token) Mint(caller, to scrap.Address, amount *big.Int) error {
	ok, err := t.IsMinter(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.ErrUnauthorized, "caller is not a minter")
	}
	if to.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "mint to the zero address")
	}
	return t.MintUnchecked(to, amount)
}

// MintUnchecked mints without the role check. Only the contract owning the token storage, such as
// a pair minting its shares, may call it. The zero address is a valid holder here.
func (t *Token) MintUnchecked(to scrap.Address, amount *big.Int) error {
	if _, err := t.supply.Add(amount); err != nil {
		if errors.Is(err, bn.ErrOverflow) {
			return reverts.Arithmetic(err, "mint")
		}
		return err
	}
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	bal, err = bn.Add(bal, amount)
	if err != nil {
		return reverts.Arithmetic(err, "mint")
	}
	if err := t.setBalance(to, bal); err != nil {
		return err
	}
	logger.Debug("minted", "token", t.addr, "to", to, "amount", amount)
	return t.emitTransfer(scrap.Address{}, to, amount)
}

// Burn destroys amount out of from's balance.
func (t *Token) Burn(from scrap.Address, amount *big.Int) error {
	bal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrTransferFailed, "burn amount exceeds balance of %v", from)
	}
	if err := t.setBalance(from, new(big.Int).Sub(bal, amount)); err != nil {
		return err
	}
	if _, err := t.supply.Sub(amount); err != nil {
		return errors.Wrap(err, "burn")
	}
	return t.emitTransfer(from, scrap.Address{}, amount)
}

func (t *Token) checkAdmin(caller scrap.Address) error {
	admin, err := t.admin.Get()
	if err != nil {
		return err
	}
	if admin != caller {
		return reverts.New(reverts.ErrUnauthorized, "caller is not the admin")
	}
	return nil
}

// GrantMinter gives account the minter role. Admin only.
func (t *Token) GrantMinter(caller, account scrap.Address) error {
	if err := t.checkAdmin(caller); err != nil {
		return err
	}
	if account.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "minter is the zero address")
	}
	if err := t.minters.Set(account, true); err != nil {
		return err
	}
	return t.emit("MinterGranted", &minterEvent{Account: account}, scrap.AddressToBytes32(account))
}

// RevokeMinter removes the minter role of account. Admin only.
func (t *Token) RevokeMinter(caller, account scrap.Address) error {
	if err := t.checkAdmin(caller); err != nil {
		return err
	}
	t.minters.Delete(account)
	return t.emit("MinterRevoked", &minterEvent{Account: account}, scrap.AddressToBytes32(account))
}

type transferEvent struct {
	From   scrap.Address         `json:"from"`
	To     scrap.Address         `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type approvalEvent struct {
	Owner   scrap.Address         `json:"owner"`
	Spender scrap.Address         `json:"spender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type minterEvent struct {
	Account scrap.Address `json:"account"`
}

func (t *Token) emitTransfer(from, to scrap.Address, amount *big.Int) error {
	return t.emit("Transfer", &transferEvent{
		From:   from,
		To:     to,
		Amount: (*math.HexOrDecimal256)(amount),
	}, scrap.AddressToBytes32(from), scrap.AddressToBytes32(to))
}

func (t *Token) emit(name string, body any, topics ...scrap.Bytes32) error {
	return t.env.Emit(t.addr, name, body, topics...)
}
