// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/scrap"
)

// settlement is the outcome of settling the pending reward of a stake.
type settlement struct {
	pay    *big.Int
	unpaid *big.Int
}

// settle splits pending into what is paid now and what stays owed. Nothing is paid unless
// harvest is set, and never more than the reward balance held by the farm.
func (f *Farm) settle(pending *big.Int, harvest bool) (*settlement, error) {
	if !harvest || pending.Sign() == 0 {
		return &settlement{pay: new(big.Int), unpaid: pending}, nil
	}
	rt, err := f.rewardTokenContract()
	if err != nil {
		return nil, err
	}
	available, err := rt.BalanceOf(f.addr)
	if err != nil {
		return nil, err
	}
	pay := bn.Min(pending, available)
	return &settlement{
		pay:    pay,
		unpaid: new(big.Int).Sub(pending, pay),
	}, nil
}

func (f *Farm) payReward(pid uint64, to scrap.Address, s *settlement) error {
	if s.pay.Sign() == 0 {
		return nil
	}
	rt, err := f.rewardTokenContract()
	if err != nil {
		return err
	}
	if err := rt.Transfer(f.addr, to, s.pay); err != nil {
		return err
	}
	if s.unpaid.Sign() > 0 {
		logger.Warn("reward balance short, keeping remainder owed", "pid", pid, "user", to, "unpaid", s.unpaid)
	}
	return f.env.Emit(f.addr, "Claim", &stakeEvent{PoolID: pid, User: to, Amount: hex(s.pay)},
		scrap.Uint64ToBytes32(pid), scrap.AddressToBytes32(to))
}

// load accrues pool pid and returns it with the stake of user.
func (f *Farm) load(pid uint64, user scrap.Address) (*Pool, *UserStake, error) {
	pool, err := f.PoolInfo(pid)
	if err != nil {
		return nil, nil, err
	}
	e, err := f.emission()
	if err != nil {
		return nil, nil, err
	}
	if err := f.updatePool(pid, pool, e); err != nil {
		return nil, nil, err
	}
	u, err := f.getUser(pid, user)
	if err != nil {
		return nil, nil, err
	}
	return pool, u, nil
}

// Deposit stakes amount of the pool token pulled from caller, minus the deposit fee which goes
// to the fee address. The caller must have approved the farm for amount.
// A zero amount only accrues the pool and settles the pending reward.
func (f *Farm) Deposit(caller scrap.Address, pid uint64, amount *big.Int, harvest bool) (err error) {
	logger.Debug("depositing", "caller", caller, "pid", pid, "amount", amount, "harvest", harvest)
	defer func() {
		if err != nil {
			logger.Info("deposit failed", "pid", pid, "caller", caller, "error", err)
		}
	}()
	if !bn.InRange(amount) {
		return reverts.New(reverts.ErrInvalidParameter, "amount out of range")
	}

	pool, u, err := f.load(pid, caller)
	if err != nil {
		return err
	}
	pending, err := u.pending(pool.AccRewardPerShare)
	if err != nil {
		return err
	}
	s, err := f.settle(pending, harvest)
	if err != nil {
		return err
	}
	fee, err := bn.Bps(amount, pool.DepositFeeBps)
	if err != nil {
		return reverts.Arithmetic(err, "deposit fee")
	}
	net := new(big.Int).Sub(amount, fee)

	if u.Amount, err = bn.Add(u.Amount, net); err != nil {
		return reverts.Arithmetic(err, "deposit")
	}
	if pool.TotalStaked, err = bn.Add(pool.TotalStaked, net); err != nil {
		return reverts.Arithmetic(err, "deposit")
	}
	if err := u.resetDebt(pool.AccRewardPerShare); err != nil {
		return err
	}
	u.Unpaid = s.unpaid
	if err := f.setPool(pid, pool); err != nil {
		return err
	}
	if err := f.setUser(pid, caller, u); err != nil {
		return err
	}

	if err := f.payReward(pid, caller, s); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		value := token.New(pool.Token, f.env)
		if err := value.TransferFrom(f.addr, caller, f.addr, amount); err != nil {
			return errors.WithMessage(err, "pull deposit")
		}
		if fee.Sign() > 0 {
			feeAddress, err := f.feeAddress.Get()
			if err != nil {
				return err
			}
			if err := value.Transfer(f.addr, feeAddress, fee); err != nil {
				return errors.WithMessage(err, "forward deposit fee")
			}
		}
	}
	return f.env.Emit(f.addr, "Deposit", &stakeEvent{PoolID: pid, User: caller, Amount: hex(net)},
		scrap.Uint64ToBytes32(pid), scrap.AddressToBytes32(caller))
}

// Withdraw returns amount of the staked token to caller.
func (f *Farm) Withdraw(caller scrap.Address, pid uint64, amount *big.Int, harvest bool) (err error) {
	logger.Debug("withdrawing", "caller", caller, "pid", pid, "amount", amount, "harvest", harvest)
	defer func() {
		if err != nil {
			logger.Info("withdraw failed", "pid", pid, "caller", caller, "error", err)
		}
	}()
	if !bn.InRange(amount) {
		return reverts.New(reverts.ErrInvalidParameter, "amount out of range")
	}
	if _, err := f.PoolInfo(pid); err != nil {
		return err
	}
	staked, err := f.getUser(pid, caller)
	if err != nil {
		return err
	}
	if staked.Amount.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrInsufficientStake, "withdraw %v exceeds stake %v", amount, staked.Amount)
	}

	pool, u, err := f.load(pid, caller)
	if err != nil {
		return err
	}
	pending, err := u.pending(pool.AccRewardPerShare)
	if err != nil {
		return err
	}
	s, err := f.settle(pending, harvest)
	if err != nil {
		return err
	}
	u.Amount = new(big.Int).Sub(u.Amount, amount)
	if pool.TotalStaked, err = bn.Sub(pool.TotalStaked, amount); err != nil {
		return reverts.Arithmetic(err, "withdraw")
	}
	if err := u.resetDebt(pool.AccRewardPerShare); err != nil {
		return err
	}
	u.Unpaid = s.unpaid
	if err := f.setPool(pid, pool); err != nil {
		return err
	}
	if err := f.setUser(pid, caller, u); err != nil {
		return err
	}

	if err := f.payReward(pid, caller, s); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		if err := token.New(pool.Token, f.env).Transfer(f.addr, caller, amount); err != nil {
			return errors.WithMessage(err, "return stake")
		}
	}
	return f.env.Emit(f.addr, "Withdraw", &stakeEvent{PoolID: pid, User: caller, Amount: hex(amount)},
		scrap.Uint64ToBytes32(pid), scrap.AddressToBytes32(caller))
}

// Claim pays the whole pending reward of caller in pool pid. The stake is untouched.
func (f *Farm) Claim(caller scrap.Address, pid uint64) (paid *big.Int, err error) {
	logger.Debug("claiming", "caller", caller, "pid", pid)
	defer func() {
		if err != nil {
			logger.Info("claim failed", "pid", pid, "caller", caller, "error", err)
		}
	}()
	pool, u, err := f.load(pid, caller)
	if err != nil {
		return nil, err
	}
	pending, err := u.pending(pool.AccRewardPerShare)
	if err != nil {
		return nil, err
	}
	if u.Amount.Sign() == 0 && pending.Sign() == 0 {
		return nil, reverts.New(reverts.ErrInsufficientStake, "nothing to claim in pool %d", pid)
	}
	s, err := f.settle(pending, true)
	if err != nil {
		return nil, err
	}
	if err := u.resetDebt(pool.AccRewardPerShare); err != nil {
		return nil, err
	}
	u.Unpaid = s.unpaid
	if err := f.setUser(pid, caller, u); err != nil {
		return nil, err
	}
	if err := f.payReward(pid, caller, s); err != nil {
		return nil, err
	}
	return s.pay, nil
}

// EmergencyWithdraw returns the whole stake of caller and forfeits any reward. It neither
// accrues nor touches the reward token.
func (f *Farm) EmergencyWithdraw(caller scrap.Address, pid uint64) (amount *big.Int, err error) {
	logger.Debug("emergency withdrawing", "caller", caller, "pid", pid)
	pool, err := f.PoolInfo(pid)
	if err != nil {
		return nil, err
	}
	u, err := f.getUser(pid, caller)
	if err != nil {
		return nil, err
	}
	amount = u.Amount
	if pool.TotalStaked, err = bn.Sub(pool.TotalStaked, amount); err != nil {
		return nil, reverts.Arithmetic(err, "emergency withdraw")
	}
	if err := f.setPool(pid, pool); err != nil {
		return nil, err
	}
	if err := f.setUser(pid, caller, new(UserStake).normalize()); err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		if err := token.New(pool.Token, f.env).Transfer(f.addr, caller, amount); err != nil {
			logger.Warn("emergency withdraw failed", "pid", pid, "caller", caller, "error", err)
			return nil, errors.WithMessage(err, "return stake")
		}
	}
	logger.Info("emergency withdrawn", "pid", pid, "caller", caller, "amount", amount)
	return amount, f.env.Emit(f.addr, "EmergencyWithdraw", &stakeEvent{PoolID: pid, User: caller, Amount: hex(amount)},
		scrap.Uint64ToBytes32(pid), scrap.AddressToBytes32(caller))
}

// PendingReward returns what Claim would pay user right now, including the interval since the
// last accrual of the pool.
func (f *Farm) PendingReward(pid uint64, user scrap.Address) (*big.Int, error) {
	pool, err := f.PoolInfo(pid)
	if err != nil {
		return nil, err
	}
	e, err := f.emission()
	if err != nil {
		return nil, err
	}
	acc, err := e.projected(pool, f.env.BlockContext().Number)
	if err != nil {
		return nil, err
	}
	u, err := f.getUser(pid, user)
	if err != nil {
		return nil, err
	}
	return u.pending(acc)
}
