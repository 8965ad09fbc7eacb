// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"math/big"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/scrap"
)

// Pool is a registered value token earning a share of the emission.
type Pool struct {
	Token             scrap.Address
	Weight            uint64
	DepositFeeBps     uint64
	LastAccrualBlock  uint32
	AccRewardPerShare *big.Int
	TotalStaked       *big.Int
}

// UserStake is the position of one depositor in one pool.
// Unpaid holds reward settled but not transferred yet.
type UserStake struct {
	Amount     *big.Int
	RewardDebt *big.Int
	Unpaid     *big.Int
}

func (u *UserStake) normalize() *UserStake {
	if u.Amount == nil {
		u.Amount = new(big.Int)
	}
	if u.RewardDebt == nil {
		u.RewardDebt = new(big.Int)
	}
	if u.Unpaid == nil {
		u.Unpaid = new(big.Int)
	}
	return u
}

// IsEmpty reports whether the stake holds nothing and is owed nothing.
func (u *UserStake) IsEmpty() bool {
	return u.Amount.Sign() == 0 && u.RewardDebt.Sign() == 0 && u.Unpaid.Sign() == 0
}

// pending returns amount * acc / Precision - rewardDebt + unpaid.
func (u *UserStake) pending(acc *big.Int) (*big.Int, error) {
	accrued, err := bn.Accrued(u.Amount, acc)
	if err != nil {
		return nil, reverts.Arithmetic(err, "pending reward")
	}
	owed, err := bn.Sub(accrued, u.RewardDebt)
	if err != nil {
		return nil, reverts.Arithmetic(err, "pending reward")
	}
	if owed, err = bn.Add(owed, u.Unpaid); err != nil {
		return nil, reverts.Arithmetic(err, "pending reward")
	}
	return owed, nil
}

// resetDebt snapshots the stake against acc, so that only later accrual is owed.
func (u *UserStake) resetDebt(acc *big.Int) error {
	debt, err := bn.Accrued(u.Amount, acc)
	if err != nil {
		return reverts.Arithmetic(err, "reward debt")
	}
	u.RewardDebt = debt
	return nil
}

// emission describes the reward schedule shared by all pools.
type emission struct {
	rewardPerBlock  *big.Int
	bonusEndBlock   uint32
	bonusMultiplier uint64
	totalWeight     uint64
}

// multiplier returns the number of reward-weighted blocks in [from, to).
// Blocks before bonusEndBlock count bonusMultiplier times.
func (e *emission) multiplier(from, to uint32) uint64 {
	if to <= from {
		return 0
	}
	switch {
	case to <= e.bonusEndBlock:
		return uint64(to-from) * e.bonusMultiplier
	case from >= e.bonusEndBlock:
		return uint64(to - from)
	default:
		return uint64(e.bonusEndBlock-from)*e.bonusMultiplier + uint64(to-e.bonusEndBlock)
	}
}

// reward returns the emission of pool over [pool.LastAccrualBlock, number).
func (e *emission) reward(pool *Pool, number uint32) (*big.Int, error) {
	blocks := e.multiplier(pool.LastAccrualBlock, number)
	reward, err := bn.Emission(blocks, e.rewardPerBlock, pool.Weight, e.totalWeight)
	if err != nil {
		return nil, reverts.Arithmetic(err, "emission")
	}
	return reward, nil
}

// accrue materializes the reward of pool up to number and returns the amount to mint.
// Pools without stake only move their accrual block.
func (e *emission) accrue(pool *Pool, number uint32) (*big.Int, error) {
	if number <= pool.LastAccrualBlock {
		return new(big.Int), nil
	}
	if pool.TotalStaked.Sign() == 0 {
		pool.LastAccrualBlock = number
		return new(big.Int), nil
	}
	reward, err := e.reward(pool, number)
	if err != nil {
		return nil, err
	}
	if reward.Sign() > 0 {
		perShare, err := bn.PerShare(reward, pool.TotalStaked)
		if err != nil {
			return nil, reverts.Arithmetic(err, "reward per share")
		}
		acc, err := bn.Add(pool.AccRewardPerShare, perShare)
		if err != nil {
			return nil, reverts.Arithmetic(err, "reward per share")
		}
		pool.AccRewardPerShare = acc
	}
	pool.LastAccrualBlock = number
	return reward, nil
}

// projected returns the accumulator pool would have after accruing up to number, without
// touching pool.
func (e *emission) projected(pool *Pool, number uint32) (*big.Int, error) {
	shadow := *pool
	if _, err := e.accrue(&shadow, number); err != nil {
		return nil, err
	}
	return shadow.AccRewardPerShare, nil
}
