// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package farm implements the reward ledger. Depositors stake value tokens into pools and
// accrue a minted reward token in proportion to their share of the pool and elapsed blocks.
package farm

import (
	"encoding/binary"
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/solidity"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/metrics"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/xenv"
)

// MaxBonusMultiplier bounds the bonus multiplier so that weighted block counts fit 64 bits.
const MaxBonusMultiplier = 1_000_000

var (
	logger = log.WithContext("pkg", "farm")

	metricTotalStaked = metrics.LazyLoadGaugeVec("farm_total_staked", []string{"pid"})

	slotRewardToken     = solidity.Slot("farm-reward-token")
	slotRewardPerBlock  = solidity.Slot("farm-reward-per-block")
	slotStartBlock      = solidity.Slot("farm-start-block")
	slotBonusEndBlock   = solidity.Slot("farm-bonus-end-block")
	slotBonusMultiplier = solidity.Slot("farm-bonus-multiplier")
	slotFeeAddress      = solidity.Slot("farm-fee-address")
	slotOwner           = solidity.Slot("farm-owner")
	slotTotalWeight     = solidity.Slot("farm-total-weight")
	slotPools           = solidity.Slot("farm-pools")
	slotPoolTokens      = solidity.Slot("farm-pool-tokens")
	slotUsers           = solidity.Slot("farm-users")
)

// Config holds the construction parameters of a farm.
type Config struct {
	RewardToken     scrap.Address
	RewardPerBlock  *big.Int
	StartBlock      uint32
	BonusEndBlock   uint32
	BonusMultiplier uint64
	FeeAddress      scrap.Address
	Owner           scrap.Address
}

// Farm is the reward ledger bound to an address.
type Farm struct {
	addr scrap.Address
	env  *xenv.Environment

	rewardToken     *solidity.Raw[scrap.Address]
	rewardPerBlock  *solidity.Uint256
	startBlock      *solidity.Raw[uint32]
	bonusEndBlock   *solidity.Raw[uint32]
	bonusMultiplier *solidity.Raw[uint64]
	feeAddress      *solidity.Raw[scrap.Address]
	owner           *solidity.Raw[scrap.Address]
	totalWeight     *solidity.Raw[uint64]
	pools           *solidity.Array[*Pool]
	poolTokens      *solidity.Mapping[scrap.Address, bool]
	users           *solidity.Mapping[scrap.Bytes32, *UserStake]
}

func New(addr scrap.Address, env *xenv.Environment) *Farm {
	sctx := solidity.NewContext(addr, env.State())
	return &Farm{
		addr:            addr,
		env:             env,
		rewardToken:     solidity.NewRaw[scrap.Address](sctx, slotRewardToken),
		rewardPerBlock:  solidity.NewUint256(sctx, slotRewardPerBlock),
		startBlock:      solidity.NewRaw[uint32](sctx, slotStartBlock),
		bonusEndBlock:   solidity.NewRaw[uint32](sctx, slotBonusEndBlock),
		bonusMultiplier: solidity.NewRaw[uint64](sctx, slotBonusMultiplier),
		feeAddress:      solidity.NewRaw[scrap.Address](sctx, slotFeeAddress),
		owner:           solidity.NewRaw[scrap.Address](sctx, slotOwner),
		totalWeight:     solidity.NewRaw[uint64](sctx, slotTotalWeight),
		pools:           solidity.NewArray[*Pool](sctx, slotPools),
		poolTokens:      solidity.NewMapping[scrap.Address, bool](sctx, slotPoolTokens),
		users:           solidity.NewMapping[scrap.Bytes32, *UserStake](sctx, slotUsers),
	}
}

func (f *Farm) Address() scrap.Address {
	return f.addr
}

// Initialize stores the configuration. A farm is initialized once.
func (f *Farm) Initialize(cfg *Config) error {
	owner, err := f.owner.Get()
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "farm %v already initialized", f.addr)
	}
	switch {
	case cfg.Owner.IsZero():
		return reverts.New(reverts.ErrInvalidParameter, "owner is the zero address")
	case cfg.RewardToken.IsZero():
		return reverts.New(reverts.ErrInvalidParameter, "reward token is the zero address")
	case cfg.FeeAddress.IsZero():
		return reverts.New(reverts.ErrInvalidParameter, "fee address is the zero address")
	case cfg.RewardPerBlock == nil || !bn.InRange(cfg.RewardPerBlock):
		return reverts.New(reverts.ErrInvalidParameter, "reward per block out of range")
	case cfg.BonusMultiplier == 0 || cfg.BonusMultiplier > MaxBonusMultiplier:
		return reverts.New(reverts.ErrInvalidParameter, "bonus multiplier must be in [1, %d]", MaxBonusMultiplier)
	}

	if err := f.rewardToken.Set(cfg.RewardToken); err != nil {
		return err
	}
	if err := f.rewardPerBlock.Set(cfg.RewardPerBlock); err != nil {
		return err
	}
	if err := f.startBlock.Set(cfg.StartBlock); err != nil {
		return err
	}
	if err := f.bonusEndBlock.Set(cfg.BonusEndBlock); err != nil {
		return err
	}
	if err := f.bonusMultiplier.Set(cfg.BonusMultiplier); err != nil {
		return err
	}
	if err := f.feeAddress.Set(cfg.FeeAddress); err != nil {
		return err
	}
	return f.owner.Set(cfg.Owner)
}

// Params returns the current configuration.
func (f *Farm) Params() (*Config, error) {
	var (
		cfg Config
		err error
	)
	if cfg.RewardToken, err = f.rewardToken.Get(); err != nil {
		return nil, err
	}
	if cfg.RewardPerBlock, err = f.rewardPerBlock.Get(); err != nil {
		return nil, err
	}
	if cfg.StartBlock, err = f.startBlock.Get(); err != nil {
		return nil, err
	}
	if cfg.BonusEndBlock, err = f.bonusEndBlock.Get(); err != nil {
		return nil, err
	}
	if cfg.BonusMultiplier, err = f.bonusMultiplier.Get(); err != nil {
		return nil, err
	}
	if cfg.FeeAddress, err = f.feeAddress.Get(); err != nil {
		return nil, err
	}
	if cfg.Owner, err = f.owner.Get(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (f *Farm) emission() (*emission, error) {
	rate, err := f.rewardPerBlock.Get()
	if err != nil {
		return nil, err
	}
	bonusEnd, err := f.bonusEndBlock.Get()
	if err != nil {
		return nil, err
	}
	multiplier, err := f.bonusMultiplier.Get()
	if err != nil {
		return nil, err
	}
	total, err := f.totalWeight.Get()
	if err != nil {
		return nil, err
	}
	return &emission{
		rewardPerBlock:  rate,
		bonusEndBlock:   bonusEnd,
		bonusMultiplier: multiplier,
		totalWeight:     total,
	}, nil
}

// Multiplier returns the reward-weighted block count over [from, to).
func (f *Farm) Multiplier(from, to uint32) (uint64, error) {
	e, err := f.emission()
	if err != nil {
		return 0, err
	}
	return e.multiplier(from, to), nil
}

func (f *Farm) TotalAllocationWeight() (uint64, error) {
	return f.totalWeight.Get()
}

func (f *Farm) PoolLength() (uint64, error) {
	return f.pools.Len()
}

// PoolInfo returns the pool with the given id.
func (f *Farm) PoolInfo(pid uint64) (*Pool, error) {
	n, err := f.pools.Len()
	if err != nil {
		return nil, err
	}
	if pid >= n {
		return nil, reverts.New(reverts.ErrInvalidParameter, "unknown pool %d", pid)
	}
	pool, err := f.pools.Get(pid)
	if err != nil {
		return nil, err
	}
	if pool.AccRewardPerShare == nil {
		pool.AccRewardPerShare = new(big.Int)
	}
	if pool.TotalStaked == nil {
		pool.TotalStaked = new(big.Int)
	}
	return pool, nil
}

func userKey(pid uint64, user scrap.Address) scrap.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], pid)
	return scrap.Blake2b(b[:], user.Bytes())
}

// UserInfo returns the stake of user in pool pid.
func (f *Farm) UserInfo(pid uint64, user scrap.Address) (*UserStake, error) {
	if _, err := f.PoolInfo(pid); err != nil {
		return nil, err
	}
	return f.getUser(pid, user)
}

func (f *Farm) getUser(pid uint64, user scrap.Address) (*UserStake, error) {
	u, err := f.users.Get(userKey(pid, user))
	if err != nil {
		return nil, err
	}
	return u.normalize(), nil
}

func (f *Farm) setUser(pid uint64, user scrap.Address, u *UserStake) error {
	if u.IsEmpty() {
		f.users.Delete(userKey(pid, user))
		return nil
	}
	return f.users.Set(userKey(pid, user), u)
}

func (f *Farm) setPool(pid uint64, pool *Pool) error {
	if err := f.pools.Set(pid, pool); err != nil {
		return err
	}
	if pool.TotalStaked.IsInt64() {
		metricTotalStaked().SetWithLabel(pool.TotalStaked.Int64(), map[string]string{"pid": strconv.FormatUint(pid, 10)})
	}
	return nil
}

func (f *Farm) checkOwner(caller scrap.Address) error {
	owner, err := f.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.ErrUnauthorized, "caller is not the owner")
	}
	return nil
}

// rewardTokenContract returns the reward token bound to the same environment.
func (f *Farm) rewardTokenContract() (*token.Token, error) {
	addr, err := f.rewardToken.Get()
	if err != nil {
		return nil, err
	}
	return token.New(addr, f.env), nil
}

// updatePool accrues pool pid up to the current block and mints the reward to the farm.
func (f *Farm) updatePool(pid uint64, pool *Pool, e *emission) error {
	reward, err := e.accrue(pool, f.env.BlockContext().Number)
	if err != nil {
		return err
	}
	if err := f.setPool(pid, pool); err != nil {
		return err
	}
	if reward.Sign() == 0 {
		return nil
	}
	rt, err := f.rewardTokenContract()
	if err != nil {
		return err
	}
	if err := rt.Mint(f.addr, f.addr, reward); err != nil {
		return errors.WithMessagef(err, "mint reward of pool %d", pid)
	}
	return nil
}

// UpdatePool brings the accrual of pool pid up to the current block.
func (f *Farm) UpdatePool(pid uint64) error {
	pool, err := f.PoolInfo(pid)
	if err != nil {
		return err
	}
	e, err := f.emission()
	if err != nil {
		return err
	}
	return f.updatePool(pid, pool, e)
}

// MassUpdatePools accrues every pool.
func (f *Farm) MassUpdatePools() error {
	n, err := f.pools.Len()
	if err != nil {
		return err
	}
	for pid := uint64(0); pid < n; pid++ {
		if err := f.UpdatePool(pid); err != nil {
			return err
		}
	}
	return nil
}

// AddPool registers token as a new pool. Owner only.
// Unless withUpdate is set, pools keep their last accrual block and will apply the new total
// weight to the whole interval since then.
func (f *Farm) AddPool(caller, tk scrap.Address, weight, depositFeeBps uint64, withUpdate bool) (uint64, error) {
	logger.Debug("adding pool", "caller", caller, "token", tk, "weight", weight, "feeBps", depositFeeBps)
	if err := f.checkOwner(caller); err != nil {
		return 0, err
	}
	if depositFeeBps > scrap.MaxFeeBps {
		return 0, reverts.New(reverts.ErrInvalidParameter, "deposit fee %d bps exceeds %d", depositFeeBps, scrap.MaxFeeBps)
	}
	if tk.IsZero() {
		return 0, reverts.New(reverts.ErrInvalidParameter, "token is the zero address")
	}
	rewardToken, err := f.rewardToken.Get()
	if err != nil {
		return 0, err
	}
	if tk == rewardToken {
		return 0, reverts.New(reverts.ErrInvalidParameter, "reward token cannot be staked")
	}
	exists, err := f.poolTokens.Get(tk)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, reverts.New(reverts.ErrInvalidParameter, "token %v already has a pool", tk)
	}
	total, err := f.totalWeight.Get()
	if err != nil {
		return 0, err
	}
	if total+weight < total {
		return 0, reverts.New(reverts.ErrArithmeticOverflow, "total allocation weight")
	}

	if withUpdate {
		if err := f.MassUpdatePools(); err != nil {
			return 0, err
		}
	}
	start, err := f.startBlock.Get()
	if err != nil {
		return 0, err
	}
	last := max(f.env.BlockContext().Number, start)

	if err := f.totalWeight.Set(total + weight); err != nil {
		return 0, err
	}
	if err := f.poolTokens.Set(tk, true); err != nil {
		return 0, err
	}
	pid, err := f.pools.Append(&Pool{
		Token:             tk,
		Weight:            weight,
		DepositFeeBps:     depositFeeBps,
		LastAccrualBlock:  last,
		AccRewardPerShare: new(big.Int),
		TotalStaked:       new(big.Int),
	})
	if err != nil {
		return 0, err
	}
	logger.Info("added pool", "pid", pid, "token", tk)
	return pid, f.env.Emit(f.addr, "PoolAdded", &poolEvent{
		PoolID:        pid,
		Token:         tk,
		Weight:        weight,
		DepositFeeBps: depositFeeBps,
	}, scrap.Uint64ToBytes32(pid), scrap.AddressToBytes32(tk))
}

// SetAllocationWeight changes the weight of pool pid. Owner only.
func (f *Farm) SetAllocationWeight(caller scrap.Address, pid, weight uint64, withUpdate bool) error {
	logger.Debug("setting allocation weight", "caller", caller, "pid", pid, "weight", weight)
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	if withUpdate {
		if err := f.MassUpdatePools(); err != nil {
			return err
		}
	}
	pool, err := f.PoolInfo(pid)
	if err != nil {
		return err
	}
	total, err := f.totalWeight.Get()
	if err != nil {
		return err
	}
	total -= pool.Weight
	if total+weight < total {
		return reverts.New(reverts.ErrArithmeticOverflow, "total allocation weight")
	}
	if err := f.totalWeight.Set(total + weight); err != nil {
		return err
	}
	pool.Weight = weight
	if err := f.setPool(pid, pool); err != nil {
		return err
	}
	return f.emitPoolUpdated(pid, pool)
}

// SetDepositFee changes the deposit fee of pool pid. Owner only.
func (f *Farm) SetDepositFee(caller scrap.Address, pid, depositFeeBps uint64) error {
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	if depositFeeBps > scrap.MaxFeeBps {
		return reverts.New(reverts.ErrInvalidParameter, "deposit fee %d bps exceeds %d", depositFeeBps, scrap.MaxFeeBps)
	}
	pool, err := f.PoolInfo(pid)
	if err != nil {
		return err
	}
	pool.DepositFeeBps = depositFeeBps
	if err := f.setPool(pid, pool); err != nil {
		return err
	}
	return f.emitPoolUpdated(pid, pool)
}

func (f *Farm) emitPoolUpdated(pid uint64, pool *Pool) error {
	return f.env.Emit(f.addr, "PoolUpdated", &poolEvent{
		PoolID:        pid,
		Token:         pool.Token,
		Weight:        pool.Weight,
		DepositFeeBps: pool.DepositFeeBps,
	}, scrap.Uint64ToBytes32(pid), scrap.AddressToBytes32(pool.Token))
}

// SetFeeAddress rotates the deposit fee recipient. Only the current recipient may call it.
func (f *Farm) SetFeeAddress(caller, feeAddress scrap.Address) error {
	cur, err := f.feeAddress.Get()
	if err != nil {
		return err
	}
	if caller != cur {
		return reverts.New(reverts.ErrUnauthorized, "caller is not the fee address")
	}
	if feeAddress.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "fee address is the zero address")
	}
	if err := f.feeAddress.Set(feeAddress); err != nil {
		return err
	}
	return f.env.Emit(f.addr, "FeeAddressChanged", &addressChangedEvent{Old: cur, New: feeAddress},
		scrap.AddressToBytes32(feeAddress))
}

// SetOwner hands the owner role over. Owner only.
func (f *Farm) SetOwner(caller, owner scrap.Address) error {
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	if owner.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "owner is the zero address")
	}
	if err := f.owner.Set(owner); err != nil {
		return err
	}
	return f.env.Emit(f.addr, "OwnerChanged", &addressChangedEvent{Old: caller, New: owner},
		scrap.AddressToBytes32(owner))
}

// SetRewardPerBlock changes the emission rate. Every pool is accrued at the old rate first.
func (f *Farm) SetRewardPerBlock(caller scrap.Address, rate *big.Int) error {
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	if !bn.InRange(rate) {
		return reverts.New(reverts.ErrInvalidParameter, "reward per block out of range")
	}
	if err := f.MassUpdatePools(); err != nil {
		return err
	}
	if err := f.rewardPerBlock.Set(rate); err != nil {
		return err
	}
	return f.env.Emit(f.addr, "RewardPerBlockChanged", &amountEvent{Amount: hex(rate)})
}
