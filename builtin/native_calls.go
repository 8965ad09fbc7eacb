// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scrapyard/scrapmaster/builtin/farm"
	"github.com/scrapyard/scrapmaster/builtin/pair"
	"github.com/scrapyard/scrapmaster/builtin/recycler"
	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/xenv"
)

func init() {
	initTokenMethods()
	initPairMethods()
	initFactoryMethods()
	initFarmMethods()
	initRecyclerMethods()
}

// tokenMethods are shared by tokens and pair shares.
func tokenMethods() (reads, writes []methodDefine) {
	reads = []methodDefine{
		{"name", func(env *xenv.Environment) any {
			name, err := token.New(env.To(), env).Name()
			check(env, err)
			return name
		}},
		{"symbol", func(env *xenv.Environment) any {
			symbol, err := token.New(env.To(), env).Symbol()
			check(env, err)
			return symbol
		}},
		{"totalSupply", func(env *xenv.Environment) any {
			supply, err := token.New(env.To(), env).TotalSupply()
			check(env, err)
			return hex(supply)
		}},
		{"balanceOf", func(env *xenv.Environment) any {
			var args struct {
				Owner scrap.Address `json:"owner"`
			}
			env.ParseArgs(&args)
			bal, err := token.New(env.To(), env).BalanceOf(args.Owner)
			check(env, err)
			return hex(bal)
		}},
		{"allowance", func(env *xenv.Environment) any {
			var args struct {
				Owner   scrap.Address `json:"owner"`
				Spender scrap.Address `json:"spender"`
			}
			env.ParseArgs(&args)
			allowance, err := token.New(env.To(), env).Allowance(args.Owner, args.Spender)
			check(env, err)
			return hex(allowance)
		}},
	}
	writes = []methodDefine{
		{"transfer", func(env *xenv.Environment) any {
			var args struct {
				To     scrap.Address         `json:"to"`
				Amount *math.HexOrDecimal256 `json:"amount"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).Transfer(env.Caller(), args.To, amountArg(env, args.Amount, "amount")))
			return nil
		}},
		{"approve", func(env *xenv.Environment) any {
			var args struct {
				Spender scrap.Address         `json:"spender"`
				Amount  *math.HexOrDecimal256 `json:"amount"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).Approve(env.Caller(), args.Spender, amountArg(env, args.Amount, "amount")))
			return nil
		}},
		{"transferFrom", func(env *xenv.Environment) any {
			var args struct {
				From   scrap.Address         `json:"from"`
				To     scrap.Address         `json:"to"`
				Amount *math.HexOrDecimal256 `json:"amount"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).TransferFrom(env.Caller(), args.From, args.To, amountArg(env, args.Amount, "amount")))
			return nil
		}},
	}
	return
}

func initTokenMethods() {
	reads, writes := tokenMethods()
	reads = append(reads,
		methodDefine{"admin", func(env *xenv.Environment) any {
			admin, err := token.New(env.To(), env).Admin()
			check(env, err)
			return admin
		}},
		methodDefine{"isMinter", func(env *xenv.Environment) any {
			var args struct {
				Account scrap.Address `json:"account"`
			}
			env.ParseArgs(&args)
			ok, err := token.New(env.To(), env).IsMinter(args.Account)
			check(env, err)
			return ok
		}},
	)
	writes = append(writes,
		methodDefine{"mint", func(env *xenv.Environment) any {
			var args struct {
				To     scrap.Address         `json:"to"`
				Amount *math.HexOrDecimal256 `json:"amount"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).Mint(env.Caller(), args.To, amountArg(env, args.Amount, "amount")))
			return nil
		}},
		methodDefine{"burn", func(env *xenv.Environment) any {
			var args struct {
				Amount *math.HexOrDecimal256 `json:"amount"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).Burn(env.Caller(), amountArg(env, args.Amount, "amount")))
			return nil
		}},
		methodDefine{"grantMinter", func(env *xenv.Environment) any {
			var args struct {
				Account scrap.Address `json:"account"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).GrantMinter(env.Caller(), args.Account))
			return nil
		}},
		methodDefine{"revokeMinter", func(env *xenv.Environment) any {
			var args struct {
				Account scrap.Address `json:"account"`
			}
			env.ParseArgs(&args)
			check(env, token.New(env.To(), env).RevokeMinter(env.Caller(), args.Account))
			return nil
		}},
	)
	register(registry.KindToken, true, reads)
	register(registry.KindToken, false, writes)
}

// Reserves is the output of the pair getReserves method.
type Reserves struct {
	Token0    scrap.Address         `json:"token0"`
	Token1    scrap.Address         `json:"token1"`
	Reserve0  *math.HexOrDecimal256 `json:"reserve0"`
	Reserve1  *math.HexOrDecimal256 `json:"reserve1"`
	BlockLast uint32                `json:"blockLast"`
}

// ReadReserves collects the reserves of p.
func ReadReserves(p *pair.Pair) (*Reserves, error) {
	token0, err := p.Token0()
	if err != nil {
		return nil, err
	}
	token1, err := p.Token1()
	if err != nil {
		return nil, err
	}
	r0, r1, last, err := p.Reserves()
	if err != nil {
		return nil, err
	}
	return &Reserves{
		Token0:    token0,
		Token1:    token1,
		Reserve0:  hex(r0),
		Reserve1:  hex(r1),
		BlockLast: last,
	}, nil
}

// pair burn redeems the shares sent to the pair, holders do not burn shares directly
func initPairMethods() {
	reads, writes := tokenMethods()
	reads = append(reads,
		methodDefine{"getReserves", func(env *xenv.Environment) any {
			res, err := ReadReserves(pair.New(env.To(), env))
			check(env, err)
			return res
		}},
		methodDefine{"kLast", func(env *xenv.Environment) any {
			k, err := pair.New(env.To(), env).KLast()
			check(env, err)
			return hex(k)
		}},
	)
	writes = append(writes,
		methodDefine{"mint", func(env *xenv.Environment) any {
			var args struct {
				To scrap.Address `json:"to"`
			}
			env.ParseArgs(&args)
			liquidity, err := pair.New(env.To(), env).Mint(args.To)
			check(env, err)
			return hex(liquidity)
		}},
		methodDefine{"burn", func(env *xenv.Environment) any {
			var args struct {
				To scrap.Address `json:"to"`
			}
			env.ParseArgs(&args)
			a0, a1, err := pair.New(env.To(), env).Burn(args.To)
			check(env, err)
			return &struct {
				Amount0 *math.HexOrDecimal256 `json:"amount0"`
				Amount1 *math.HexOrDecimal256 `json:"amount1"`
			}{hex(a0), hex(a1)}
		}},
		methodDefine{"swap", func(env *xenv.Environment) any {
			var args struct {
				Amount0Out *math.HexOrDecimal256 `json:"amount0Out"`
				Amount1Out *math.HexOrDecimal256 `json:"amount1Out"`
				To         scrap.Address         `json:"to"`
			}
			env.ParseArgs(&args)
			check(env, pair.New(env.To(), env).Swap(
				amountArg(env, args.Amount0Out, "amount0Out"),
				amountArg(env, args.Amount1Out, "amount1Out"),
				args.To,
			))
			return nil
		}},
		methodDefine{"skim", func(env *xenv.Environment) any {
			var args struct {
				To scrap.Address `json:"to"`
			}
			env.ParseArgs(&args)
			check(env, pair.New(env.To(), env).Skim(args.To))
			return nil
		}},
		methodDefine{"sync", func(env *xenv.Environment) any {
			check(env, pair.New(env.To(), env).Sync())
			return nil
		}},
	)
	register(registry.KindPair, true, reads)
	register(registry.KindPair, false, writes)
}

func initFactoryMethods() {
	register(registry.KindFactory, true, []methodDefine{
		{"feeTo", func(env *xenv.Environment) any {
			feeTo, err := pair.NewFactory(env.To(), env).FeeTo()
			check(env, err)
			return feeTo
		}},
		{"feeToSetter", func(env *xenv.Environment) any {
			setter, err := pair.NewFactory(env.To(), env).FeeToSetter()
			check(env, err)
			return setter
		}},
		{"getPair", func(env *xenv.Environment) any {
			var args struct {
				TokenA scrap.Address `json:"tokenA"`
				TokenB scrap.Address `json:"tokenB"`
			}
			env.ParseArgs(&args)
			addr, err := pair.NewFactory(env.To(), env).GetPair(args.TokenA, args.TokenB)
			check(env, err)
			return addr
		}},
		{"allPairs", func(env *xenv.Environment) any {
			all, err := pair.NewFactory(env.To(), env).AllPairs()
			check(env, err)
			if all == nil {
				all = []scrap.Address{}
			}
			return all
		}},
	})
	register(registry.KindFactory, false, []methodDefine{
		{"setFeeTo", func(env *xenv.Environment) any {
			var args struct {
				FeeTo scrap.Address `json:"feeTo"`
			}
			env.ParseArgs(&args)
			check(env, pair.NewFactory(env.To(), env).SetFeeTo(env.Caller(), args.FeeTo))
			return nil
		}},
		{"setFeeToSetter", func(env *xenv.Environment) any {
			var args struct {
				FeeToSetter scrap.Address `json:"feeToSetter"`
			}
			env.ParseArgs(&args)
			check(env, pair.NewFactory(env.To(), env).SetFeeToSetter(env.Caller(), args.FeeToSetter))
			return nil
		}},
		{"createPair", func(env *xenv.Environment) any {
			var args struct {
				TokenA scrap.Address `json:"tokenA"`
				TokenB scrap.Address `json:"tokenB"`
			}
			env.ParseArgs(&args)
			addr, err := pair.NewFactory(env.To(), env).CreatePair(args.TokenA, args.TokenB)
			check(env, err)
			return addr
		}},
	})
}

// PoolJSON is the json form of a farm pool.
type PoolJSON struct {
	PID               uint64                `json:"pid"`
	Token             scrap.Address         `json:"token"`
	Weight            uint64                `json:"weight"`
	DepositFeeBps     uint64                `json:"depositFeeBps"`
	LastAccrualBlock  uint32                `json:"lastAccrualBlock"`
	AccRewardPerShare *math.HexOrDecimal256 `json:"accRewardPerShare"`
	TotalStaked       *math.HexOrDecimal256 `json:"totalStaked"`
}

func NewPoolJSON(pid uint64, p *farm.Pool) *PoolJSON {
	return &PoolJSON{
		PID:               pid,
		Token:             p.Token,
		Weight:            p.Weight,
		DepositFeeBps:     p.DepositFeeBps,
		LastAccrualBlock:  p.LastAccrualBlock,
		AccRewardPerShare: hex(p.AccRewardPerShare),
		TotalStaked:       hex(p.TotalStaked),
	}
}

// StakeJSON is the json form of a user position, with the reward claimable now.
type StakeJSON struct {
	Amount     *math.HexOrDecimal256 `json:"amount"`
	RewardDebt *math.HexOrDecimal256 `json:"rewardDebt"`
	Unpaid     *math.HexOrDecimal256 `json:"unpaid"`
	Pending    *math.HexOrDecimal256 `json:"pending"`
}

// ReadStake collects the position of user in pool pid.
func ReadStake(f *farm.Farm, pid uint64, user scrap.Address) (*StakeJSON, error) {
	stake, err := f.UserInfo(pid, user)
	if err != nil {
		return nil, err
	}
	pending, err := f.PendingReward(pid, user)
	if err != nil {
		return nil, err
	}
	return &StakeJSON{
		Amount:     hex(stake.Amount),
		RewardDebt: hex(stake.RewardDebt),
		Unpaid:     hex(stake.Unpaid),
		Pending:    hex(pending),
	}, nil
}

// FarmParamsJSON is the json form of the farm configuration.
type FarmParamsJSON struct {
	RewardToken           scrap.Address         `json:"rewardToken"`
	RewardPerBlock        *math.HexOrDecimal256 `json:"rewardPerBlock"`
	StartBlock            uint32                `json:"startBlock"`
	BonusEndBlock         uint32                `json:"bonusEndBlock"`
	BonusMultiplier       uint64                `json:"bonusMultiplier"`
	FeeAddress            scrap.Address         `json:"feeAddress"`
	Owner                 scrap.Address         `json:"owner"`
	TotalAllocationWeight uint64                `json:"totalAllocationWeight"`
	PoolLength            uint64                `json:"poolLength"`
}

// ReadFarmParams collects the configuration of f.
func ReadFarmParams(f *farm.Farm) (*FarmParamsJSON, error) {
	cfg, err := f.Params()
	if err != nil {
		return nil, err
	}
	total, err := f.TotalAllocationWeight()
	if err != nil {
		return nil, err
	}
	n, err := f.PoolLength()
	if err != nil {
		return nil, err
	}
	return &FarmParamsJSON{
		RewardToken:           cfg.RewardToken,
		RewardPerBlock:        hex(cfg.RewardPerBlock),
		StartBlock:            cfg.StartBlock,
		BonusEndBlock:         cfg.BonusEndBlock,
		BonusMultiplier:       cfg.BonusMultiplier,
		FeeAddress:            cfg.FeeAddress,
		Owner:                 cfg.Owner,
		TotalAllocationWeight: total,
		PoolLength:            n,
	}, nil
}

func initFarmMethods() {
	type poolArgs struct {
		PID uint64 `json:"pid"`
	}
	type stakeArgs struct {
		PID     uint64                `json:"pid"`
		Amount  *math.HexOrDecimal256 `json:"amount"`
		Harvest bool                  `json:"harvest"`
	}
	register(registry.KindFarm, true, []methodDefine{
		{"params", func(env *xenv.Environment) any {
			params, err := ReadFarmParams(farm.New(env.To(), env))
			check(env, err)
			return params
		}},
		{"poolLength", func(env *xenv.Environment) any {
			n, err := farm.New(env.To(), env).PoolLength()
			check(env, err)
			return n
		}},
		{"poolInfo", func(env *xenv.Environment) any {
			var args poolArgs
			env.ParseArgs(&args)
			p, err := farm.New(env.To(), env).PoolInfo(args.PID)
			check(env, err)
			return NewPoolJSON(args.PID, p)
		}},
		{"userInfo", func(env *xenv.Environment) any {
			var args struct {
				PID  uint64        `json:"pid"`
				User scrap.Address `json:"user"`
			}
			env.ParseArgs(&args)
			stake, err := ReadStake(farm.New(env.To(), env), args.PID, args.User)
			check(env, err)
			return stake
		}},
		{"pendingReward", func(env *xenv.Environment) any {
			var args struct {
				PID  uint64        `json:"pid"`
				User scrap.Address `json:"user"`
			}
			env.ParseArgs(&args)
			pending, err := farm.New(env.To(), env).PendingReward(args.PID, args.User)
			check(env, err)
			return hex(pending)
		}},
		{"multiplier", func(env *xenv.Environment) any {
			var args struct {
				From uint32 `json:"from"`
				To   uint32 `json:"to"`
			}
			env.ParseArgs(&args)
			m, err := farm.New(env.To(), env).Multiplier(args.From, args.To)
			check(env, err)
			return m
		}},
		{"totalAllocationWeight", func(env *xenv.Environment) any {
			total, err := farm.New(env.To(), env).TotalAllocationWeight()
			check(env, err)
			return total
		}},
	})
	register(registry.KindFarm, false, []methodDefine{
		{"addPool", func(env *xenv.Environment) any {
			var args struct {
				Token         scrap.Address `json:"token"`
				Weight        uint64        `json:"weight"`
				DepositFeeBps uint64        `json:"depositFeeBps"`
				WithUpdate    bool          `json:"withUpdate"`
			}
			env.ParseArgs(&args)
			pid, err := farm.New(env.To(), env).AddPool(env.Caller(), args.Token, args.Weight, args.DepositFeeBps, args.WithUpdate)
			check(env, err)
			return pid
		}},
		{"setAllocationWeight", func(env *xenv.Environment) any {
			var args struct {
				PID        uint64 `json:"pid"`
				Weight     uint64 `json:"weight"`
				WithUpdate bool   `json:"withUpdate"`
			}
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).SetAllocationWeight(env.Caller(), args.PID, args.Weight, args.WithUpdate))
			return nil
		}},
		{"setDepositFee", func(env *xenv.Environment) any {
			var args struct {
				PID           uint64 `json:"pid"`
				DepositFeeBps uint64 `json:"depositFeeBps"`
			}
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).SetDepositFee(env.Caller(), args.PID, args.DepositFeeBps))
			return nil
		}},
		{"setFeeAddress", func(env *xenv.Environment) any {
			var args struct {
				FeeAddress scrap.Address `json:"feeAddress"`
			}
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).SetFeeAddress(env.Caller(), args.FeeAddress))
			return nil
		}},
		{"setOwner", func(env *xenv.Environment) any {
			var args struct {
				Owner scrap.Address `json:"owner"`
			}
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).SetOwner(env.Caller(), args.Owner))
			return nil
		}},
		{"setRewardPerBlock", func(env *xenv.Environment) any {
			var args struct {
				RewardPerBlock *math.HexOrDecimal256 `json:"rewardPerBlock"`
			}
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).SetRewardPerBlock(env.Caller(), amountArg(env, args.RewardPerBlock, "rewardPerBlock")))
			return nil
		}},
		{"updatePool", func(env *xenv.Environment) any {
			var args poolArgs
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).UpdatePool(args.PID))
			return nil
		}},
		{"massUpdatePools", func(env *xenv.Environment) any {
			check(env, farm.New(env.To(), env).MassUpdatePools())
			return nil
		}},
		{"deposit", func(env *xenv.Environment) any {
			var args stakeArgs
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).Deposit(env.Caller(), args.PID, amountArg(env, args.Amount, "amount"), args.Harvest))
			return nil
		}},
		{"withdraw", func(env *xenv.Environment) any {
			var args stakeArgs
			env.ParseArgs(&args)
			check(env, farm.New(env.To(), env).Withdraw(env.Caller(), args.PID, amountArg(env, args.Amount, "amount"), args.Harvest))
			return nil
		}},
		{"claim", func(env *xenv.Environment) any {
			var args poolArgs
			env.ParseArgs(&args)
			paid, err := farm.New(env.To(), env).Claim(env.Caller(), args.PID)
			check(env, err)
			return hex(paid)
		}},
		{"emergencyWithdraw", func(env *xenv.Environment) any {
			var args poolArgs
			env.ParseArgs(&args)
			amount, err := farm.New(env.To(), env).EmergencyWithdraw(env.Caller(), args.PID)
			check(env, err)
			return hex(amount)
		}},
	})
}

// RecycleJSON is the json form of a recycle outcome.
type RecycleJSON struct {
	Shares    *math.HexOrDecimal256 `json:"shares"`
	Main      *math.HexOrDecimal256 `json:"main"`
	Base      *math.HexOrDecimal256 `json:"base"`
	Converted []*ConversionJSON     `json:"converted"`
	Skipped   []*SkipJSON           `json:"skipped"`
}

type ConversionJSON struct {
	From      scrap.Address         `json:"from"`
	To        scrap.Address         `json:"to"`
	AmountIn  *math.HexOrDecimal256 `json:"amountIn"`
	AmountOut *math.HexOrDecimal256 `json:"amountOut"`
}

type SkipJSON struct {
	Asset  scrap.Address         `json:"asset"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func NewRecycleJSON(res *recycler.Result) *RecycleJSON {
	out := &RecycleJSON{
		Shares:    hex(res.Shares),
		Main:      hex(res.Main),
		Base:      hex(res.Base),
		Converted: make([]*ConversionJSON, 0, len(res.Converted)),
		Skipped:   make([]*SkipJSON, 0, len(res.Skipped)),
	}
	for _, c := range res.Converted {
		out.Converted = append(out.Converted, &ConversionJSON{c.From, c.To, hex(c.AmountIn), hex(c.AmountOut)})
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, &SkipJSON{s.Asset, hex(s.Amount)})
	}
	return out
}

func initRecyclerMethods() {
	type pairArgs struct {
		TokenX scrap.Address `json:"tokenX"`
		TokenY scrap.Address `json:"tokenY"`
	}
	register(registry.KindRecycler, true, []methodDefine{
		{"params", func(env *xenv.Environment) any {
			cfg, err := recycler.New(env.To(), env).Params()
			check(env, err)
			return &struct {
				Factory   scrap.Address `json:"factory"`
				MainAsset scrap.Address `json:"mainAsset"`
				BaseAsset scrap.Address `json:"baseAsset"`
				Owner     scrap.Address `json:"owner"`
				Vault     scrap.Address `json:"vault"`
			}{cfg.Factory, cfg.MainAsset, cfg.BaseAsset, cfg.Owner, cfg.Vault}
		}},
		{"bridgeFor", func(env *xenv.Environment) any {
			var args struct {
				Asset scrap.Address `json:"asset"`
			}
			env.ParseArgs(&args)
			bridge, err := recycler.New(env.To(), env).BridgeFor(args.Asset)
			check(env, err)
			return bridge
		}},
		{"preview", func(env *xenv.Environment) any {
			var args pairArgs
			env.ParseArgs(&args)
			res, err := recycler.New(env.To(), env).Preview(args.TokenX, args.TokenY)
			check(env, err)
			return NewRecycleJSON(res)
		}},
	})
	register(registry.KindRecycler, false, []methodDefine{
		{"setVault", func(env *xenv.Environment) any {
			var args struct {
				Vault scrap.Address `json:"vault"`
			}
			env.ParseArgs(&args)
			check(env, recycler.New(env.To(), env).SetVault(env.Caller(), args.Vault))
			return nil
		}},
		{"setBridge", func(env *xenv.Environment) any {
			var args struct {
				Asset  scrap.Address `json:"asset"`
				Bridge scrap.Address `json:"bridge"`
			}
			env.ParseArgs(&args)
			check(env, recycler.New(env.To(), env).SetBridge(env.Caller(), args.Asset, args.Bridge))
			return nil
		}},
		{"recycle", func(env *xenv.Environment) any {
			var args pairArgs
			env.ParseArgs(&args)
			res, err := recycler.New(env.To(), env).Recycle(env.Caller(), args.TokenX, args.TokenY)
			check(env, err)
			return NewRecycleJSON(res)
		}},
	})
}
