// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/builtin/farm"
	"github.com/scrapyard/scrapmaster/builtin/recycler"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

// Genesis to build genesis block.
type Genesis struct {
	builder *Builder
	id      scrap.Bytes32
	name    string
	config  *Config
}

// Build build the genesis block.
func (g *Genesis) Build(st *state.State) (blk *chain.Block, events tx.Events, err error) {
	blk, events, err = g.builder.Build(st)
	if err != nil {
		return nil, nil, err
	}
	if blk.Header().ID() != g.id {
		panic("built genesis ID incorrect")
	}
	return blk, events, nil
}

// ID returns genesis block ID.
func (g *Genesis) ID() scrap.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// Config returns the config the genesis is built from.
func (g *Genesis) Config() *Config {
	return g.config
}

// New create a genesis from config.
func New(name string, cfg *Config) (*Genesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	builder := newBuilder(cfg)
	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, name, cfg}, nil
}

func amount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func pairAddress(a, b string) scrap.Address {
	t0, t1 := scrap.SortAddresses(builtin.TokenAddress(a), builtin.TokenAddress(b))
	return scrap.CreatePairAddress(builtin.Factory.Address, t0, t1)
}

// newBuilder deploys the builtin contracts and replays the setup as calls from the configured roles.
func newBuilder(cfg *Config) *Builder {
	var extra [28]byte
	copy(extra[:], cfg.ExtraData)

	builder := new(Builder).
		Timestamp(cfg.LaunchTime).
		ExtraData(extra).
		State(func(env *xenv.Environment) error {
			for _, tk := range cfg.Tokens {
				if _, err := builtin.DeployToken(env, builtin.TokenAddress(tk.Symbol), tk.Name, tk.Symbol, cfg.Admin); err != nil {
					return errors.WithMessagef(err, "deploy token %s", tk.Symbol)
				}
			}
			if _, err := builtin.Factory.Deploy(env, cfg.Admin); err != nil {
				return errors.WithMessage(err, "deploy factory")
			}
			if f := cfg.Farm; f != nil {
				if _, err := builtin.Farm.Deploy(env, &farm.Config{
					RewardToken:     builtin.TokenAddress(f.RewardToken),
					RewardPerBlock:  amount(f.RewardPerBlock),
					StartBlock:      f.StartBlock,
					BonusEndBlock:   f.BonusEndBlock,
					BonusMultiplier: f.BonusMultiplier,
					FeeAddress:      f.FeeAddress,
					Owner:           f.Owner,
				}); err != nil {
					return errors.WithMessage(err, "deploy farm")
				}
			}
			if r := cfg.Recycler; r != nil {
				if _, err := builtin.Recycler.Deploy(env, &recycler.Config{
					Factory:   builtin.Factory.Address,
					MainAsset: builtin.TokenAddress(r.MainAsset),
					BaseAsset: builtin.TokenAddress(r.BaseAsset),
					Owner:     r.Owner,
					Vault:     r.Vault,
				}); err != nil {
					return errors.WithMessage(err, "deploy recycler")
				}
			}
			return nil
		})

	for _, tk := range cfg.Tokens {
		addr := builtin.TokenAddress(tk.Symbol)
		for _, a := range tk.Balances {
			builder.Call(tx.NewClause(addr, "mint").MustWithArgs(map[string]any{
				"to":     a.Address,
				"amount": hex(amount(a.Amount)),
			}), cfg.Admin)
		}
		for _, m := range tk.Minters {
			builder.Call(tx.NewClause(addr, "grantMinter").MustWithArgs(map[string]any{"account": m}), cfg.Admin)
		}
	}
	if cfg.Farm != nil {
		builder.Call(tx.NewClause(builtin.TokenAddress(cfg.Farm.RewardToken), "grantMinter").
			MustWithArgs(map[string]any{"account": builtin.Farm.Address}), cfg.Admin)
	}

	for _, p := range cfg.Pairs {
		a, b := builtin.TokenAddress(p.Tokens[0]), builtin.TokenAddress(p.Tokens[1])
		builder.Call(tx.NewClause(builtin.Factory.Address, "createPair").
			MustWithArgs(map[string]any{"tokenA": a, "tokenB": b}), cfg.Admin)

		if amount(p.Amounts[0]).Sign() > 0 && amount(p.Amounts[1]).Sign() > 0 {
			pair := pairAddress(p.Tokens[0], p.Tokens[1])
			for i, tk := range []scrap.Address{a, b} {
				builder.Call(tx.NewClause(tk, "transfer").MustWithArgs(map[string]any{
					"to":     pair,
					"amount": p.Amounts[i],
				}), cfg.Admin)
			}
			builder.Call(tx.NewClause(pair, "mint").MustWithArgs(map[string]any{"to": cfg.Admin}), cfg.Admin)
		}
	}

	if f := cfg.Farm; f != nil {
		for _, p := range f.Pools {
			token := builtin.TokenAddress(p.Token)
			if p.Token == "" {
				token = pairAddress(p.Pair[0], p.Pair[1])
			}
			builder.Call(tx.NewClause(builtin.Farm.Address, "addPool").MustWithArgs(map[string]any{
				"token":         token,
				"weight":        p.Weight,
				"depositFeeBps": p.DepositFeeBps,
			}), f.Owner)
		}
	}

	if r := cfg.Recycler; r != nil {
		for _, b := range r.Bridges {
			builder.Call(tx.NewClause(builtin.Recycler.Address, "setBridge").MustWithArgs(map[string]any{
				"asset":  builtin.TokenAddress(b.Asset),
				"bridge": builtin.TokenAddress(b.Bridge),
			}), r.Owner)
		}
		if r.FeeTo {
			builder.Call(tx.NewClause(builtin.Factory.Address, "setFeeTo").
				MustWithArgs(map[string]any{"feeTo": builtin.Recycler.Address}), cfg.Admin)
		}
	}
	return builder
}
