// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/scrapyard/scrapmaster/scrap"
)

// Config is the yaml description of a network.
// Tokens are referred to by symbol everywhere else in the config.
type Config struct {
	LaunchTime uint64          `yaml:"launchTime"`
	ExtraData  string          `yaml:"extraData,omitempty"`
	Admin      scrap.Address   `yaml:"admin"`
	Tokens     []TokenConfig   `yaml:"tokens"`
	Pairs      []PairConfig    `yaml:"pairs,omitempty"`
	Farm       *FarmConfig     `yaml:"farm,omitempty"`
	Recycler   *RecyclerConfig `yaml:"recycler,omitempty"`
}

// TokenConfig describes a token. Its admin is Config.Admin.
type TokenConfig struct {
	Name     string          `yaml:"name"`
	Symbol   string          `yaml:"symbol"`
	Balances []Allocation    `yaml:"balances,omitempty"`
	Minters  []scrap.Address `yaml:"minters,omitempty"`
}

// Allocation is an initial balance.
type Allocation struct {
	Address scrap.Address         `yaml:"address"`
	Amount  *math.HexOrDecimal256 `yaml:"amount"`
}

// PairConfig describes a pair seeded with liquidity from the admin balances.
// The LP shares go to the admin.
type PairConfig struct {
	Tokens  [2]string                `yaml:"tokens"`
	Amounts [2]*math.HexOrDecimal256 `yaml:"amounts,omitempty"`
}

// FarmConfig describes the farm and its initial pools.
// The farm is granted the minter role of its reward token.
type FarmConfig struct {
	RewardToken     string                `yaml:"rewardToken"`
	RewardPerBlock  *math.HexOrDecimal256 `yaml:"rewardPerBlock"`
	StartBlock      uint32                `yaml:"startBlock"`
	BonusEndBlock   uint32                `yaml:"bonusEndBlock"`
	BonusMultiplier uint64                `yaml:"bonusMultiplier"`
	FeeAddress      scrap.Address         `yaml:"feeAddress"`
	Owner           scrap.Address         `yaml:"owner"`
	Pools           []PoolConfig          `yaml:"pools,omitempty"`
}

// PoolConfig describes a farm pool. Exactly one of Token and Pair is set;
// Pair stakes the LP shares of the pair of the two symbols.
type PoolConfig struct {
	Token         string    `yaml:"token,omitempty"`
	Pair          [2]string `yaml:"pair,omitempty"`
	Weight        uint64    `yaml:"weight"`
	DepositFeeBps uint64    `yaml:"depositFeeBps"`
}

// RecyclerConfig describes the fee recycler. With FeeTo set, the factory protocol fee goes to the recycler.
type RecyclerConfig struct {
	MainAsset string         `yaml:"mainAsset"`
	BaseAsset string         `yaml:"baseAsset"`
	Owner     scrap.Address  `yaml:"owner"`
	Vault     scrap.Address  `yaml:"vault,omitempty"`
	FeeTo     bool           `yaml:"feeTo"`
	Bridges   []BridgeConfig `yaml:"bridges,omitempty"`
}

// BridgeConfig routes Asset through Bridge.
type BridgeConfig struct {
	Asset  string `yaml:"asset"`
	Bridge string `yaml:"bridge"`
}

// LoadConfig reads a yaml config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a yaml config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes the config in yaml.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the references between entries. Contract level checks happen while building.
func (c *Config) Validate() error {
	if c.Admin.IsZero() {
		return errors.New("admin must be set")
	}
	symbols := make(map[string]bool)
	for _, tk := range c.Tokens {
		if tk.Symbol == "" {
			return errors.New("token symbol must be set")
		}
		if symbols[tk.Symbol] {
			return errors.Errorf("duplicated token %s", tk.Symbol)
		}
		symbols[tk.Symbol] = true
		for _, a := range tk.Balances {
			if a.Amount == nil || (*big.Int)(a.Amount).Sign() < 0 {
				return errors.Errorf("%s: balance of %v must be a non-negative integer", tk.Symbol, a.Address)
			}
		}
	}
	known := func(symbol string) error {
		if !symbols[symbol] {
			return errors.Errorf("unknown token %q", symbol)
		}
		return nil
	}

	pairs := make(map[[2]string]bool)
	for _, p := range c.Pairs {
		for i, symbol := range p.Tokens {
			if err := known(symbol); err != nil {
				return errors.WithMessage(err, "pair")
			}
			if p.Amounts[i] != nil && (*big.Int)(p.Amounts[i]).Sign() < 0 {
				return errors.Errorf("pair %s/%s: negative amount", p.Tokens[0], p.Tokens[1])
			}
		}
		pairs[p.Tokens] = true
		pairs[[2]string{p.Tokens[1], p.Tokens[0]}] = true
	}

	if f := c.Farm; f != nil {
		if err := known(f.RewardToken); err != nil {
			return errors.WithMessage(err, "farm reward")
		}
		if f.RewardPerBlock == nil {
			return errors.New("farm rewardPerBlock must be set")
		}
		for i, p := range f.Pools {
			switch {
			case p.Token != "" && p.Pair[0] != "":
				return errors.Errorf("pool #%d: both token and pair set", i)
			case p.Token != "":
				if err := known(p.Token); err != nil {
					return errors.WithMessagef(err, "pool #%d", i)
				}
			case !pairs[p.Pair]:
				return errors.Errorf("pool #%d: unknown pair %s/%s", i, p.Pair[0], p.Pair[1])
			}
		}
	}

	if r := c.Recycler; r != nil {
		if err := known(r.MainAsset); err != nil {
			return errors.WithMessage(err, "recycler main asset")
		}
		if err := known(r.BaseAsset); err != nil {
			return errors.WithMessage(err, "recycler base asset")
		}
		for _, b := range r.Bridges {
			if err := known(b.Asset); err != nil {
				return errors.WithMessage(err, "bridge")
			}
			if err := known(b.Bridge); err != nil {
				return errors.WithMessage(err, "bridge")
			}
		}
	}
	return nil
}
