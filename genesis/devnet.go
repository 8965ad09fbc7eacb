// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scrapyard/scrapmaster/scrap"
)

// DevLaunchTime is the genesis time of the dev network.
const DevLaunchTime = 1526400000 // 'Wed May 16 2018 00:00:00 GMT+0800 (CST)'

var devAccounts = sync.OnceValue(func() []scrap.Address {
	accs := make([]scrap.Address, 0, 10)
	for i := 0; i < 10; i++ {
		accs = append(accs, scrap.BytesToAddress(scrap.Blake2b([]byte("dev-account"), []byte(strconv.Itoa(i))).Bytes()))
	}
	return accs
})

// DevAccounts returns pre-funded accounts of the dev network.
// The first one is the admin of every contract, the last one is the recycler vault.
func DevAccounts() []scrap.Address {
	return devAccounts()
}

func ether(n int64) *math.HexOrDecimal256 {
	v := new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
	return (*math.HexOrDecimal256)(v)
}

// DevConfig returns the config of the dev network:
// SCRAP is the reward and main asset, WVET the base asset; DAI reaches WVET through USDT only.
func DevConfig() *Config {
	accs := DevAccounts()
	admin, vault := accs[0], accs[len(accs)-1]

	balances := make([]Allocation, 0, len(accs)-1)
	for _, acc := range accs[:len(accs)-1] {
		balances = append(balances, Allocation{acc, ether(1_000_000)})
	}

	return &Config{
		LaunchTime: DevLaunchTime,
		ExtraData:  "scrapyard devnet",
		Admin:      admin,
		Tokens: []TokenConfig{
			{Name: "Scrap", Symbol: "SCRAP", Balances: balances},
			{Name: "Wrapped VET", Symbol: "WVET", Balances: balances},
			{Name: "Tether USD", Symbol: "USDT", Balances: balances},
			{Name: "Dai Stablecoin", Symbol: "DAI", Balances: balances},
		},
		Pairs: []PairConfig{
			{Tokens: [2]string{"SCRAP", "WVET"}, Amounts: [2]*math.HexOrDecimal256{ether(100_000), ether(400_000)}},
			{Tokens: [2]string{"USDT", "WVET"}, Amounts: [2]*math.HexOrDecimal256{ether(50_000), ether(100_000)}},
			{Tokens: [2]string{"DAI", "USDT"}, Amounts: [2]*math.HexOrDecimal256{ether(50_000), ether(50_000)}},
		},
		Farm: &FarmConfig{
			RewardToken:     "SCRAP",
			RewardPerBlock:  ether(10),
			StartBlock:      1,
			BonusEndBlock:   1000,
			BonusMultiplier: 2,
			FeeAddress:      vault,
			Owner:           admin,
			Pools: []PoolConfig{
				{Token: "WVET", Weight: 1000},
				{Pair: [2]string{"SCRAP", "WVET"}, Weight: 4000},
				{Token: "USDT", Weight: 500, DepositFeeBps: 400},
			},
		},
		Recycler: &RecyclerConfig{
			MainAsset: "SCRAP",
			BaseAsset: "WVET",
			Owner:     admin,
			Vault:     vault,
			FeeTo:     true,
			Bridges:   []BridgeConfig{{Asset: "DAI", Bridge: "USDT"}},
		},
	}
}

// NewDevnet create genesis for the dev network.
func NewDevnet() *Genesis {
	gen, err := New("devnet", DevConfig())
	if err != nil {
		panic(err)
	}
	return gen
}
