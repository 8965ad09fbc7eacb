// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scrapyard/scrapmaster/scrap"
)

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

type stakeEvent struct {
	PoolID uint64                `json:"pid"`
	User   scrap.Address         `json:"user"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type poolEvent struct {
	PoolID        uint64        `json:"pid"`
	Token         scrap.Address `json:"token"`
	Weight        uint64        `json:"weight"`
	DepositFeeBps uint64        `json:"depositFeeBps"`
}

type addressChangedEvent struct {
	Old scrap.Address `json:"old"`
	New scrap.Address `json:"new"`
}

type amountEvent struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}
