// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scrap

import (
	"math/big"
	"time"
)

// Constants of the network.
const (
	// MaxFeeBps is the denominator of all basis point rates.
	MaxFeeBps = 10000

	// BlockInterval default interval between two packed blocks.
	BlockInterval = 10 * time.Second

	// MaxTxsPerBlock caps the number of transactions executed in one block.
	MaxTxsPerBlock = 1024
)

// MaxUint256 is 2^256 - 1, the upper bound of every amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
