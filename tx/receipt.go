// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"

	"github.com/scrapyard/scrapmaster/scrap"
)

// Receipt represents the results of a transaction.
type Receipt struct {
	TxID        scrap.Bytes32     `json:"txID"`
	Origin      scrap.Address     `json:"origin"`
	BlockNumber uint32            `json:"blockNumber"`
	Reverted    bool              `json:"reverted"`
	Error       string            `json:"error,omitempty"`
	Outputs     []json.RawMessage `json:"outputs"`
	Events      Events            `json:"events"`
}

// Receipts slice of receipts.
type Receipts []*Receipt
