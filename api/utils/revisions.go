// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
)

// Revision is a block number, a block id or the best block.
type Revision struct {
	best   bool
	number uint32
	id     *scrap.Bytes32
}

// ParseRevision parses "best", "" (same as best), a 0x prefixed block id, or a decimal block number.
func ParseRevision(s string) (*Revision, error) {
	if s == "" || s == "best" {
		return &Revision{best: true}, nil
	}
	if strings.HasPrefix(s, "0x") && len(s) == 66 {
		id, err := scrap.ParseBytes32(s)
		if err != nil {
			return nil, err
		}
		return &Revision{id: &id}, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, err
	}
	if n > math.MaxUint32 {
		return nil, errors.New("block number out of range")
	}
	return &Revision{number: uint32(n)}, nil
}

// GetSummary returns the block summary the revision points to.
// A missing block is reported by NotFound.
func GetSummary(rev *Revision, repo *chain.Repository) (*chain.BlockSummary, error) {
	var (
		summary *chain.BlockSummary
		err     error
	)
	switch {
	case rev.best:
		return repo.BestBlockSummary(), nil
	case rev.id != nil:
		summary, err = repo.GetBlockSummaryByID(*rev.id)
	default:
		summary, err = repo.GetBlockSummary(rev.number)
	}
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, NotFound(errors.New("block not found"))
		}
		return nil, err
	}
	return summary, nil
}
