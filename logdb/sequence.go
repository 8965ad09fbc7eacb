// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math"

	"github.com/pkg/errors"
)

// sequence is the primary key of an event: the block number above indexBits,
// the index of the event within its block below.
type sequence int64

const (
	indexBits = 31
	maxIndex  = math.MaxInt32
)

var errIndexOverflow = errors.New("event index overflows sequence")

func newSequence(blockNum uint32, index uint32) (sequence, error) {
	if index > maxIndex {
		return 0, errors.Wrapf(errIndexOverflow, "block %d index %d", blockNum, index)
	}
	return sequence(blockNum)<<indexBits | sequence(index), nil
}

// blockSpan returns the inclusive bounds of the sequences of blocks from..to.
func blockSpan(from, to uint32) (lo, hi sequence) {
	return sequence(from) << indexBits, sequence(to)<<indexBits | maxIndex
}

func (s sequence) BlockNumber() uint32 {
	return uint32(s >> indexBits)
}

func (s sequence) Index() uint32 {
	return uint32(s & maxIndex)
}
