// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"encoding/json"

	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

// Event represents tx.Event that can be stored in db.
type Event struct {
	BlockNumber uint32
	Index       uint32
	BlockTime   uint64
	TxID        scrap.Bytes32
	TxOrigin    scrap.Address
	Address     scrap.Address // always a builtin contract address
	Name        string
	Topics      [MaxTopics]*scrap.Bytes32
	Data        json.RawMessage
}

// newEvent converts tx.Event to Event. Topics beyond MaxTopics are not indexed.
func newEvent(blockNum uint32, blockTime uint64, index uint32, txID scrap.Bytes32, txOrigin scrap.Address, txEvent *tx.Event) *Event {
	ev := &Event{
		BlockNumber: blockNum,
		Index:       index,
		BlockTime:   blockTime,
		TxID:        txID,
		TxOrigin:    txOrigin,
		Address:     txEvent.Address,
		Name:        txEvent.Name,
		Data:        txEvent.Data,
	}
	for i := 0; i < len(txEvent.Topics) && i < MaxTopics; i++ {
		topic := txEvent.Topics[i]
		ev.Topics[i] = &topic
	}
	return ev
}

// RangeType of Range.
type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

// Order of results.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range of block numbers or block times.
// To less than From means no upper bound.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

// Options pages the results.
type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches an event when all set fields match.
type EventCriteria struct {
	Address *scrap.Address
	Name    string
	Topics  [MaxTopics]*scrap.Bytes32
}

// EventFilter filter. Events matching any of the criteria are returned.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
