// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"encoding/json"

	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/scrap"
)

type EventCriteria struct {
	Address *scrap.Address `json:"address"`
	Name    string         `json:"name"`
	Topic0  *scrap.Bytes32 `json:"topic0"`
	Topic1  *scrap.Bytes32 `json:"topic1"`
	Topic2  *scrap.Bytes32 `json:"topic2"`
}

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type LogMeta struct {
	BlockNumber    uint32        `json:"blockNumber"`
	BlockTimestamp uint64        `json:"blockTimestamp"`
	TxID           scrap.Bytes32 `json:"txID"`
	TxOrigin       scrap.Address `json:"txOrigin"`
	LogIndex       uint32        `json:"logIndex"`
}

type FilteredEvent struct {
	Address scrap.Address   `json:"address"`
	Name    string          `json:"name"`
	Topics  []scrap.Bytes32 `json:"topics"`
	Data    json.RawMessage `json:"data"`
	Meta    LogMeta         `json:"meta"`
}

func convertEvent(event *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: event.Address,
		Name:    event.Name,
		Topics:  make([]scrap.Bytes32, 0, logdb.MaxTopics),
		Data:    event.Data,
		Meta: LogMeta{
			BlockNumber:    event.BlockNumber,
			BlockTimestamp: event.BlockTime,
			TxID:           event.TxID,
			TxOrigin:       event.TxOrigin,
			LogIndex:       event.Index,
		},
	}
	for _, topic := range event.Topics {
		if topic != nil {
			fe.Topics = append(fe.Topics, *topic)
		}
	}
	return fe
}

func convertEventFilter(ef *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{
		Order: ef.Order,
	}
	if ef.Range != nil && (ef.Range.From != nil || ef.Range.To != nil) {
		r := &logdb.Range{Unit: ef.Range.Unit}
		if r.Unit == "" {
			r.Unit = logdb.Block
		}
		if ef.Range.From != nil {
			r.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			r.To = *ef.Range.To
		} else if r.From > 0 {
			// a To below From leaves the range open
			r.To = r.From - 1
		} else {
			r = nil
		}
		f.Range = r
	}
	if ef.Options != nil {
		f.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for _, c := range ef.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Address: c.Address,
			Name:    c.Name,
			Topics:  [logdb.MaxTopics]*scrap.Bytes32{c.Topic0, c.Topic1, c.Topic2},
		})
	}
	return f
}
