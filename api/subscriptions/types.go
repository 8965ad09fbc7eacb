// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/blocks"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/solo"
	"github.com/scrapyard/scrapmaster/tx"
)

type BlockMessage struct {
	*blocks.JSONBlockSummary
	Transactions []scrap.Bytes32 `json:"transactions"`
}

type LogMeta struct {
	BlockID        scrap.Bytes32 `json:"blockID"`
	BlockNumber    uint32        `json:"blockNumber"`
	BlockTimestamp uint64        `json:"blockTimestamp"`
	TxID           scrap.Bytes32 `json:"txID"`
	TxOrigin       scrap.Address `json:"txOrigin"`
}

type EventMessage struct {
	Address scrap.Address   `json:"address"`
	Name    string          `json:"name"`
	Topics  []scrap.Bytes32 `json:"topics"`
	Data    json.RawMessage `json:"data"`
	Meta    LogMeta         `json:"meta"`
}

// EventFilter selects events by emitter, name and leading topics. Unset fields match anything.
type EventFilter struct {
	Address *scrap.Address
	Name    string
	Topics  [3]*scrap.Bytes32
}

func parseEventFilter(query url.Values) (*EventFilter, error) {
	var filter EventFilter
	if s := query.Get("addr"); s != "" {
		addr, err := scrap.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, "addr")
		}
		filter.Address = &addr
	}
	filter.Name = query.Get("name")
	for i, key := range []string{"t0", "t1", "t2"} {
		if s := query.Get(key); s != "" {
			topic, err := scrap.ParseBytes32(s)
			if err != nil {
				return nil, errors.WithMessage(err, key)
			}
			filter.Topics[i] = &topic
		}
	}
	return &filter, nil
}

func (f *EventFilter) Match(ev *tx.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	if f.Name != "" && f.Name != ev.Name {
		return false
	}
	for i, topic := range f.Topics {
		if topic == nil {
			continue
		}
		if i >= len(ev.Topics) || ev.Topics[i] != *topic {
			return false
		}
	}
	return true
}

func convertBlock(ev *solo.BlockEvent) *BlockMessage {
	txs := ev.Block.Transactions()
	ids := make([]scrap.Bytes32, 0, len(txs))
	for _, trx := range txs {
		ids = append(ids, trx.ID())
	}
	return &BlockMessage{
		blocks.BuildJSONBlockSummary(ev.Block.Header()),
		ids,
	}
}

func convertEvents(ev *solo.BlockEvent, filter *EventFilter) []any {
	header := ev.Block.Header()
	var msgs []any
	for _, receipt := range ev.Receipts {
		for _, event := range receipt.Events {
			if !filter.Match(event) {
				continue
			}
			topics := event.Topics
			if topics == nil {
				topics = []scrap.Bytes32{}
			}
			msgs = append(msgs, &EventMessage{
				Address: event.Address,
				Name:    event.Name,
				Topics:  topics,
				Data:    event.Data,
				Meta: LogMeta{
					BlockID:        header.ID(),
					BlockNumber:    header.Number(),
					BlockTimestamp: header.Timestamp(),
					TxID:           receipt.TxID,
					TxOrigin:       receipt.Origin,
				},
			})
		}
	}
	return msgs
}
