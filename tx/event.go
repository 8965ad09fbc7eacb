// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"

	"github.com/scrapyard/scrapmaster/scrap"
)

// Event represents a contract event log. Topics carry the indexed values, Data the json encoded
// event body.
type Event struct {
	Address scrap.Address   `json:"address"`
	Name    string          `json:"name"`
	Topics  []scrap.Bytes32 `json:"topics"`
	Data    json.RawMessage `json:"data"`
}

// NewEvent builds an event with the body encoded as json.
func NewEvent(addr scrap.Address, name string, body any, topics ...scrap.Bytes32) (*Event, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &Event{
		Address: addr,
		Name:    name,
		Topics:  topics,
		Data:    data,
	}, nil
}

// Decode unmarshals the event body into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Events slice of event logs.
type Events []*Event

// Filter returns events matching the predicate.
func (es Events) Filter(match func(*Event) bool) (filtered Events) {
	for _, e := range es {
		if match(e) {
			filtered = append(filtered, e)
		}
	}
	return
}
