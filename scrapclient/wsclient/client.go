// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package wsclient subscribes to the websocket feeds of a scrapd node.
package wsclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/scrapyard/scrapmaster/api/subscriptions"
	"github.com/scrapyard/scrapmaster/scrap"
)

var ErrUnexpectedMsg = errors.New("unexpected message")

// EventWrapper carries either a message or the error that ended the subscription.
type EventWrapper[T any] struct {
	Data  T
	Error error
}

// Subscription is an open feed. EventChan is closed after the connection ends.
type Subscription[T any] struct {
	EventChan   <-chan EventWrapper[T]
	Unsubscribe func() error
}

// EventQuery narrows an event subscription. Unset fields match anything.
type EventQuery struct {
	Address *scrap.Address
	Name    string
	Topics  [3]*scrap.Bytes32
}

func (q *EventQuery) encode() string {
	if q == nil {
		return ""
	}
	values := url.Values{}
	if q.Address != nil {
		values.Set("addr", q.Address.String())
	}
	if q.Name != "" {
		values.Set("name", q.Name)
	}
	for i, topic := range q.Topics {
		if topic != nil {
			values.Set(fmt.Sprintf("t%d", i), topic.String())
		}
	}
	return values.Encode()
}

type Client struct {
	host   string
	scheme string
}

func NewClient(rawURL string) (*Client, error) {
	var host, scheme string
	switch {
	case strings.HasPrefix(rawURL, "https://"), strings.HasPrefix(rawURL, "wss://"):
		host = strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "wss://")
		scheme = "wss"
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "ws://"):
		host = strings.TrimPrefix(strings.TrimPrefix(rawURL, "http://"), "ws://")
		scheme = "ws"
	default:
		return nil, fmt.Errorf("invalid url")
	}
	return &Client{
		host:   strings.TrimSuffix(host, "/"),
		scheme: scheme,
	}, nil
}

func (c *Client) SubscribeBlocks() (*Subscription[*subscriptions.BlockMessage], error) {
	conn, err := c.connect("/subscriptions/block", "")
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}
	return subscribe[subscriptions.BlockMessage](conn), nil
}

func (c *Client) SubscribeEvents(query *EventQuery) (*Subscription[*subscriptions.EventMessage], error) {
	conn, err := c.connect("/subscriptions/event", query.encode())
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}
	return subscribe[subscriptions.EventMessage](conn), nil
}

// subscribe reads JSON messages of type T from conn until it fails or is unsubscribed.
func subscribe[T any](conn *websocket.Conn) *Subscription[*T] {
	eventChan := make(chan EventWrapper[*T])
	done := make(chan struct{})

	go func() {
		defer close(eventChan)
		defer conn.Close()

		for {
			var data T
			if err := conn.ReadJSON(&data); err != nil {
				select {
				case eventChan <- EventWrapper[*T]{Error: fmt.Errorf("%w: %w", ErrUnexpectedMsg, err)}:
				case <-done:
				}
				return
			}
			select {
			case eventChan <- EventWrapper[*T]{Data: &data}:
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return &Subscription[*T]{
		EventChan: eventChan,
		Unsubscribe: func() error {
			var err error
			once.Do(func() {
				close(done)
				err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
			})
			return err
		},
	}
}

func (c *Client) connect(endpoint, rawQuery string) (*websocket.Conn, error) {
	u := url.URL{
		Scheme:   c.scheme,
		Host:     c.host,
		Path:     endpoint,
		RawQuery: rawQuery,
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, err
	}
	return conn, nil
}
