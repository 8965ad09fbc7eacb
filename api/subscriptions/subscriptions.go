// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/co"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/solo"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// clientBacklog is the number of blocks a connection may lag behind before it is dropped.
	clientBacklog = 32
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 7) / 10
)

// BlockFeed delivers the packed blocks.
type BlockFeed interface {
	SubscribeBlockEvent(ch chan *solo.BlockEvent) event.Subscription
}

// Subscriptions pushes new blocks and their events to websocket clients.
type Subscriptions struct {
	upgrader *websocket.Upgrader
	choes    *co.Choes

	mu      sync.Mutex
	clients map[chan *solo.BlockEvent]struct{}
}

func New(feed BlockFeed, allowedOrigins []string) *Subscriptions {
	s := &Subscriptions{
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, u.Scheme+"://"+u.Host) {
						return true
					}
				}
				return false
			},
		},
		choes:   co.NewChoes(),
		clients: make(map[chan *solo.BlockEvent]struct{}),
	}

	ch := make(chan *solo.BlockEvent, clientBacklog)
	sub := feed.SubscribeBlockEvent(ch)
	s.choes.Go(func(stop chan struct{}) {
		defer sub.Unsubscribe()
		for {
			select {
			case <-stop:
				return
			case <-sub.Err():
				return
			case ev := <-ch:
				s.dispatch(ev)
			}
		}
	})
	return s
}

// dispatch fans ev out, dropping the clients that fell too far behind.
func (s *Subscriptions) dispatch(ev *solo.BlockEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		select {
		case client <- ev:
		default:
			delete(s.clients, client)
			close(client)
		}
	}
}

func (s *Subscriptions) register() chan *solo.BlockEvent {
	client := make(chan *solo.BlockEvent, clientBacklog)
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	return client
}

func (s *Subscriptions) unregister(client chan *solo.BlockEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client)
	}
}

func (s *Subscriptions) handleSubject(w http.ResponseWriter, req *http.Request) error {
	var convert func(*solo.BlockEvent) []any
	switch subject := mux.Vars(req)["subject"]; subject {
	case "block":
		convert = func(ev *solo.BlockEvent) []any { return []any{convertBlock(ev)} }
	case "event":
		filter, err := parseEventFilter(req.URL.Query())
		if err != nil {
			return utils.BadRequest(err)
		}
		convert = func(ev *solo.BlockEvent) []any { return convertEvents(ev, filter) }
	default:
		return utils.HTTPError(errors.New("not found"), http.StatusNotFound)
	}

	// registered before the upgrade completes, so no block packed after the handshake is missed
	client := s.register()
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.unregister(client)
		logger.Debug("upgrade to websocket", "error", err)
		// the upgrader has already responded
		return nil
	}
	s.choes.Go(func(stop chan struct{}) {
		defer s.unregister(client)
		defer conn.Close()
		if err := s.pipe(conn, client, convert, stop); err != nil {
			logger.Debug("subscription closed", "subject", mux.Vars(req)["subject"], "error", err)
		}
	})
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, client chan *solo.BlockEvent, convert func(*solo.BlockEvent) []any, stop chan struct{}) error {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "service shutdown"))
		case <-closed:
			return nil
		case ev, ok := <-client:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"))
				return errors.New("client fell behind")
			}
			for _, msg := range convert(ev) {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return err
				}
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// Close disconnects every client.
func (s *Subscriptions) Close() {
	s.choes.Stop()
	s.choes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{subject}").
		Methods(http.MethodGet).
		Name("subscriptions_subscribe").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubject))
}
