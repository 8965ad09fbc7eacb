// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Choes is Goes with a shared stop channel. Long lived routines, like websocket pipes,
// select on the channel and return once Stop is called.
type Choes struct {
	goes     Goes
	stopChan chan struct{}
	once     sync.Once
}

func NewChoes() *Choes {
	return &Choes{
		stopChan: make(chan struct{}),
	}
}

// Go runs f in a tracked go routine, handing it the stop channel.
func (c *Choes) Go(f func(stop chan struct{})) {
	c.goes.Go(func() { f(c.stopChan) })
}

// Stop closes the stop channel. Safe to call more than once.
func (c *Choes) Stop() {
	c.once.Do(func() {
		close(c.stopChan)
	})
}

// Wait blocks until every go routine started by Go returns.
func (c *Choes) Wait() {
	c.goes.Wait()
}

func (c *Choes) Done() <-chan struct{} {
	return c.goes.Done()
}
