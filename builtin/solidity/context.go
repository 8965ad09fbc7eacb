// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
)

// Context binds storage wrappers to the contract address they belong to.
type Context struct {
	address scrap.Address
	state   *state.State
}

func NewContext(address scrap.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() scrap.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Slot derives a storage position from a readable name.
func Slot(name string) scrap.Bytes32 {
	return scrap.BytesToBytes32([]byte(name))
}
