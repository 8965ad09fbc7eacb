// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry records which kind of builtin contract lives at an address.
package registry

import (
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/solidity"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
)

// Address of the registry storage.
var Address = scrap.BytesToAddress([]byte("Registry"))

var (
	slotKinds = solidity.Slot("kinds")
	slotAll   = solidity.Slot("contracts")
)

// Kind names a builtin contract implementation.
type Kind string

const (
	KindNone     Kind = ""
	KindToken    Kind = "token"
	KindPair     Kind = "pair"
	KindFactory  Kind = "factory"
	KindFarm     Kind = "farm"
	KindRecycler Kind = "recycler"
)

type Registry struct {
	kinds *solidity.Mapping[scrap.Address, string]
	all   *solidity.Array[scrap.Address]
}

func New(state *state.State) *Registry {
	sctx := solidity.NewContext(Address, state)
	return &Registry{
		kinds: solidity.NewMapping[scrap.Address, string](sctx, slotKinds),
		all:   solidity.NewArray[scrap.Address](sctx, slotAll),
	}
}

// Kind returns the kind at addr, KindNone if nothing is deployed there.
func (r *Registry) Kind(addr scrap.Address) (Kind, error) {
	k, err := r.kinds.Get(addr)
	if err != nil {
		return KindNone, err
	}
	return Kind(k), nil
}

// Register binds kind to addr. An address is bound once.
func (r *Registry) Register(addr scrap.Address, kind Kind) error {
	if addr.IsZero() || kind == KindNone {
		return reverts.New(reverts.ErrInvalidParameter, "invalid registration")
	}
	cur, err := r.Kind(addr)
	if err != nil {
		return err
	}
	if cur != KindNone {
		return reverts.New(reverts.ErrInvalidParameter, "address %v already holds a %s", addr, cur)
	}
	if err := r.kinds.Set(addr, string(kind)); err != nil {
		return err
	}
	_, err = r.all.Append(addr)
	return err
}

// ForEach visits registered contracts in registration order.
func (r *Registry) ForEach(cb func(addr scrap.Address, kind Kind) bool) error {
	return r.all.ForEach(func(_ uint64, addr scrap.Address) (bool, error) {
		k, err := r.Kind(addr)
		if err != nil {
			return false, err
		}
		return cb(addr, k), nil
	})
}
