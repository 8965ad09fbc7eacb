// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/scrapyard/scrapmaster/builtin/farm"
	"github.com/scrapyard/scrapmaster/builtin/pair"
	"github.com/scrapyard/scrapmaster/builtin/recycler"
	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/xenv"
)

// Builtin contracts binding.
var (
	Factory  = &factoryContract{newContract("Factory", registry.KindFactory)}
	Farm     = &farmContract{newContract("Farm", registry.KindFarm)}
	Recycler = &recyclerContract{newContract("Recycler", registry.KindRecycler)}
)

type (
	factoryContract  struct{ *contract }
	farmContract     struct{ *contract }
	recyclerContract struct{ *contract }
)

type contract struct {
	name    string
	kind    registry.Kind
	Address scrap.Address
}

func newContract(name string, kind registry.Kind) *contract {
	return &contract{
		name:    name,
		kind:    kind,
		Address: scrap.BytesToAddress([]byte(name)),
	}
}

// Deployed reports whether the contract is registered in st.
func (c *contract) Deployed(st *state.State) (bool, error) {
	kind, err := registry.New(st).Kind(c.Address)
	if err != nil {
		return false, err
	}
	return kind == c.kind, nil
}

func (f *factoryContract) Native(env *xenv.Environment) *pair.Factory {
	return pair.NewFactory(f.Address, env)
}

// Deploy registers and initializes the factory.
func (f *factoryContract) Deploy(env *xenv.Environment, feeToSetter scrap.Address) (*pair.Factory, error) {
	if err := registry.New(env.State()).Register(f.Address, f.kind); err != nil {
		return nil, err
	}
	factory := f.Native(env)
	return factory, factory.Initialize(feeToSetter)
}

func (f *farmContract) Native(env *xenv.Environment) *farm.Farm {
	return farm.New(f.Address, env)
}

// Deploy registers and initializes the farm.
func (f *farmContract) Deploy(env *xenv.Environment, cfg *farm.Config) (*farm.Farm, error) {
	if err := registry.New(env.State()).Register(f.Address, f.kind); err != nil {
		return nil, err
	}
	ledger := f.Native(env)
	return ledger, ledger.Initialize(cfg)
}

func (r *recyclerContract) Native(env *xenv.Environment) *recycler.Recycler {
	return recycler.New(r.Address, env)
}

// Deploy registers and initializes the recycler.
func (r *recyclerContract) Deploy(env *xenv.Environment, cfg *recycler.Config) (*recycler.Recycler, error) {
	if err := registry.New(env.State()).Register(r.Address, r.kind); err != nil {
		return nil, err
	}
	rc := r.Native(env)
	return rc, rc.Initialize(cfg)
}

// DeployToken registers a token at addr and initializes it.
func DeployToken(env *xenv.Environment, addr scrap.Address, name, symbol string, admin scrap.Address) (*token.Token, error) {
	if err := registry.New(env.State()).Register(addr, registry.KindToken); err != nil {
		return nil, err
	}
	tk := token.New(addr, env)
	return tk, tk.Initialize(name, symbol, admin)
}

// TokenAddress derives the address of a token from its symbol.
func TokenAddress(symbol string) scrap.Address {
	return scrap.BytesToAddress(scrap.Blake2b([]byte("token"), []byte(symbol)).Bytes())
}
