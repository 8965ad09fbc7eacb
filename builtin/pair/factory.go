// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pair

import (
	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/solidity"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	slotFeeTo       = solidity.Slot("factory-fee-to")
	slotFeeToSetter = solidity.Slot("factory-fee-to-setter")
	slotPairs       = solidity.Slot("factory-pairs")
	slotAllPairs    = solidity.Slot("factory-all-pairs")
)

// Factory creates pairs at deterministic addresses and holds the protocol fee recipient.
type Factory struct {
	addr scrap.Address
	env  *xenv.Environment

	feeTo       *solidity.Raw[scrap.Address]
	feeToSetter *solidity.Raw[scrap.Address]
	pairs       *solidity.Mapping[scrap.Bytes32, scrap.Address]
	allPairs    *solidity.Array[scrap.Address]
}

func NewFactory(addr scrap.Address, env *xenv.Environment) *Factory {
	sctx := solidity.NewContext(addr, env.State())
	return &Factory{
		addr:        addr,
		env:         env,
		feeTo:       solidity.NewRaw[scrap.Address](sctx, slotFeeTo),
		feeToSetter: solidity.NewRaw[scrap.Address](sctx, slotFeeToSetter),
		pairs:       solidity.NewMapping[scrap.Bytes32, scrap.Address](sctx, slotPairs),
		allPairs:    solidity.NewArray[scrap.Address](sctx, slotAllPairs),
	}
}

// Initialize sets the account allowed to change the fee recipient.
func (f *Factory) Initialize(feeToSetter scrap.Address) error {
	cur, err := f.feeToSetter.Get()
	if err != nil {
		return err
	}
	if !cur.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "factory %v already initialized", f.addr)
	}
	if feeToSetter.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "fee to setter is the zero address")
	}
	return f.feeToSetter.Set(feeToSetter)
}

func (f *Factory) Address() scrap.Address {
	return f.addr
}

func (f *Factory) FeeTo() (scrap.Address, error) {
	return f.feeTo.Get()
}

func (f *Factory) FeeToSetter() (scrap.Address, error) {
	return f.feeToSetter.Get()
}

// SetFeeTo changes the protocol fee recipient. The zero address turns the fee off.
func (f *Factory) SetFeeTo(caller, feeTo scrap.Address) error {
	setter, err := f.feeToSetter.Get()
	if err != nil {
		return err
	}
	if caller != setter {
		return reverts.New(reverts.ErrUnauthorized, "caller is not the fee to setter")
	}
	if err := f.feeTo.Set(feeTo); err != nil {
		return err
	}
	return f.env.Emit(f.addr, "FeeToChanged", &struct {
		FeeTo scrap.Address `json:"feeTo"`
	}{feeTo}, scrap.AddressToBytes32(feeTo))
}

// SetFeeToSetter hands the setter role over.
func (f *Factory) SetFeeToSetter(caller, setter scrap.Address) error {
	cur, err := f.feeToSetter.Get()
	if err != nil {
		return err
	}
	if caller != cur {
		return reverts.New(reverts.ErrUnauthorized, "caller is not the fee to setter")
	}
	if setter.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "fee to setter is the zero address")
	}
	return f.feeToSetter.Set(setter)
}

func pairKey(a, b scrap.Address) scrap.Bytes32 {
	t0, t1 := scrap.SortAddresses(a, b)
	return scrap.Blake2b(t0.Bytes(), t1.Bytes())
}

// GetPair returns the pair of a and b in any order, the zero address if none.
func (f *Factory) GetPair(a, b scrap.Address) (scrap.Address, error) {
	return f.pairs.Get(pairKey(a, b))
}

// CreatePair deploys the pair of a and b.
func (f *Factory) CreatePair(a, b scrap.Address) (scrap.Address, error) {
	if a == b {
		return scrap.Address{}, reverts.New(reverts.ErrInvalidParameter, "identical addresses")
	}
	t0, t1 := scrap.SortAddresses(a, b)
	if t0.IsZero() {
		return scrap.Address{}, reverts.New(reverts.ErrInvalidParameter, "zero address")
	}
	existing, err := f.GetPair(t0, t1)
	if err != nil {
		return scrap.Address{}, err
	}
	if !existing.IsZero() {
		return scrap.Address{}, reverts.New(reverts.ErrInvalidParameter, "pair exists")
	}

	addr := scrap.CreatePairAddress(f.addr, t0, t1)
	if err := registry.New(f.env.State()).Register(addr, registry.KindPair); err != nil {
		return scrap.Address{}, err
	}
	if err := New(addr, f.env).initialize(f.addr, t0, t1); err != nil {
		return scrap.Address{}, err
	}
	if err := f.pairs.Set(pairKey(t0, t1), addr); err != nil {
		return scrap.Address{}, err
	}
	index, err := f.allPairs.Append(addr)
	if err != nil {
		return scrap.Address{}, err
	}
	logger.Debug("pair created", "token0", t0, "token1", t1, "pair", addr)
	return addr, f.env.Emit(f.addr, "PairCreated", &pairCreatedEvent{
		Token0: t0,
		Token1: t1,
		Pair:   addr,
		Index:  index,
	}, scrap.AddressToBytes32(t0), scrap.AddressToBytes32(t1))
}

// AllPairs lists the pairs in creation order.
func (f *Factory) AllPairs() ([]scrap.Address, error) {
	var all []scrap.Address
	err := f.allPairs.ForEach(func(_ uint64, addr scrap.Address) (bool, error) {
		all = append(all, addr)
		return true, nil
	})
	return all, err
}

type pairCreatedEvent struct {
	Token0 scrap.Address `json:"token0"`
	Token1 scrap.Address `json:"token1"`
	Pair   scrap.Address `json:"pair"`
	Index  uint64        `json:"index"`
}
