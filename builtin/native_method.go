// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/xenv"
)

type methodKey struct {
	kind registry.Kind
	name string
}

// NativeMethod is a callable method of a builtin contract kind.
type NativeMethod struct {
	Kind     registry.Kind
	Name     string
	ReadOnly bool
	Run      func(env *xenv.Environment) any
}

var nativeMethods = make(map[methodKey]*NativeMethod)

func register(kind registry.Kind, readOnly bool, defines []methodDefine) {
	for _, def := range defines {
		key := methodKey{kind, def.name}
		if _, dup := nativeMethods[key]; dup {
			panic("duplicated native method: " + string(kind) + "." + def.name)
		}
		nativeMethods[key] = &NativeMethod{
			Kind:     kind,
			Name:     def.name,
			ReadOnly: readOnly,
			Run:      def.run,
		}
	}
}

type methodDefine struct {
	name string
	run  func(env *xenv.Environment) any
}

// FindNativeMethod returns the method named name of the contract deployed at to.
// The second return value is false when nothing is deployed at to or the kind has no such method.
func FindNativeMethod(st *state.State, to scrap.Address, name string) (*NativeMethod, bool, error) {
	kind, err := registry.New(st).Kind(to)
	if err != nil {
		return nil, false, err
	}
	if kind == registry.KindNone {
		return nil, false, nil
	}
	m, ok := nativeMethods[methodKey{kind, name}]
	return m, ok, nil
}

// NativeMethods lists the method names of kind.
func NativeMethods(kind registry.Kind) []string {
	var names []string
	for key := range nativeMethods {
		if key.kind == kind {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return names
}

// check stops the call on err.
func check(env *xenv.Environment, err error) {
	if err != nil {
		env.Stop(err)
	}
}

// amountArg converts an amount argument, which must be present and non-negative.
func amountArg(env *xenv.Environment, v *math.HexOrDecimal256, name string) *big.Int {
	env.Require(v != nil, "missing %s", name)
	amount := (*big.Int)(v)
	env.Require(amount.Sign() >= 0, "negative %s", name)
	return amount
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}
