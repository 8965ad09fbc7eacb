// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Cause returns the underlying error.
func (e *Error) Cause() error {
	return e.cause
}

// Unwrap supports errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr scrap.Address
	key  scrap.Bytes32
}

// bytes is the persistent key of the slot.
func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, scrap.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State manages the contract storage of the whole network.
// All changes are journaled and kept in memory until staged and committed.
type State struct {
	db kv.Store
	sm *stackedmap.StackedMap[storageKey, []byte]
}

// New create a state object over the given store.
func New(db kv.Store) *State {
	s := &State{db: db}
	s.sm = stackedmap.New(s.load)
	return s
}

func (s *State) load(key storageKey) ([]byte, bool, error) {
	v, err := s.db.Get(key.bytes())
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// GetRawStorage returns storage value in rlp raw for given key.
// Empty slot returns nil.
func (s *State) GetRawStorage(addr scrap.Address, key scrap.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// SetRawStorage set storage value in rlp raw. Empty raw value clears the slot.
func (s *State) SetRawStorage(addr scrap.Address, key scrap.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, bytes.Clone(raw))
}

// DecodeStorage get and decode storage value.
// dec is called even when the slot is empty, with empty raw.
func (s *State) DecodeStorage(addr scrap.Address, key scrap.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr scrap.Address, key scrap.Bytes32, enc func() ([]byte, error)) error {
	data, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, data)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision <= 0 {
		panic("invalid revision")
	}
	s.sm.PopTo(revision)
}

// Stage makes a stage object to compute the change set and commit state changes.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey][]byte)
	s.sm.Journal(func(key storageKey, value []byte) bool {
		changes[key] = value
		return true
	})
	return newStage(s.db, changes)
}
