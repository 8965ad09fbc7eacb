// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"slices"

	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/scrap"
)

type change struct {
	key   []byte
	value []byte
}

// Stage abstracts changes on the storage.
type Stage struct {
	db      kv.Store
	changes []change
}

func newStage(db kv.Store, changes map[storageKey][]byte) *Stage {
	sorted := make([]change, 0, len(changes))
	for k, v := range changes {
		sorted = append(sorted, change{k.bytes(), v})
	}
	slices.SortFunc(sorted, func(a, b change) int {
		return bytes.Compare(a.key, b.key)
	})
	return &Stage{db, sorted}
}

// Len returns the count of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Hash computes the digest of the change set. Identical change sets have identical hashes.
func (s *Stage) Hash() scrap.Bytes32 {
	return scrap.Blake2bFn(func(w io.Writer) {
		for _, c := range s.changes {
			w.Write(c.key)
			w.Write(c.value)
		}
	})
}

// Commit writes all changes in one batch.
func (s *Stage) Commit() error {
	batch := s.db.NewBatch()
	for _, c := range s.changes {
		var err error
		if len(c.value) == 0 {
			err = batch.Delete(c.key)
		} else {
			err = batch.Put(c.key, c.value)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
