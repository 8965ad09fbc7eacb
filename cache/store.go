// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/scrapyard/scrapmaster/kv"
)

const (
	flagAbsent  byte = 0
	flagPresent byte = 1
)

var errAbsent = errors.New("not found")

// Store is a kv store that keeps recently read or written values in a fixed size cache.
// Absent keys are cached too. All writes to src must go through the Store, or the cache turns stale.
type Store struct {
	src   kv.Store
	blobs *directcache.Cache
	lock  sync.RWMutex
	stats Stats
}

var _ kv.Store = (*Store)(nil)

// NewStore wraps src with a cache of sizeMB megabytes, its stats exported under name.
func NewStore(name string, src kv.Store, sizeMB int) *Store {
	return &Store{
		src:   src,
		blobs: directcache.New(sizeMB * 1024 * 1024),
		stats: newStats(name),
	}
}

func (s *Store) cached(key []byte) (val []byte, present bool, hit bool) {
	hit = s.blobs.AdvGet(key, func(entry []byte) {
		if len(entry) > 0 && entry[0] == flagPresent {
			present = true
			val = slices.Clone(entry[1:])
		}
	}, false)
	return
}

func (s *Store) setPresent(key, val []byte) {
	_ = s.blobs.AdvSet(key, len(val)+1, func(entry []byte) {
		entry[0] = flagPresent
		copy(entry[1:], val)
	})
}

func (s *Store) setAbsent(key []byte) {
	_ = s.blobs.Set(key, []byte{flagAbsent})
}

func (s *Store) Get(key []byte) ([]byte, error) {
	if val, present, hit := s.cached(key); hit {
		s.stats.Hit()
		if !present {
			return nil, errAbsent
		}
		return val, nil
	}
	s.stats.Miss()

	// a concurrent write must not land between loading and caching
	s.lock.RLock()
	defer s.lock.RUnlock()

	val, err := s.src.Get(key)
	if err != nil {
		if s.src.IsNotFound(err) {
			s.setAbsent(key)
		}
		return nil, err
	}
	s.setPresent(key, val)
	return val, nil
}

func (s *Store) Has(key []byte) (bool, error) {
	if _, err := s.Get(key); err != nil {
		if s.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) IsNotFound(err error) bool {
	return err == errAbsent || s.src.IsNotFound(err)
}

func (s *Store) Put(key, val []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.src.Put(key, val); err != nil {
		return err
	}
	s.setPresent(key, val)
	return nil
}

func (s *Store) Delete(key []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.src.Delete(key); err != nil {
		return err
	}
	s.setAbsent(key)
	return nil
}

func (s *Store) NewBatch() kv.Batch {
	return &storeBatch{Batch: s.src.NewBatch(), store: s}
}

func (s *Store) Iterate(r kv.Range) kv.Iterator {
	return s.src.Iterate(r)
}

// Stats returns the hit/miss stats of Get.
func (s *Store) Stats() *Stats {
	return &s.stats
}

type batchOp struct {
	key []byte
	val []byte // nil for deletion
}

// storeBatch updates the cache once the batch is written.
type storeBatch struct {
	kv.Batch
	store *Store
	ops   []batchOp
}

func (b *storeBatch) Put(key, val []byte) error {
	if err := b.Batch.Put(key, val); err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{slices.Clone(key), slices.Clone(val)})
	return nil
}

func (b *storeBatch) Delete(key []byte) error {
	if err := b.Batch.Delete(key); err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{key: slices.Clone(key)})
	return nil
}

func (b *storeBatch) Write() error {
	b.store.lock.Lock()
	defer b.store.lock.Unlock()

	if err := b.Batch.Write(); err != nil {
		return err
	}
	for _, op := range b.ops {
		if op.val == nil {
			b.store.setAbsent(op.key)
		} else {
			b.store.setPresent(op.key, op.val)
		}
	}
	b.ops = nil
	return nil
}
