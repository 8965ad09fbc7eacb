// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(buf *buf, key []byte) []byte {
	buf.k = append(append(buf.k[:0], b...), key...)
	return buf.k
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

// NewPutter wraps p to put keys under the bucket prefix. Several buckets may share one batch.
func (b Bucket) NewPutter(p Putter) Putter {
	return &bucketPutter{b, p}
}

type bucketPutter struct {
	bucket Bucket
	src    Putter
}

func (p *bucketPutter) Put(key, val []byte) error {
	return p.src.Put(append([]byte(p.bucket), key...), val)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(append([]byte(p.bucket), key...))
}

type bucketStore struct {
	bucket Bucket
	src    Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	return s.src.Get(s.bucket.key(buf, key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	return s.src.Has(s.bucket.key(buf, key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, val []byte) error {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	return s.src.Put(s.bucket.key(buf, key), val)
}

func (s *bucketStore) Delete(key []byte) error {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	return s.src.Delete(s.bucket.key(buf, key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.bucket, s.src.NewBatch()}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	start := append([]byte(s.bucket), r.Start...)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(s.bucket)).Limit
	} else {
		limit = append([]byte(s.bucket), r.Limit...)
	}
	return &bucketIterator{
		Iterator: s.src.Iterate(Range{Start: start, Limit: limit}),
		n:        len(s.bucket),
	}
}

type bucketBatch struct {
	bucket Bucket
	Batch
}

func (b *bucketBatch) Put(key, val []byte) error {
	// the batch keeps its own copy of the key
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	return b.Batch.Put(b.bucket.key(buf, key), val)
}

func (b *bucketBatch) Delete(key []byte) error {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	return b.Batch.Delete(b.bucket.key(buf, key))
}

type bucketIterator struct {
	Iterator
	n int
}

// Key strips the bucket prefix.
func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[i.n:]
}

type buf struct {
	k []byte
}

var bufPool = sync.Pool{
	New: func() any {
		return &buf{}
	},
}
