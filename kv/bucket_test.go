// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/lvldb"
)

func TestBucketStore(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, db.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, db.Put([]byte("x1"), []byte("other")))

	tests := []struct {
		b    kv.Bucket
		key  string
		want string
	}{
		{kv.Bucket(""), "k1", "v1"},
		{kv.Bucket("k"), "1", "v1"},
		{kv.Bucket("k"), "2", "v2"},
		{kv.Bucket("k1"), "", "v1"},
		{kv.Bucket("k"), "k1", ""},
	}
	for _, tt := range tests {
		store := tt.b.NewStore(db)
		got, err := store.Get([]byte(tt.key))
		if tt.want == "" {
			assert.True(t, store.IsNotFound(err), "%s%s", tt.b, tt.key)
		} else {
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		}
		has, err := store.Has([]byte(tt.key))
		require.NoError(t, err)
		assert.Equal(t, tt.want != "", has)
	}

	store := kv.Bucket("k").NewStore(db)
	require.NoError(t, store.Put([]byte("3"), []byte("v3")))
	v, err := db.Get([]byte("k3"))
	require.NoError(t, err)
	assert.Equal(t, "v3", string(v))

	require.NoError(t, store.Delete([]byte("3")))
	has, err := db.Has([]byte("k3"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBucketIterate(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store := kv.Bucket("b.").NewStore(db)
	batch := store.NewBatch()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, batch.Put([]byte(k), []byte("v"+k)))
	}
	// outside the bucket
	require.NoError(t, db.Put([]byte("c.a"), []byte("x")))
	assert.Equal(t, 3, batch.Len())
	require.NoError(t, batch.Write())

	collect := func(r kv.Range) (keys []string) {
		it := store.Iterate(r)
		defer it.Release()
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Error())
		return
	}
	assert.Equal(t, []string{"a", "b", "c"}, collect(kv.Range{}))
	assert.Equal(t, []string{"b"}, collect(kv.Range{Start: []byte("b"), Limit: []byte("c")}))
}

func TestBucketPutterSharesBatch(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	batch := db.NewBatch()
	require.NoError(t, kv.Bucket("x.").NewPutter(batch).Put([]byte("1"), []byte("a")))
	require.NoError(t, kv.Bucket("y.").NewPutter(batch).Put([]byte("1"), []byte("b")))
	require.NoError(t, kv.Bucket("y.").NewPutter(batch).Delete([]byte("2")))
	require.NoError(t, batch.Write())

	v, err := kv.Bucket("x.").NewStore(db).Get([]byte("1"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(v))
	v, err = kv.Bucket("y.").NewStore(db).Get([]byte("1"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))
}
