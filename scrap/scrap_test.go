// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scrap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	require.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	_, err = ParseAddress("7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)

	_, err = ParseAddress("1x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.EqualError(t, err, "invalid prefix")

	_, err = ParseAddress("0x7567d8")
	assert.EqualError(t, err, "invalid length")

	_, err = ParseAddress("0xz567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("farm"))

	type wrapper struct {
		Addr Address `json:"addr"`
	}
	data, err := json.Marshal(wrapper{addr})
	require.NoError(t, err)
	assert.Equal(t, `{"addr":"0x000000000000000000000000000000006661726d"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal(data, &w))
	assert.Equal(t, addr, w.Addr)
}

func TestCreatePairAddress(t *testing.T) {
	factory := BytesToAddress([]byte("factory"))
	a := BytesToAddress([]byte("a"))
	b := BytesToAddress([]byte("b"))

	assert.Equal(t, CreatePairAddress(factory, a, b), CreatePairAddress(factory, b, a))
	assert.NotEqual(t, CreatePairAddress(factory, a, b), CreatePairAddress(BytesToAddress([]byte("other")), a, b))
	assert.False(t, CreatePairAddress(factory, a, b).IsZero())
}

func TestSortAddresses(t *testing.T) {
	a := BytesToAddress([]byte{1})
	b := BytesToAddress([]byte{2})

	x, y := SortAddresses(b, a)
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)

	x, y = SortAddresses(a, b)
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)
}

func TestHash(t *testing.T) {
	assert.Equal(t,
		MustParseBytes32("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256(nil))
	assert.Equal(t,
		MustParseBytes32("0x0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"),
		Blake2b([]byte{}))

	// the multi part version hashes the concatenation
	assert.Equal(t, Blake2b([]byte("pool"), []byte("user")), Blake2b([]byte("pooluser")))
}

func TestBytes32(t *testing.T) {
	b := Uint64ToBytes32(0x0102)
	assert.Equal(t, byte(0x01), b[30])
	assert.Equal(t, byte(0x02), b[31])
	assert.False(t, b.IsZero())

	data, err := json.Marshal(&b)
	require.NoError(t, err)

	var decoded Bytes32
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, decoded)

	_, err = ParseBytes32("0x01")
	assert.EqualError(t, err, "invalid length")
}
