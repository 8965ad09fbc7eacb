// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
)

func TestRegistry(t *testing.T) {
	db, _ := lvldb.NewMem()
	r := New(state.New(db))

	farm := scrap.BytesToAddress([]byte("farm"))
	tk := scrap.BytesToAddress([]byte("token"))

	kind, err := r.Kind(farm)
	require.NoError(t, err)
	assert.Equal(t, KindNone, kind)

	require.NoError(t, r.Register(farm, KindFarm))
	require.NoError(t, r.Register(tk, KindToken))
	assert.ErrorIs(t, r.Register(farm, KindToken), reverts.ErrInvalidParameter)
	assert.ErrorIs(t, r.Register(scrap.Address{}, KindToken), reverts.ErrInvalidParameter)

	kind, _ = r.Kind(farm)
	assert.Equal(t, KindFarm, kind)

	var visited []Kind
	require.NoError(t, r.ForEach(func(_ scrap.Address, k Kind) bool {
		visited = append(visited, k)
		return true
	}))
	assert.Equal(t, []Kind{KindFarm, KindToken}, visited)
}
