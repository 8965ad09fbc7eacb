// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(LegacyLevelCrit))
	assert.Equal(t, slog.LevelInfo, FromLegacyLevel(LegacyLevelInfo))
	assert.Equal(t, LevelTrace, FromLegacyLevel(LegacyLevelTrace))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, LevelCrit, FromLegacyLevel(-1))
}

func TestTerminalHandler(t *testing.T) {
	var out bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelInfo)

	l := NewLogger(NewTerminalHandlerWithLevel(&out, &lvl, false)).With("pkg", "farm")
	l.Debug("hidden")
	l.Info("pool added", "pid", 1, "reward", big.NewInt(10), "acc", uint256.NewInt(7))

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "INFO ["), line)
	assert.Contains(t, line, "pool added")
	assert.Contains(t, line, "pkg=farm")
	assert.Contains(t, line, "pid=1")
	assert.Contains(t, line, "reward=10")
	assert.Contains(t, line, "acc=7")
	assert.NotContains(t, line, "hidden")
}

func TestJSONHandler(t *testing.T) {
	var out bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelTrace)

	l := NewLogger(JSONHandlerWithLevel(&out, &lvl))
	l.Trace("accrue", "minted", big.NewInt(300))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "trace", rec["lvl"])
	assert.Equal(t, "accrue", rec["msg"])
	assert.Equal(t, "300", rec["minted"])
}

func TestWithContextFollowsRoot(t *testing.T) {
	logger := WithContext("pkg", "solo")

	var out bytes.Buffer
	prev := Root()
	defer SetDefault(prev)

	SetDefault(NewLogger(NewTerminalHandler(&out, false)))
	logger.Warn("clock drift", "offset", "2s")

	assert.Contains(t, out.String(), "WARN ")
	assert.Contains(t, out.String(), "pkg=solo")
}
