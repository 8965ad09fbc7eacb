// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import "github.com/pkg/errors"

var (
	errKnownTx  = errors.New("known transaction")
	errPoolFull = errors.New("tx pool is full")
)

// IsErrKnownTx reports whether err is caused by a transaction already pending or included.
func IsErrKnownTx(err error) bool {
	return errors.Cause(err) == errKnownTx
}

// IsErrPoolFull reports whether err is caused by the pool limit.
func IsErrPoolFull(err error) bool {
	return errors.Cause(err) == errPoolFull
}

type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

// IsBadTx reports whether err rejects a malformed transaction.
func IsBadTx(err error) bool {
	_, ok := errors.Cause(err).(badTxError)
	return ok
}
