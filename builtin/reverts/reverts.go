// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kinds of revert. Match them with errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInsufficientStake  = errors.New("insufficient stake")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrTransferFailed     = errors.New("transfer failed")
)

// ErrRevert is a business rule violation raised by a builtin contract.
// A reverted call leaves no state change behind.
type ErrRevert struct {
	kind    error
	message string
}

// New creates a revert error of the given kind.
func New(kind error, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
	}
}

func (e *ErrRevert) Error() string {
	if e.message == "" {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.message
}

// Message returns the message without the kind.
func (e *ErrRevert) Message() string {
	return e.message
}

// Kind returns the sentinel of the revert.
func (e *ErrRevert) Kind() error {
	return e.kind
}

// Is makes errors.Is(err, ErrXxx) match the kind.
func (e *ErrRevert) Is(target error) bool {
	return e.kind == target
}

// Arithmetic converts an error raised by overflow checked math into a revert.
func Arithmetic(err error, op string) *ErrRevert {
	return New(ErrArithmeticOverflow, "%s: %v", op, err)
}

// IsRevertErr reports whether err is, or wraps, a revert error.
func IsRevertErr(err error) bool {
	if err == nil {
		return false
	}
	var re *ErrRevert
	return errors.As(err, &re)
}
