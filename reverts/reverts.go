// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the typed failures a vault operation can abort with.
// Every failure reverts the whole operation; nothing is retried internally.
package reverts

import (
	"errors"
)

// Kind classifies a revert for callers that dispatch on failure class
// rather than on the individual failure.
type Kind uint8

const (
	KindUnknown  = Kind(iota)
	KindInput    // caller-correctable argument error
	KindState    // logical precondition not met, retry later or with other args
	KindAuth     // permission denied by the authorization registry
	KindTransfer // outbound asset movement failed, operation rolled back
)

// ErrRevert is a failure that aborted an operation atomically.
type ErrRevert struct {
	kind    Kind
	message string
}

// New creates a revert failure of the given kind.
func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the failure class.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// The complete set of failures observable at the vault boundary.
var (
	ErrZeroAmount          = New(KindInput, "zero amount")
	ErrZeroClaim           = New(KindInput, "zero claim")
	ErrInvalidTier         = New(KindInput, "invalid tier")
	ErrAmountOutOfRange    = New(KindInput, "amount exceeds 224 bits")
	ErrTimestampOutOfRange = New(KindInput, "timestamp exceeds 32 bits")

	ErrStakingDisabled       = New(KindState, "staking disabled")
	ErrInvalidStakeID        = New(KindState, "invalid stake id")
	ErrAlreadyWithdrawn      = New(KindState, "already withdrawn")
	ErrLockupNotElapsed      = New(KindState, "lockup not elapsed")
	ErrInsufficientClaimable = New(KindState, "insufficient claimable")

	ErrUnauthorized = New(KindAuth, "unauthorized")

	ErrTransferFailed = New(KindTransfer, "transfer failed")
)

// IsRevert reports whether err is (or wraps) a revert failure.
func IsRevert(err error) bool {
	var ve *ErrRevert
	return errors.As(err, &ve)
}

// KindOf returns the failure class of err, or KindUnknown if err is not a revert.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Kind()
	}
	return KindUnknown
}
