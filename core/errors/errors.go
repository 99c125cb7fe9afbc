// Package errors holds the closed set of failure conditions surfaced by the
// hub. Every rejected operation returns (or wraps) exactly one of these so
// callers can match with errors.Is.
package errors

import stderrors "errors"

// Authorization.
var (
	ErrNotGovernance                     = stderrors.New("hub: caller is not governance")
	ErrNotGovernanceOrEmergencyAdmin     = stderrors.New("hub: caller is not governance or emergency admin")
	ErrEmergencyAdminCanOnlyPauseFurther = stderrors.New("hub: emergency admin can only pause further")
	ErrExecutorInvalid                   = stderrors.New("hub: executor is neither owner nor approved delegate")
	ErrNotWhitelisted                    = stderrors.New("hub: caller is not a whitelisted profile creator")
)

// Protocol state gates.
var (
	ErrPaused           = stderrors.New("hub: protocol paused")
	ErrPublishingPaused = stderrors.New("hub: publishing paused")
)

// Signatures and replay protection.
var (
	ErrSignatureExpired = stderrors.New("hub: signature expired")
	ErrSignatureInvalid = stderrors.New("hub: signature invalid")
	ErrNonceMismatch    = stderrors.New("hub: transaction nonce mismatch")
)

// Ownership ledger.
var (
	ErrTokenDoesNotExist             = stderrors.New("ledger: token does not exist")
	ErrOwnerQueryForNonexistentToken = stderrors.New("ledger: owner query for nonexistent token")
	ErrMintToZeroAddress             = stderrors.New("ledger: mint to the zero address")
	ErrAlreadyMinted                 = stderrors.New("ledger: token already minted")
	ErrTransferFromIncorrectOwner    = stderrors.New("ledger: transfer of token that is not own")
	ErrTransferToZeroAddress         = stderrors.New("ledger: transfer to the zero address")
	ErrApprovalToCurrentOwner        = stderrors.New("ledger: approval to current owner")
	ErrNotOwnerOrApproved            = stderrors.New("ledger: caller is not owner nor approved")
	ErrReceiverRejected              = stderrors.New("ledger: transfer to non ERC721Receiver implementer")
)

// Parameters and social graph.
var (
	ErrArrayMismatch           = stderrors.New("hub: array length mismatch")
	ErrInvalidParameter        = stderrors.New("hub: invalid parameter")
	ErrPublicationDoesNotExist = stderrors.New("hub: publication does not exist")
	ErrBlocked                 = stderrors.New("hub: profile is blocked")
	ErrSelfFollow              = stderrors.New("hub: profile cannot follow itself")
	ErrAlreadyFollowing        = stderrors.New("hub: already following")
	ErrNotFollowing            = stderrors.New("hub: not following")
)
