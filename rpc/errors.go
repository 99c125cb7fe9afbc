package rpc

import (
	"errors"

	hubErrors "graphhub/core/errors"
)

var errorCodes = []struct {
	err  error
	code int
}{
	{hubErrors.ErrNotGovernance, codeUnauthorized},
	{hubErrors.ErrNotGovernanceOrEmergencyAdmin, codeUnauthorized},
	{hubErrors.ErrEmergencyAdminCanOnlyPauseFurther, codeUnauthorized},
	{hubErrors.ErrExecutorInvalid, codeUnauthorized},
	{hubErrors.ErrNotWhitelisted, codeUnauthorized},
	{hubErrors.ErrNotOwnerOrApproved, codeUnauthorized},
	{hubErrors.ErrPaused, codePaused},
	{hubErrors.ErrPublishingPaused, codePaused},
	{hubErrors.ErrSignatureExpired, codeSignature},
	{hubErrors.ErrSignatureInvalid, codeSignature},
	{hubErrors.ErrNonceMismatch, codeSignature},
	{hubErrors.ErrTokenDoesNotExist, codeNotFound},
	{hubErrors.ErrOwnerQueryForNonexistentToken, codeNotFound},
	{hubErrors.ErrPublicationDoesNotExist, codeNotFound},
	{hubErrors.ErrInvalidParameter, codeInvalidParams},
	{hubErrors.ErrArrayMismatch, codeInvalidParams},
	{hubErrors.ErrMintToZeroAddress, codeRejected},
	{hubErrors.ErrAlreadyMinted, codeRejected},
	{hubErrors.ErrTransferFromIncorrectOwner, codeRejected},
	{hubErrors.ErrTransferToZeroAddress, codeRejected},
	{hubErrors.ErrApprovalToCurrentOwner, codeRejected},
	{hubErrors.ErrReceiverRejected, codeRejected},
	{hubErrors.ErrBlocked, codeRejected},
	{hubErrors.ErrSelfFollow, codeRejected},
	{hubErrors.ErrAlreadyFollowing, codeRejected},
	{hubErrors.ErrNotFollowing, codeRejected},
}

// hubError maps a hub failure to a JSON-RPC error. The message is the
// sentinel text so clients can match on it; Data carries the full chain.
func hubError(err error) *RPCError {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return &RPCError{Code: entry.code, Message: entry.err.Error(), Data: err.Error()}
		}
	}
	return &RPCError{Code: codeServerError, Message: "internal error", Data: err.Error()}
}
