package metatx

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
)

// Validator turns EIP-712 signed payloads into authorisations. Every Validate*
// method shares one path: the signer's nonce is consumed first, then the
// deadline and signature are checked. Callers run validation inside an atomic
// transaction so a rejected signature never persists the nonce advance.
type Validator struct {
	domain  Domain
	known   *KnownDeployment
	nonces  *Nonces
	signers *SignerResolver
	nowFn   func() time.Time
}

// NewValidator constructs a validator bound to domain with nonces kept in
// state. contracts may be nil when no signer is a contract.
func NewValidator(domain Domain, state nonceState, contracts ContractSigners) *Validator {
	return &Validator{
		domain:  domain,
		nonces:  NewNonces(state),
		signers: NewSignerResolver(contracts),
		nowFn:   time.Now,
	}
}

// SetKnownDeployment enables the precomputed separator fast path.
func (v *Validator) SetKnownDeployment(known KnownDeployment) {
	if v == nil {
		return
	}
	k := known
	v.known = &k
}

// SetNowFunc overrides the clock used for deadline checks.
func (v *Validator) SetNowFunc(now func() time.Time) {
	if v == nil || now == nil {
		return
	}
	v.nowFn = now
}

// Domain returns the signing domain.
func (v *Validator) Domain() Domain { return v.domain }

// Nonces exposes the signer nonce store.
func (v *Validator) Nonces() *Nonces { return v.nonces }

// DomainSeparator returns the separator for the configured domain.
func (v *Validator) DomainSeparator() common.Hash {
	if v.known != nil && v.known.Address == v.domain.VerifyingContract {
		return v.known.Separator
	}
	return v.domain.Separator()
}

func (v *Validator) validate(sig types.EIP712Signature, structHash func(nonce uint64) common.Hash) error {
	nonce, err := v.nonces.Use(sig.Signer)
	if err != nil {
		return err
	}
	digest := Digest(v.DomainSeparator(), structHash(nonce))
	if sig.Deadline < uint64(v.nowFn().Unix()) {
		return hubErrors.ErrSignatureExpired
	}
	return v.signers.For(sig.Signer).Verify(digest, sig.Signer, sig.Signature)
}

func (v *Validator) ValidateSetProfileMetadataURI(p types.SetProfileMetadataURIParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashSetProfileMetadataURI(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateSetFollowModule(p types.SetFollowModuleParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashSetFollowModule(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateChangeDelegatedExecutorsConfig(p types.ChangeDelegatedExecutorsConfigParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashChangeDelegatedExecutorsConfig(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateSetProfileImageURI(p types.SetProfileImageURIParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashSetProfileImageURI(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateSetFollowNFTURI(p types.SetFollowNFTURIParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashSetFollowNFTURI(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidatePost(p types.PostParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashPost(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateComment(p types.CommentParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashComment(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateQuote(p types.QuoteParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashQuote(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateMirror(p types.MirrorParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashMirror(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateBurn(p types.BurnParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashBurn(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateFollow(p types.FollowParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashFollow(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateUnfollow(p types.UnfollowParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashUnfollow(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateSetBlockStatus(p types.SetBlockStatusParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashSetBlockStatus(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidateCollect(p types.CollectParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashCollect(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidatePermit(p types.PermitParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashPermit(p, nonce, sig.Deadline) })
}

func (v *Validator) ValidatePermitForAll(p types.PermitForAllParams, sig types.EIP712Signature) error {
	return v.validate(sig, func(nonce uint64) common.Hash { return HashPermitForAll(p, nonce, sig.Deadline) })
}
