package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/core/types"
)

// Post publishes new content and returns the publication id, which counts up
// from 1 per profile.
func (h *Hub) Post(sender common.Address, p types.PostParams) (uint256.Int, error) {
	receipt, err := h.execute("post", func() (*uint256.Int, error) {
		return idResult(h.post(sender, p))
	})
	return resultID(receipt), err
}

// PostWithSig is Post with the signer as executor.
func (h *Hub) PostWithSig(p types.PostParams, sig types.EIP712Signature) (uint256.Int, error) {
	receipt, err := h.execute("postWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requirePublishingEnabled, h.validator.ValidatePost, p, sig); err != nil {
			return nil, err
		}
		return idResult(h.post(sig.Signer, p))
	})
	return resultID(receipt), err
}

func (h *Hub) post(executor common.Address, p types.PostParams) (uint256.Int, error) {
	if err := h.requirePublishingEnabled(); err != nil {
		return uint256.Int{}, err
	}
	if err := h.requireOwnerOrExecutor(p.ProfileID, executor); err != nil {
		return uint256.Int{}, err
	}
	return h.publications.Post(p)
}

// Comment publishes a comment on an existing publication.
func (h *Hub) Comment(sender common.Address, p types.CommentParams) (uint256.Int, error) {
	receipt, err := h.execute("comment", func() (*uint256.Int, error) {
		return idResult(h.comment(sender, p))
	})
	return resultID(receipt), err
}

// CommentWithSig is Comment with the signer as executor.
func (h *Hub) CommentWithSig(p types.CommentParams, sig types.EIP712Signature) (uint256.Int, error) {
	receipt, err := h.execute("commentWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requirePublishingEnabled, h.validator.ValidateComment, p, sig); err != nil {
			return nil, err
		}
		return idResult(h.comment(sig.Signer, p))
	})
	return resultID(receipt), err
}

func (h *Hub) comment(executor common.Address, p types.CommentParams) (uint256.Int, error) {
	if err := h.checkReferencing(executor, p.ProfileID, p.PointedProfileID); err != nil {
		return uint256.Int{}, err
	}
	return h.publications.Comment(p)
}

// Quote publishes a quote of an existing publication.
func (h *Hub) Quote(sender common.Address, p types.QuoteParams) (uint256.Int, error) {
	receipt, err := h.execute("quote", func() (*uint256.Int, error) {
		return idResult(h.quote(sender, p))
	})
	return resultID(receipt), err
}

// QuoteWithSig is Quote with the signer as executor.
func (h *Hub) QuoteWithSig(p types.QuoteParams, sig types.EIP712Signature) (uint256.Int, error) {
	receipt, err := h.execute("quoteWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requirePublishingEnabled, h.validator.ValidateQuote, p, sig); err != nil {
			return nil, err
		}
		return idResult(h.quote(sig.Signer, p))
	})
	return resultID(receipt), err
}

func (h *Hub) quote(executor common.Address, p types.QuoteParams) (uint256.Int, error) {
	if err := h.checkReferencing(executor, p.ProfileID, p.PointedProfileID); err != nil {
		return uint256.Int{}, err
	}
	return h.publications.Quote(p)
}

// Mirror republishes an existing publication under the executor's profile.
func (h *Hub) Mirror(sender common.Address, p types.MirrorParams) (uint256.Int, error) {
	receipt, err := h.execute("mirror", func() (*uint256.Int, error) {
		return idResult(h.mirror(sender, p))
	})
	return resultID(receipt), err
}

// MirrorWithSig is Mirror with the signer as executor.
func (h *Hub) MirrorWithSig(p types.MirrorParams, sig types.EIP712Signature) (uint256.Int, error) {
	receipt, err := h.execute("mirrorWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requirePublishingEnabled, h.validator.ValidateMirror, p, sig); err != nil {
			return nil, err
		}
		return idResult(h.mirror(sig.Signer, p))
	})
	return resultID(receipt), err
}

func (h *Hub) mirror(executor common.Address, p types.MirrorParams) (uint256.Int, error) {
	if err := h.checkReferencing(executor, p.ProfileID, p.PointedProfileID); err != nil {
		return uint256.Int{}, err
	}
	return h.publications.Mirror(p)
}

// checkReferencing applies the shared preconditions of comment, quote and
// mirror: publishing enabled, authorised executor, author not blocked by
// the pointed profile.
func (h *Hub) checkReferencing(executor common.Address, profileID, pointedProfileID uint256.Int) error {
	if err := h.requirePublishingEnabled(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(profileID, executor); err != nil {
		return err
	}
	return h.requireNotBlocked(pointedProfileID, profileID)
}

// Collect records a collect of a publication by the collector profile.
func (h *Hub) Collect(sender common.Address, p types.CollectParams) error {
	_, err := h.execute("collect", func() (*uint256.Int, error) {
		return nil, h.collect(sender, p)
	})
	return err
}

// CollectWithSig is Collect with the signer as executor.
func (h *Hub) CollectWithSig(p types.CollectParams, sig types.EIP712Signature) error {
	_, err := h.execute("collectWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateCollect, p, sig); err != nil {
			return nil, err
		}
		return nil, h.collect(sig.Signer, p)
	})
	return err
}

func (h *Hub) collect(executor common.Address, p types.CollectParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.CollectorProfileID, executor); err != nil {
		return err
	}
	rootProfileID, _, err := h.publications.ResolveCollectable(p.PublicationCollectedProfileID, p.PublicationCollectedID)
	if err != nil {
		return err
	}
	if err := h.requireNotBlocked(rootProfileID, p.CollectorProfileID); err != nil {
		return err
	}
	_, _, err = h.publications.Collect(executor, p)
	return err
}
