package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/core/types"
)

const (
	TypeProfileCreated       = "profile.created"
	TypeProfileMetadataSet   = "profile.metadata_uri.set"
	TypeProfileImageURISet   = "profile.image_uri.set"
	TypeFollowModuleSet      = "profile.follow_module.set"
	TypeFollowNFTURISet      = "profile.follow_nft_uri.set"
	TypePublicationCreated   = "publication.created"
	TypePublicationCollected = "publication.collected"
	TypeFollowed             = "follow.followed"
	TypeUnfollowed           = "follow.unfollowed"
	TypeBlockStatusSet       = "follow.block_status.set"
)

// ProfileCreated is emitted when a profile token is minted.
type ProfileCreated struct {
	ProfileID    uint256.Int
	Creator      common.Address
	To           common.Address
	ImageURI     string
	FollowModule common.Address
	FollowNFTURI string
	Timestamp    uint64
}

// EventType implements the Event interface.
func (ProfileCreated) EventType() string { return TypeProfileCreated }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e ProfileCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeProfileCreated,
		Attributes: map[string]string{
			"profileId":    e.ProfileID.Dec(),
			"creator":      e.Creator.Hex(),
			"to":           e.To.Hex(),
			"imageURI":     e.ImageURI,
			"followModule": e.FollowModule.Hex(),
			"followNFTURI": e.FollowNFTURI,
			"timestamp":    strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// ProfileFieldSet covers the single-field profile updates. Type selects
// which field changed.
type ProfileFieldSet struct {
	Type      string
	ProfileID uint256.Int
	Value     string
}

// EventType implements the Event interface.
func (e ProfileFieldSet) EventType() string { return e.Type }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e ProfileFieldSet) Event() *types.Event {
	return &types.Event{
		Type: e.Type,
		Attributes: map[string]string{
			"profileId": e.ProfileID.Dec(),
			"value":     e.Value,
		},
	}
}

// PublicationCreated is emitted for posts, comments, mirrors and quotes.
type PublicationCreated struct {
	Kind             string
	ProfileID        uint256.Int
	PubID            uint256.Int
	ContentURI       string
	PointedProfileID uint256.Int
	PointedPubID     uint256.Int
	Timestamp        uint64
}

// EventType implements the Event interface.
func (PublicationCreated) EventType() string { return TypePublicationCreated }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e PublicationCreated) Event() *types.Event {
	return &types.Event{
		Type: TypePublicationCreated,
		Attributes: map[string]string{
			"kind":             e.Kind,
			"profileId":        e.ProfileID.Dec(),
			"pubId":            e.PubID.Dec(),
			"contentURI":       e.ContentURI,
			"pointedProfileId": e.PointedProfileID.Dec(),
			"pointedPubId":     e.PointedPubID.Dec(),
			"timestamp":        strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// PublicationCollected is emitted when a profile collects a publication.
type PublicationCollected struct {
	CollectorProfileID uint256.Int
	Collector          common.Address
	ProfileID          uint256.Int
	PubID              uint256.Int
	ReferrerProfileID  uint256.Int
	ReferrerPubID      uint256.Int
}

// EventType implements the Event interface.
func (PublicationCollected) EventType() string { return TypePublicationCollected }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e PublicationCollected) Event() *types.Event {
	return &types.Event{
		Type: TypePublicationCollected,
		Attributes: map[string]string{
			"collectorProfileId": e.CollectorProfileID.Dec(),
			"collector":          e.Collector.Hex(),
			"profileId":          e.ProfileID.Dec(),
			"pubId":              e.PubID.Dec(),
			"referrerProfileId":  e.ReferrerProfileID.Dec(),
			"referrerPubId":      e.ReferrerPubID.Dec(),
		},
	}
}

// Followed is emitted for every followed profile.
type Followed struct {
	FollowerProfileID uint256.Int
	FollowedProfileID uint256.Int
	FollowTokenID     uint256.Int
}

// EventType implements the Event interface.
func (Followed) EventType() string { return TypeFollowed }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e Followed) Event() *types.Event {
	return &types.Event{
		Type: TypeFollowed,
		Attributes: map[string]string{
			"followerProfileId": e.FollowerProfileID.Dec(),
			"followedProfileId": e.FollowedProfileID.Dec(),
			"followTokenId":     e.FollowTokenID.Dec(),
		},
	}
}

// Unfollowed is emitted for every unfollowed profile.
type Unfollowed struct {
	UnfollowerProfileID uint256.Int
	UnfollowedProfileID uint256.Int
}

// EventType implements the Event interface.
func (Unfollowed) EventType() string { return TypeUnfollowed }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e Unfollowed) Event() *types.Event {
	return &types.Event{
		Type: TypeUnfollowed,
		Attributes: map[string]string{
			"unfollowerProfileId": e.UnfollowerProfileID.Dec(),
			"unfollowedProfileId": e.UnfollowedProfileID.Dec(),
		},
	}
}

// BlockStatusSet is emitted when a profile blocks or unblocks another.
type BlockStatusSet struct {
	ByProfileID uint256.Int
	ProfileID   uint256.Int
	Blocked     bool
}

// EventType implements the Event interface.
func (BlockStatusSet) EventType() string { return TypeBlockStatusSet }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e BlockStatusSet) Event() *types.Event {
	return &types.Event{
		Type: TypeBlockStatusSet,
		Attributes: map[string]string{
			"byProfileId": e.ByProfileID.Dec(),
			"profileId":   e.ProfileID.Dec(),
			"blocked":     strconv.FormatBool(e.Blocked),
		},
	}
}
