package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EIP712Signature authorises one meta-transaction. Signature is r||s||v with v
// in {0,1,27,28}; Deadline is a unix timestamp after which it is rejected.
type EIP712Signature struct {
	Signer    common.Address
	Signature []byte
	Deadline  uint64
}

// IsSet reports whether the signature carries any bytes.
func (s EIP712Signature) IsSet() bool { return len(s.Signature) > 0 }

type CreateProfileParams struct {
	To                   common.Address
	ImageURI             string
	FollowModule         common.Address
	FollowModuleInitData []byte
	FollowNFTURI         string
}

type SetProfileMetadataURIParams struct {
	ProfileID   uint256.Int
	MetadataURI string
}

type SetFollowModuleParams struct {
	ProfileID            uint256.Int
	FollowModule         common.Address
	FollowModuleInitData []byte
}

type ChangeDelegatedExecutorsConfigParams struct {
	DelegatorProfileID  uint256.Int
	DelegatedExecutors  []common.Address
	Approvals           []bool
	ConfigNumber        uint64
	SwitchToGivenConfig bool
}

type SetProfileImageURIParams struct {
	ProfileID uint256.Int
	ImageURI  string
}

type SetFollowNFTURIParams struct {
	ProfileID    uint256.Int
	FollowNFTURI string
}

type PostParams struct {
	ProfileID               uint256.Int
	ContentURI              string
	CollectModule           common.Address
	CollectModuleInitData   []byte
	ReferenceModule         common.Address
	ReferenceModuleInitData []byte
}

// CommentParams also describes quotes: both carry content and point at an
// existing publication.
type CommentParams struct {
	ProfileID               uint256.Int
	ContentURI              string
	PointedProfileID        uint256.Int
	PointedPubID            uint256.Int
	ReferrerProfileIDs      []uint256.Int
	ReferrerPubIDs          []uint256.Int
	ReferenceModuleData     []byte
	CollectModule           common.Address
	CollectModuleInitData   []byte
	ReferenceModule         common.Address
	ReferenceModuleInitData []byte
}

type QuoteParams CommentParams

type MirrorParams struct {
	ProfileID           uint256.Int
	MetadataURI         string
	PointedProfileID    uint256.Int
	PointedPubID        uint256.Int
	ReferrerProfileIDs  []uint256.Int
	ReferrerPubIDs      []uint256.Int
	ReferenceModuleData []byte
}

type BurnParams struct {
	TokenID uint256.Int
}

type FollowParams struct {
	FollowerProfileID     uint256.Int
	IDsOfProfilesToFollow []uint256.Int
	FollowTokenIDs        []uint256.Int
	Datas                 [][]byte
}

type UnfollowParams struct {
	UnfollowerProfileID     uint256.Int
	IDsOfProfilesToUnfollow []uint256.Int
}

type SetBlockStatusParams struct {
	ByProfileID                   uint256.Int
	IDsOfProfilesToSetBlockStatus []uint256.Int
	BlockStatus                   []bool
}

type CollectParams struct {
	PublicationCollectedProfileID uint256.Int
	PublicationCollectedID        uint256.Int
	CollectorProfileID            uint256.Int
	ReferrerProfileID             uint256.Int
	ReferrerPubID                 uint256.Int
	CollectModuleData             []byte
}

type TransferParams struct {
	From    common.Address
	To      common.Address
	TokenID uint256.Int
	Data    []byte
}

type ApproveParams struct {
	To      common.Address
	TokenID uint256.Int
}

type SetApprovalForAllParams struct {
	Operator common.Address
	Approved bool
}

type PermitParams struct {
	Spender common.Address
	TokenID uint256.Int
}

type PermitForAllParams struct {
	Owner    common.Address
	Operator common.Address
	Approved bool
}

type SetStateParams struct {
	State uint8
}

type AddressParams struct {
	Address common.Address
}

type WhitelistProfileCreatorParams struct {
	Creator   common.Address
	Whitelist bool
}
