package metatx

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"graphhub/core/types"
)

func typeHash(def string) common.Hash {
	return ethcrypto.Keccak256Hash([]byte(def))
}

const commentFields = "uint256 profileId,string contentURI,uint256 pointedProfileId,uint256 pointedPubId,uint256[] referrerProfileIds,uint256[] referrerPubIds,bytes referenceModuleData,address collectModule,bytes collectModuleInitData,address referenceModule,bytes referenceModuleInitData,uint256 nonce,uint256 deadline"

var (
	setProfileMetadataURITypeHash          = typeHash("SetProfileMetadataURI(uint256 profileId,string metadataURI,uint256 nonce,uint256 deadline)")
	setFollowModuleTypeHash                = typeHash("SetFollowModule(uint256 profileId,address followModule,bytes followModuleInitData,uint256 nonce,uint256 deadline)")
	changeDelegatedExecutorsConfigTypeHash = typeHash("ChangeDelegatedExecutorsConfig(uint256 delegatorProfileId,address[] delegatedExecutors,bool[] approvals,uint64 configNumber,bool switchToGivenConfig,uint256 nonce,uint256 deadline)")
	setProfileImageURITypeHash             = typeHash("SetProfileImageURI(uint256 profileId,string imageURI,uint256 nonce,uint256 deadline)")
	setFollowNFTURITypeHash                = typeHash("SetFollowNFTURI(uint256 profileId,string followNFTURI,uint256 nonce,uint256 deadline)")
	postTypeHash                           = typeHash("Post(uint256 profileId,string contentURI,address collectModule,bytes collectModuleInitData,address referenceModule,bytes referenceModuleInitData,uint256 nonce,uint256 deadline)")
	commentTypeHash                        = typeHash("Comment(" + commentFields + ")")
	quoteTypeHash                          = typeHash("Quote(" + commentFields + ")")
	mirrorTypeHash                         = typeHash("Mirror(uint256 profileId,string metadataURI,uint256 pointedProfileId,uint256 pointedPubId,uint256[] referrerProfileIds,uint256[] referrerPubIds,bytes referenceModuleData,uint256 nonce,uint256 deadline)")
	burnTypeHash                           = typeHash("Burn(uint256 tokenId,uint256 nonce,uint256 deadline)")
	followTypeHash                         = typeHash("Follow(uint256 followerProfileId,uint256[] idsOfProfilesToFollow,uint256[] followTokenIds,bytes[] datas,uint256 nonce,uint256 deadline)")
	unfollowTypeHash                       = typeHash("Unfollow(uint256 unfollowerProfileId,uint256[] idsOfProfilesToUnfollow,uint256 nonce,uint256 deadline)")
	setBlockStatusTypeHash                 = typeHash("SetBlockStatus(uint256 byProfileId,uint256[] idsOfProfilesToSetBlockStatus,bool[] blockStatus,uint256 nonce,uint256 deadline)")
	collectTypeHash                        = typeHash("Collect(uint256 publicationCollectedProfileId,uint256 publicationCollectedId,uint256 collectorProfileId,uint256 referrerProfileId,uint256 referrerPubId,bytes collectModuleData,uint256 nonce,uint256 deadline)")
	permitTypeHash                         = typeHash("Permit(address spender,uint256 tokenId,uint256 nonce,uint256 deadline)")
	permitForAllTypeHash                   = typeHash("PermitForAll(address owner,address operator,bool approved,uint256 nonce,uint256 deadline)")
)

func finish(enc *encoder, nonce, deadline uint64) common.Hash {
	enc.uint64(nonce)
	enc.uint64(deadline)
	return enc.hash()
}

// HashSetProfileMetadataURI returns the struct hash signed for a metadata update.
func HashSetProfileMetadataURI(p types.SetProfileMetadataURIParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(setProfileMetadataURITypeHash)
	enc.uint(p.ProfileID)
	enc.str(p.MetadataURI)
	return finish(&enc, nonce, deadline)
}

func HashSetFollowModule(p types.SetFollowModuleParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(setFollowModuleTypeHash)
	enc.uint(p.ProfileID)
	enc.address(p.FollowModule)
	enc.bytes(p.FollowModuleInitData)
	return finish(&enc, nonce, deadline)
}

func HashChangeDelegatedExecutorsConfig(p types.ChangeDelegatedExecutorsConfigParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(changeDelegatedExecutorsConfigTypeHash)
	enc.uint(p.DelegatorProfileID)
	enc.addresses(p.DelegatedExecutors)
	enc.bools(p.Approvals)
	enc.uint64(p.ConfigNumber)
	enc.boolean(p.SwitchToGivenConfig)
	return finish(&enc, nonce, deadline)
}

func HashSetProfileImageURI(p types.SetProfileImageURIParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(setProfileImageURITypeHash)
	enc.uint(p.ProfileID)
	enc.str(p.ImageURI)
	return finish(&enc, nonce, deadline)
}

func HashSetFollowNFTURI(p types.SetFollowNFTURIParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(setFollowNFTURITypeHash)
	enc.uint(p.ProfileID)
	enc.str(p.FollowNFTURI)
	return finish(&enc, nonce, deadline)
}

// HashPost returns the struct hash signed for a post.
func HashPost(p types.PostParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(postTypeHash)
	enc.uint(p.ProfileID)
	enc.str(p.ContentURI)
	enc.address(p.CollectModule)
	enc.bytes(p.CollectModuleInitData)
	enc.address(p.ReferenceModule)
	enc.bytes(p.ReferenceModuleInitData)
	return finish(&enc, nonce, deadline)
}

func hashReferencing(tag common.Hash, p types.CommentParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(tag)
	enc.uint(p.ProfileID)
	enc.str(p.ContentURI)
	enc.uint(p.PointedProfileID)
	enc.uint(p.PointedPubID)
	enc.uints(p.ReferrerProfileIDs)
	enc.uints(p.ReferrerPubIDs)
	enc.bytes(p.ReferenceModuleData)
	enc.address(p.CollectModule)
	enc.bytes(p.CollectModuleInitData)
	enc.address(p.ReferenceModule)
	enc.bytes(p.ReferenceModuleInitData)
	return finish(&enc, nonce, deadline)
}

func HashComment(p types.CommentParams, nonce, deadline uint64) common.Hash {
	return hashReferencing(commentTypeHash, p, nonce, deadline)
}

// HashQuote differs from HashComment only in its type tag.
func HashQuote(p types.QuoteParams, nonce, deadline uint64) common.Hash {
	return hashReferencing(quoteTypeHash, types.CommentParams(p), nonce, deadline)
}

func HashMirror(p types.MirrorParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(mirrorTypeHash)
	enc.uint(p.ProfileID)
	enc.str(p.MetadataURI)
	enc.uint(p.PointedProfileID)
	enc.uint(p.PointedPubID)
	enc.uints(p.ReferrerProfileIDs)
	enc.uints(p.ReferrerPubIDs)
	enc.bytes(p.ReferenceModuleData)
	return finish(&enc, nonce, deadline)
}

// HashBurn returns the struct hash signed for burning a token.
func HashBurn(p types.BurnParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(burnTypeHash)
	enc.uint(p.TokenID)
	return finish(&enc, nonce, deadline)
}

func HashFollow(p types.FollowParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(followTypeHash)
	enc.uint(p.FollowerProfileID)
	enc.uints(p.IDsOfProfilesToFollow)
	enc.uints(p.FollowTokenIDs)
	enc.bytesArray(p.Datas)
	return finish(&enc, nonce, deadline)
}

func HashUnfollow(p types.UnfollowParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(unfollowTypeHash)
	enc.uint(p.UnfollowerProfileID)
	enc.uints(p.IDsOfProfilesToUnfollow)
	return finish(&enc, nonce, deadline)
}

func HashSetBlockStatus(p types.SetBlockStatusParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(setBlockStatusTypeHash)
	enc.uint(p.ByProfileID)
	enc.uints(p.IDsOfProfilesToSetBlockStatus)
	enc.bools(p.BlockStatus)
	return finish(&enc, nonce, deadline)
}

func HashCollect(p types.CollectParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(collectTypeHash)
	enc.uint(p.PublicationCollectedProfileID)
	enc.uint(p.PublicationCollectedID)
	enc.uint(p.CollectorProfileID)
	enc.uint(p.ReferrerProfileID)
	enc.uint(p.ReferrerPubID)
	enc.bytes(p.CollectModuleData)
	return finish(&enc, nonce, deadline)
}

func HashPermit(p types.PermitParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(permitTypeHash)
	enc.address(p.Spender)
	enc.uint(p.TokenID)
	return finish(&enc, nonce, deadline)
}

func HashPermitForAll(p types.PermitForAllParams, nonce, deadline uint64) common.Hash {
	var enc encoder
	enc.word(permitForAllTypeHash)
	enc.address(p.Owner)
	enc.address(p.Operator)
	enc.boolean(p.Approved)
	return finish(&enc, nonce, deadline)
}
