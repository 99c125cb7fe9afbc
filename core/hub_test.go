package core

import (
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
	"graphhub/core/genesis"
	"graphhub/core/state"
	"graphhub/core/types"
	"graphhub/native/metatx"
	"graphhub/native/protocol"
	"graphhub/storage"
)

var (
	hubAddress = common.HexToAddress("0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d")
	fixedNow   = time.Unix(1_700_000_000, 0)
	deadline   = uint64(fixedNow.Unix() + 3600)
)

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: ethcrypto.PubkeyToAddress(key.PublicKey)}
}

type fixture struct {
	hub     *Hub
	db      *storage.MemDB
	gov     account
	admin   account
	creator account
	alice   account
	bob     account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      storage.NewMemDB(),
		gov:     newAccount(t),
		admin:   newAccount(t),
		creator: newAccount(t),
		alice:   newAccount(t),
		bob:     newAccount(t),
	}
	t.Cleanup(f.db.Close)
	f.hub = f.open(t)
	spec, err := genesis.ParseSpec([]byte("chainId: 137\n" +
		"governance: \"" + f.gov.addr.Hex() + "\"\n" +
		"emergencyAdmin: \"" + f.admin.addr.Hex() + "\"\n" +
		"profileCreators:\n  - \"" + f.creator.addr.Hex() + "\"\n"))
	require.NoError(t, err)
	receipt, err := f.hub.InitGenesis(spec)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	return f
}

func (f *fixture) open(t *testing.T) *Hub {
	t.Helper()
	mgr, err := state.Open(f.db)
	require.NoError(t, err)
	h := NewHub(mgr, HubConfig{
		Domain: metatx.Domain{Name: "Graph Hub", Version: "1", ChainID: *uint256.NewInt(137), VerifyingContract: hubAddress},
	})
	h.SetNowFunc(func() time.Time { return fixedNow })
	return h
}

func (f *fixture) createProfile(t *testing.T, to common.Address) uint256.Int {
	t.Helper()
	id, err := f.hub.CreateProfile(f.creator.addr, types.CreateProfileParams{To: to, ImageURI: "ipfs://image"})
	require.NoError(t, err)
	return id
}

func (f *fixture) sign(t *testing.T, signer account, structHash func(nonce uint64) common.Hash) types.EIP712Signature {
	t.Helper()
	nonce, err := f.hub.SigNonce(signer.addr)
	require.NoError(t, err)
	digest := metatx.Digest(f.hub.DomainSeparator(), structHash(nonce))
	sig, err := metatx.Sign(digest, signer.key)
	require.NoError(t, err)
	return types.EIP712Signature{Signer: signer.addr, Signature: sig, Deadline: deadline}
}

func TestCreateProfileRequiresWhitelistedCreator(t *testing.T) {
	f := newFixture(t)

	_, err := f.hub.CreateProfile(f.alice.addr, types.CreateProfileParams{To: f.alice.addr})
	require.ErrorIs(t, err, hubErrors.ErrNotWhitelisted)

	first := f.createProfile(t, f.alice.addr)
	second := f.createProfile(t, f.bob.addr)
	require.Equal(t, uint64(1), first.Uint64())
	require.Equal(t, uint64(2), second.Uint64())

	view, err := f.hub.Profile(first)
	require.NoError(t, err)
	require.Equal(t, f.alice.addr, view.Owner)
	require.Equal(t, uint64(fixedNow.Unix()), view.MintTimestamp)
	require.Equal(t, "ipfs://image", view.Profile.ImageURI)
}

func TestPausedThenUnpausedPostsGetSequentialIDs(t *testing.T) {
	f := newFixture(t)
	profile := f.createProfile(t, f.alice.addr)

	require.NoError(t, f.hub.SetState(f.gov.addr, protocol.Paused))
	_, err := f.hub.Post(f.alice.addr, types.PostParams{ProfileID: profile, ContentURI: "ipfs://1"})
	require.ErrorIs(t, err, hubErrors.ErrPaused)
	_, err = f.hub.CreateProfile(f.creator.addr, types.CreateProfileParams{To: f.bob.addr})
	require.ErrorIs(t, err, hubErrors.ErrPaused)

	require.NoError(t, f.hub.SetState(f.gov.addr, protocol.Unpaused))
	first, err := f.hub.Post(f.alice.addr, types.PostParams{ProfileID: profile, ContentURI: "ipfs://1"})
	require.NoError(t, err)
	second, err := f.hub.Post(f.alice.addr, types.PostParams{ProfileID: profile, ContentURI: "ipfs://2"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.Uint64())
	require.Equal(t, uint64(2), second.Uint64())
}

func TestPublishingPausedStillAllowsGraphActions(t *testing.T) {
	f := newFixture(t)
	alice := f.createProfile(t, f.alice.addr)
	bob := f.createProfile(t, f.bob.addr)
	pub, err := f.hub.Post(f.bob.addr, types.PostParams{ProfileID: bob, ContentURI: "ipfs://bob"})
	require.NoError(t, err)

	require.NoError(t, f.hub.SetState(f.admin.addr, protocol.PublishingPaused))

	_, err = f.hub.Post(f.alice.addr, types.PostParams{ProfileID: alice})
	require.ErrorIs(t, err, hubErrors.ErrPublishingPaused)
	_, err = f.hub.Comment(f.alice.addr, types.CommentParams{ProfileID: alice, PointedProfileID: bob, PointedPubID: pub})
	require.ErrorIs(t, err, hubErrors.ErrPublishingPaused)
	_, err = f.hub.Mirror(f.alice.addr, types.MirrorParams{ProfileID: alice, PointedProfileID: bob, PointedPubID: pub})
	require.ErrorIs(t, err, hubErrors.ErrPublishingPaused)

	_, err = f.hub.Follow(f.alice.addr, types.FollowParams{
		FollowerProfileID:     alice,
		IDsOfProfilesToFollow: []uint256.Int{bob},
		FollowTokenIDs:        []uint256.Int{{}},
		Datas:                 [][]byte{nil},
	})
	require.NoError(t, err)
	require.NoError(t, f.hub.Collect(f.alice.addr, types.CollectParams{
		PublicationCollectedProfileID: bob,
		PublicationCollectedID:        pub,
		CollectorProfileID:            alice,
	}))
	require.NoError(t, f.hub.SetProfileMetadataURI(f.alice.addr, types.SetProfileMetadataURIParams{ProfileID: alice, MetadataURI: "ipfs://meta"}))
}

func TestEmergencyAdminCanOnlyPauseFurther(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.hub.SetState(f.admin.addr, protocol.PublishingPaused))
	require.ErrorIs(t, f.hub.SetState(f.admin.addr, protocol.Unpaused), hubErrors.ErrEmergencyAdminCanOnlyPauseFurther)
	require.ErrorIs(t, f.hub.SetState(f.admin.addr, protocol.PublishingPaused), hubErrors.ErrEmergencyAdminCanOnlyPauseFurther)
	require.NoError(t, f.hub.SetState(f.admin.addr, protocol.Paused))
	require.ErrorIs(t, f.hub.SetState(f.alice.addr, protocol.Unpaused), hubErrors.ErrNotGovernanceOrEmergencyAdmin)

	require.NoError(t, f.hub.SetState(f.gov.addr, protocol.Unpaused))
	st, err := f.hub.ProtocolState()
	require.NoError(t, err)
	require.Equal(t, protocol.Unpaused, st)
}

func TestPostWithSigConsumesNonceOnce(t *testing.T) {
	f := newFixture(t)
	profile := f.createProfile(t, f.alice.addr)
	params := types.PostParams{ProfileID: profile, ContentURI: "ipfs://signed"}
	sig := f.sign(t, f.alice, func(nonce uint64) common.Hash { return metatx.HashPost(params, nonce, deadline) })

	id, err := f.hub.PostWithSig(params, sig)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id.Uint64())

	nonce, err := f.hub.SigNonce(f.alice.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)

	_, err = f.hub.PostWithSig(params, sig)
	require.ErrorIs(t, err, hubErrors.ErrSignatureInvalid)
	nonce, err = f.hub.SigNonce(f.alice.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)
}

func TestRejectedSignedCallLeavesNonceUntouched(t *testing.T) {
	f := newFixture(t)
	profile := f.createProfile(t, f.alice.addr)
	params := types.PostParams{ProfileID: profile, ContentURI: "ipfs://intruder"}

	// Bob signs a valid signature but is neither owner nor executor.
	sig := f.sign(t, f.bob, func(nonce uint64) common.Hash { return metatx.HashPost(params, nonce, deadline) })
	_, err := f.hub.PostWithSig(params, sig)
	require.ErrorIs(t, err, hubErrors.ErrExecutorInvalid)

	nonce, err := f.hub.SigNonce(f.bob.addr)
	require.NoError(t, err)
	require.Zero(t, nonce)

	expired := types.PostParams{ProfileID: profile, ContentURI: "ipfs://late"}
	sig = f.sign(t, f.alice, func(nonce uint64) common.Hash {
		return metatx.HashPost(expired, nonce, uint64(fixedNow.Unix()-1))
	})
	sig.Deadline = uint64(fixedNow.Unix() - 1)
	_, err = f.hub.PostWithSig(expired, sig)
	require.ErrorIs(t, err, hubErrors.ErrSignatureExpired)
	nonce, err = f.hub.SigNonce(f.alice.addr)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

func TestDelegatedExecutorRevokedOnTransfer(t *testing.T) {
	f := newFixture(t)
	executor := newAccount(t)
	profile := f.createProfile(t, f.alice.addr)

	require.ErrorIs(t, f.hub.ChangeDelegatedExecutorsConfig(executor.addr, types.ChangeDelegatedExecutorsConfigParams{
		DelegatorProfileID: profile,
		DelegatedExecutors: []common.Address{executor.addr},
		Approvals:          []bool{true},
	}), hubErrors.ErrExecutorInvalid)

	require.NoError(t, f.hub.ChangeDelegatedExecutorsConfig(f.alice.addr, types.ChangeDelegatedExecutorsConfigParams{
		DelegatorProfileID: profile,
		DelegatedExecutors: []common.Address{executor.addr},
		Approvals:          []bool{true},
	}))
	_, err := f.hub.Post(executor.addr, types.PostParams{ProfileID: profile, ContentURI: "ipfs://delegated"})
	require.NoError(t, err)

	require.NoError(t, f.hub.TransferProfileKeepingDelegates(f.alice.addr, types.TransferParams{From: f.alice.addr, To: f.bob.addr, TokenID: profile}))
	_, err = f.hub.Post(executor.addr, types.PostParams{ProfileID: profile})
	require.NoError(t, err)

	require.NoError(t, f.hub.TransferProfile(f.bob.addr, types.TransferParams{From: f.bob.addr, To: f.alice.addr, TokenID: profile}))
	_, err = f.hub.Post(executor.addr, types.PostParams{ProfileID: profile})
	require.ErrorIs(t, err, hubErrors.ErrExecutorInvalid)

	approved, err := f.hub.IsDelegatedExecutorApproved(profile, executor.addr)
	require.NoError(t, err)
	require.False(t, approved)
	cfg, err := f.hub.DelegationConfig(profile)
	require.NoError(t, err)
	require.Equal(t, uint64(1), cfg.ConfigNumber)
}

func TestBlockedProfileCannotReference(t *testing.T) {
	f := newFixture(t)
	alice := f.createProfile(t, f.alice.addr)
	bob := f.createProfile(t, f.bob.addr)
	pub, err := f.hub.Post(f.bob.addr, types.PostParams{ProfileID: bob, ContentURI: "ipfs://bob"})
	require.NoError(t, err)

	require.NoError(t, f.hub.SetBlockStatus(f.bob.addr, types.SetBlockStatusParams{
		ByProfileID:                   bob,
		IDsOfProfilesToSetBlockStatus: []uint256.Int{alice},
		BlockStatus:                   []bool{true},
	}))

	_, err = f.hub.Comment(f.alice.addr, types.CommentParams{ProfileID: alice, PointedProfileID: bob, PointedPubID: pub})
	require.ErrorIs(t, err, hubErrors.ErrBlocked)
	_, err = f.hub.Quote(f.alice.addr, types.QuoteParams{ProfileID: alice, PointedProfileID: bob, PointedPubID: pub})
	require.ErrorIs(t, err, hubErrors.ErrBlocked)
	require.ErrorIs(t, f.hub.Collect(f.alice.addr, types.CollectParams{
		PublicationCollectedProfileID: bob,
		PublicationCollectedID:        pub,
		CollectorProfileID:            alice,
	}), hubErrors.ErrBlocked)
	_, err = f.hub.Follow(f.alice.addr, types.FollowParams{
		FollowerProfileID:     alice,
		IDsOfProfilesToFollow: []uint256.Int{bob},
		FollowTokenIDs:        []uint256.Int{{}},
		Datas:                 [][]byte{nil},
	})
	require.ErrorIs(t, err, hubErrors.ErrBlocked)
}

func TestFailedTransactionEmitsNothing(t *testing.T) {
	f := newFixture(t)
	profile := f.createProfile(t, f.alice.addr)
	ch, cancel := f.hub.Feed().Subscribe()
	defer cancel()
	root, height := f.hub.Head()

	_, err := f.hub.Post(f.bob.addr, types.PostParams{ProfileID: profile})
	require.ErrorIs(t, err, hubErrors.ErrExecutorInvalid)
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.EventType())
	default:
	}
	afterRoot, afterHeight := f.hub.Head()
	require.Equal(t, root, afterRoot)
	require.Equal(t, height, afterHeight)

	_, err = f.hub.Post(f.alice.addr, types.PostParams{ProfileID: profile, ContentURI: "ipfs://ok"})
	require.NoError(t, err)
	evt := <-ch
	require.Equal(t, events.TypePublicationCreated, evt.EventType())
}

func TestApplyTransactionDispatchesSignedCalls(t *testing.T) {
	f := newFixture(t)

	payload, err := types.EncodeCall(types.CreateProfileParams{To: f.alice.addr}, types.EIP712Signature{})
	require.NoError(t, err)
	tx := &types.Transaction{Type: types.TxTypeCreateProfile, Nonce: 0, ChainID: big.NewInt(137), Data: payload}
	require.NoError(t, tx.Sign(f.creator.key))

	receipt, err := f.hub.ApplyTransaction(tx)
	require.NoError(t, err)
	require.Equal(t, "createProfile", receipt.Op)
	require.NotNil(t, receipt.Result)
	require.Equal(t, uint64(1), receipt.Result.Uint64())
	require.NotEmpty(t, receipt.Events)

	_, err = f.hub.ApplyTransaction(tx)
	require.ErrorIs(t, err, hubErrors.ErrNonceMismatch)

	wrongChain := &types.Transaction{Type: types.TxTypeCreateProfile, Nonce: 1, ChainID: big.NewInt(1), Data: payload}
	require.NoError(t, wrongChain.Sign(f.creator.key))
	_, err = f.hub.ApplyTransaction(wrongChain)
	require.ErrorIs(t, err, hubErrors.ErrInvalidParameter)

	// A relayer submits alice's signed post.
	relayer := newAccount(t)
	params := types.PostParams{ProfileID: *uint256.NewInt(1), ContentURI: "ipfs://relayed"}
	sig := f.sign(t, f.alice, func(nonce uint64) common.Hash { return metatx.HashPost(params, nonce, deadline) })
	payload, err = types.EncodeCall(params, sig)
	require.NoError(t, err)
	relayed := &types.Transaction{Type: types.TxTypePost, Nonce: 0, ChainID: big.NewInt(137), Data: payload}
	require.NoError(t, relayed.Sign(relayer.key))
	receipt, err = f.hub.ApplyTransaction(relayed)
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Result.Uint64())

	nonce, err := f.hub.AccountNonce(relayer.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)
}

func TestApplyTransactionRejectsSignatureOnUnsignedEntryPoint(t *testing.T) {
	f := newFixture(t)
	payload, err := types.EncodeCall(types.CreateProfileParams{To: f.alice.addr}, types.EIP712Signature{Signer: f.alice.addr, Signature: []byte{1}})
	require.NoError(t, err)
	tx := &types.Transaction{Type: types.TxTypeCreateProfile, ChainID: big.NewInt(137), Data: payload}
	require.NoError(t, tx.Sign(f.creator.key))

	_, err = f.hub.ApplyTransaction(tx)
	require.ErrorIs(t, err, hubErrors.ErrInvalidParameter)
	nonce, err := f.hub.AccountNonce(f.creator.addr)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

func TestStateSurvivesReopen(t *testing.T) {
	f := newFixture(t)
	profile := f.createProfile(t, f.alice.addr)
	root, height := f.hub.Head()

	reopened := f.open(t)
	gotRoot, gotHeight := reopened.Head()
	require.Equal(t, root, gotRoot)
	require.Equal(t, height, gotHeight)
	owner, err := reopened.OwnerOf(profile)
	require.NoError(t, err)
	require.Equal(t, f.alice.addr, owner)

	receipt, err := reopened.InitGenesis(&genesis.Spec{})
	require.NoError(t, err)
	require.Nil(t, receipt)
}
