package metatx

import (
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
)

type memoryState struct {
	data map[string][]byte
}

func newMemoryState() *memoryState {
	return &memoryState{data: make(map[string][]byte)}
}

func (m *memoryState) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.data[string(key)]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryState) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.data[string(key)] = encoded
	return nil
}

type stubContracts struct {
	magic  [4]byte
	digest common.Hash
}

func (s *stubContracts) IsContract(addr common.Address) bool {
	return addr == contractSigner
}

func (s *stubContracts) IsValidSignature(contract common.Address, digest common.Hash, signature []byte) ([4]byte, error) {
	s.digest = digest
	return s.magic, nil
}

var (
	contractSigner = common.HexToAddress("0x00000000000000000000000000000000000c0de1")
	hubAddress     = common.HexToAddress("0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d")
	fixedNow       = time.Unix(1_700_000_000, 0)
)

func testDomain() Domain {
	return Domain{Name: "Graph Hub", Version: "1", ChainID: *uint256.NewInt(137), VerifyingContract: hubAddress}
}

func newTestValidator(t *testing.T, contracts ContractSigners) *Validator {
	t.Helper()
	v := NewValidator(testDomain(), newMemoryState(), contracts)
	v.SetNowFunc(func() time.Time { return fixedNow })
	return v
}

func mustKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, ethcrypto.PubkeyToAddress(key.PublicKey)
}

func signBurn(t *testing.T, v *Validator, key *ecdsa.PrivateKey, p types.BurnParams, nonce, deadline uint64) types.EIP712Signature {
	t.Helper()
	digest := Digest(v.DomainSeparator(), HashBurn(p, nonce, deadline))
	sig, err := Sign(digest, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return types.EIP712Signature{Signer: ethcrypto.PubkeyToAddress(key.PublicKey), Signature: sig, Deadline: deadline}
}

func TestDomainSeparatorBindsChainAndContract(t *testing.T) {
	base := testDomain()
	otherChain := base
	otherChain.ChainID = *uint256.NewInt(1)
	otherContract := base
	otherContract.VerifyingContract = common.HexToAddress("0x01")
	if base.Separator() == otherChain.Separator() {
		t.Fatalf("separator must depend on chain id")
	}
	if base.Separator() == otherContract.Separator() {
		t.Fatalf("separator must depend on verifying contract")
	}
	if base.Separator() != testDomain().Separator() {
		t.Fatalf("separator must be deterministic")
	}
}

func TestKnownDeploymentFastPath(t *testing.T) {
	v := newTestValidator(t, nil)
	canned := common.HexToHash("0xabcdef")
	v.SetKnownDeployment(KnownDeployment{Address: common.HexToAddress("0x02"), Separator: canned})
	if v.DomainSeparator() != testDomain().Separator() {
		t.Fatalf("fast path must only apply to the matching contract")
	}
	v.SetKnownDeployment(testDomain().Known())
	if v.DomainSeparator() != testDomain().Separator() {
		t.Fatalf("precomputed separator must equal the generic computation")
	}
	v.SetKnownDeployment(KnownDeployment{Address: hubAddress, Separator: canned})
	if v.DomainSeparator() != canned {
		t.Fatalf("expected precomputed separator to be returned")
	}
}

func TestHashBurnEncoding(t *testing.T) {
	id := uint256.NewInt(42)
	th := ethcrypto.Keccak256([]byte("Burn(uint256 tokenId,uint256 nonce,uint256 deadline)"))
	idWord := id.Bytes32()
	nonceWord := uint256.NewInt(3).Bytes32()
	deadlineWord := uint256.NewInt(99).Bytes32()
	want := ethcrypto.Keccak256Hash(th, idWord[:], nonceWord[:], deadlineWord[:])
	if got := HashBurn(types.BurnParams{TokenID: *id}, 3, 99); got != want {
		t.Fatalf("unexpected burn hash: got %s want %s", got.Hex(), want.Hex())
	}
}

func TestHashFollowHashesBytesArrayElementWise(t *testing.T) {
	p := types.FollowParams{
		FollowerProfileID:     *uint256.NewInt(1),
		IDsOfProfilesToFollow: []uint256.Int{*uint256.NewInt(2)},
		FollowTokenIDs:        []uint256.Int{*uint256.NewInt(0)},
		Datas:                 [][]byte{[]byte("x")},
	}
	swapped := p
	swapped.Datas = [][]byte{ethcrypto.Keccak256([]byte("x"))}
	if HashFollow(p, 0, 1) == HashFollow(swapped, 0, 1) {
		t.Fatalf("bytes elements must be hashed before concatenation")
	}

	th := ethcrypto.Keccak256([]byte("Follow(uint256 followerProfileId,uint256[] idsOfProfilesToFollow,uint256[] followTokenIds,bytes[] datas,uint256 nonce,uint256 deadline)"))
	follower := uint256.NewInt(1).Bytes32()
	target := uint256.NewInt(2).Bytes32()
	token := uint256.NewInt(0).Bytes32()
	nonce := uint256.NewInt(0).Bytes32()
	deadline := uint256.NewInt(1).Bytes32()
	want := ethcrypto.Keccak256Hash(
		th,
		follower[:],
		ethcrypto.Keccak256(target[:]),
		ethcrypto.Keccak256(token[:]),
		ethcrypto.Keccak256(ethcrypto.Keccak256([]byte("x"))),
		nonce[:],
		deadline[:],
	)
	if got := HashFollow(p, 0, 1); got != want {
		t.Fatalf("unexpected follow hash: got %s want %s", got.Hex(), want.Hex())
	}
}

func TestCommentAndQuoteDiffer(t *testing.T) {
	p := types.CommentParams{ProfileID: *uint256.NewInt(1), ContentURI: "ipfs://c"}
	if HashComment(p, 0, 0) == HashQuote(types.QuoteParams(p), 0, 0) {
		t.Fatalf("comment and quote must use distinct type tags")
	}
}

func TestValidateConsumesNonceOnce(t *testing.T) {
	v := newTestValidator(t, nil)
	key, signer := mustKey(t)
	p := types.BurnParams{TokenID: *uint256.NewInt(7)}
	deadline := uint64(fixedNow.Unix()) + 60

	sig := signBurn(t, v, key, p, 0, deadline)
	if err := v.ValidateBurn(p, sig); err != nil {
		t.Fatalf("validate: %v", err)
	}
	nonce, err := v.Nonces().Nonce(signer)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if nonce != 1 {
		t.Fatalf("expected nonce 1, got %d", nonce)
	}
	if err := v.ValidateBurn(p, sig); !errors.Is(err, hubErrors.ErrSignatureInvalid) {
		t.Fatalf("expected replay to fail with signature invalid, got %v", err)
	}

	next := signBurn(t, v, key, p, 2, deadline)
	if err := v.ValidateBurn(p, next); err != nil {
		t.Fatalf("expected next sequential nonce to validate: %v", err)
	}
}

func TestValidateRejectsFutureNonce(t *testing.T) {
	v := newTestValidator(t, nil)
	key, _ := mustKey(t)
	p := types.BurnParams{TokenID: *uint256.NewInt(7)}
	sig := signBurn(t, v, key, p, 5, uint64(fixedNow.Unix())+60)
	if err := v.ValidateBurn(p, sig); !errors.Is(err, hubErrors.ErrSignatureInvalid) {
		t.Fatalf("expected out-of-order nonce to fail, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	v := newTestValidator(t, nil)
	key, _ := mustKey(t)
	p := types.BurnParams{TokenID: *uint256.NewInt(7)}
	sig := signBurn(t, v, key, p, 0, uint64(fixedNow.Unix())-1)
	if err := v.ValidateBurn(p, sig); !errors.Is(err, hubErrors.ErrSignatureExpired) {
		t.Fatalf("expected signature expired, got %v", err)
	}

	atDeadline := signBurn(t, v, key, p, 1, uint64(fixedNow.Unix()))
	if err := v.ValidateBurn(p, atDeadline); err != nil {
		t.Fatalf("deadline equal to now must be accepted: %v", err)
	}
}

func TestValidateWrongSigner(t *testing.T) {
	v := newTestValidator(t, nil)
	key, _ := mustKey(t)
	_, other := mustKey(t)
	p := types.BurnParams{TokenID: *uint256.NewInt(7)}
	sig := signBurn(t, v, key, p, 0, uint64(fixedNow.Unix())+60)
	sig.Signer = other
	if err := v.ValidateBurn(p, sig); !errors.Is(err, hubErrors.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}
}

func TestValidateAdvancesNonceBeforeSignatureCheck(t *testing.T) {
	v := newTestValidator(t, nil)
	_, signer := mustKey(t)
	sig := types.EIP712Signature{Signer: signer, Signature: make([]byte, 65), Deadline: uint64(fixedNow.Unix()) + 60}
	if err := v.ValidateBurn(types.BurnParams{}, sig); !errors.Is(err, hubErrors.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}
	nonce, err := v.Nonces().Nonce(signer)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if nonce != 1 {
		t.Fatalf("validator consumes the nonce on entry; got %d", nonce)
	}
}

func TestValidateContractSigner(t *testing.T) {
	contracts := &stubContracts{magic: ERC1271Magic}
	v := newTestValidator(t, contracts)
	p := types.PostParams{ProfileID: *uint256.NewInt(1), ContentURI: "ipfs://post"}
	deadline := uint64(fixedNow.Unix()) + 60
	sig := types.EIP712Signature{Signer: contractSigner, Signature: []byte{0x01}, Deadline: deadline}
	if err := v.ValidatePost(p, sig); err != nil {
		t.Fatalf("expected contract signer to validate: %v", err)
	}
	want := Digest(v.DomainSeparator(), HashPost(p, 0, deadline))
	if contracts.digest != want {
		t.Fatalf("contract received unexpected digest")
	}

	contracts.magic = [4]byte{0xde, 0xad, 0xbe, 0xef}
	if err := v.ValidatePost(p, sig); !errors.Is(err, hubErrors.ErrSignatureInvalid) {
		t.Fatalf("expected wrong magic to be rejected, got %v", err)
	}
}

func TestECDSAAcceptsBothRecoveryEncodings(t *testing.T) {
	key, signer := mustKey(t)
	digest := ethcrypto.Keccak256Hash([]byte("payload"))
	sig, err := Sign(digest, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := (ECDSARecovery{}).Verify(digest, signer, sig); err != nil {
		t.Fatalf("v in {27,28}: %v", err)
	}
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	if err := (ECDSARecovery{}).Verify(digest, signer, raw); err != nil {
		t.Fatalf("v in {0,1}: %v", err)
	}
	if err := (ECDSARecovery{}).Verify(digest, signer, sig[:64]); !errors.Is(err, hubErrors.ErrSignatureInvalid) {
		t.Fatalf("expected short signature to be rejected, got %v", err)
	}
}
