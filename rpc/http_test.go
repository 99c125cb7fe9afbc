package rpc

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"nhooyr.io/websocket"

	"graphhub/core"
	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
	"graphhub/core/genesis"
	"graphhub/core/state"
	"graphhub/core/types"
	"graphhub/native/metatx"
	"graphhub/storage"
)

type testNode struct {
	hub     *core.Hub
	server  *httptest.Server
	creator *ecdsa.PrivateKey
	gov     *ecdsa.PrivateKey
}

func newTestNode(t *testing.T, limit RateLimit) *testNode {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr, err := state.Open(db)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	hub := core.NewHub(mgr, core.HubConfig{
		Domain: metatx.Domain{Name: "Graph Hub", Version: "1", ChainID: *uint256.NewInt(137), VerifyingContract: common.HexToAddress("0x01")},
	})
	creator, _ := ethcrypto.GenerateKey()
	gov, _ := ethcrypto.GenerateKey()
	spec, err := genesis.ParseSpec([]byte(fmt.Sprintf("chainId: 137\ngovernance: %q\nprofileCreators:\n  - %q\n",
		ethcrypto.PubkeyToAddress(gov.PublicKey).Hex(),
		ethcrypto.PubkeyToAddress(creator.PublicKey).Hex())))
	if err != nil {
		t.Fatalf("parse genesis: %v", err)
	}
	if _, err := hub.InitGenesis(spec); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	srv := httptest.NewServer(NewServer(hub, ServerConfig{RateLimit: limit}).Handler())
	t.Cleanup(srv.Close)
	return &testNode{hub: hub, server: srv, creator: creator, gov: gov}
}

func (n *testNode) call(t *testing.T, method string, params ...interface{}) (RPCResponse, int) {
	t.Helper()
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(n.server.URL+"/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out, resp.StatusCode
}

func signedEnvelope(t *testing.T, key *ecdsa.PrivateKey, txType types.TxType, nonce uint64, payload []byte) TransactionEnvelope {
	t.Helper()
	tx := &types.Transaction{Type: txType, Nonce: nonce, ChainID: big.NewInt(137), Data: payload}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	env, err := NewEnvelope(tx)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	return env
}

func TestSendTransactionCreatesProfile(t *testing.T) {
	node := newTestNode(t, RateLimit{})
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	payload, err := types.EncodeCall(types.CreateProfileParams{To: owner, ImageURI: "ipfs://img"}, types.EIP712Signature{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	resp, status := node.call(t, "hub_sendTransaction", signedEnvelope(t, node.creator, types.TxTypeCreateProfile, 0, payload))
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("send failed: status=%d err=%+v", status, resp.Error)
	}
	raw, _ := json.Marshal(resp.Result)
	var receipt ReceiptResult
	if err := json.Unmarshal(raw, &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.Op != "createProfile" || receipt.Result != "1" || receipt.Height == 0 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	resp, _ = node.call(t, "hub_getProfile", "1")
	if resp.Error != nil {
		t.Fatalf("getProfile: %+v", resp.Error)
	}
	raw, _ = json.Marshal(resp.Result)
	var profile ProfileResult
	if err := json.Unmarshal(raw, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Owner != owner.Hex() || profile.ImageURI != "ipfs://img" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	resp, _ = node.call(t, "hub_ownerOf", 1)
	if resp.Error != nil || resp.Result != owner.Hex() {
		t.Fatalf("ownerOf: %+v %+v", resp.Result, resp.Error)
	}
}

func TestSendTransactionMapsHubErrors(t *testing.T) {
	node := newTestNode(t, RateLimit{})
	payload, err := types.EncodeCall(types.CreateProfileParams{To: common.HexToAddress("0xaa")}, types.EIP712Signature{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	outsider, _ := ethcrypto.GenerateKey()

	resp, _ := node.call(t, "hub_sendTransaction", signedEnvelope(t, outsider, types.TxTypeCreateProfile, 0, payload))
	if resp.Error == nil || resp.Error.Code != codeUnauthorized || resp.Error.Message != hubErrors.ErrNotWhitelisted.Error() {
		t.Fatalf("expected whitelist error, got %+v", resp.Error)
	}

	resp, _ = node.call(t, "hub_sendTransaction", signedEnvelope(t, node.creator, types.TxTypeCreateProfile, 5, payload))
	if resp.Error == nil || resp.Error.Code != codeSignature {
		t.Fatalf("expected nonce error, got %+v", resp.Error)
	}

	resp, _ = node.call(t, "hub_getProfile", "42")
	if resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("expected not found, got %+v", resp.Error)
	}

	resp, _ = node.call(t, "hub_balanceOf", "not-an-address")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}

	resp, status := node.call(t, "hub_unknown")
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %d %+v", status, resp.Error)
	}
}

func TestQueriesReportRolesAndState(t *testing.T) {
	node := newTestNode(t, RateLimit{})

	resp, _ := node.call(t, "hub_getState")
	if resp.Error != nil || resp.Result != "unpaused" {
		t.Fatalf("unexpected state: %+v %+v", resp.Result, resp.Error)
	}
	resp, _ = node.call(t, "hub_getRoles")
	raw, _ := json.Marshal(resp.Result)
	var roles RolesResult
	if err := json.Unmarshal(raw, &roles); err != nil {
		t.Fatalf("decode roles: %v", err)
	}
	if roles.Governance != ethcrypto.PubkeyToAddress(node.gov.PublicKey).Hex() {
		t.Fatalf("unexpected governance %s", roles.Governance)
	}
	resp, _ = node.call(t, "hub_domainSeparator")
	if resp.Result != node.hub.DomainSeparator().Hex() {
		t.Fatalf("unexpected separator %v", resp.Result)
	}
	resp, _ = node.call(t, "hub_chainId")
	if resp.Result != "137" {
		t.Fatalf("unexpected chain id %v", resp.Result)
	}
}

func TestHandleRejectsMalformedRequests(t *testing.T) {
	node := newTestNode(t, RateLimit{})
	for _, body := range []string{"", "{", `{"jsonrpc":"1.0","method":"hub_getState"}`, `{"jsonrpc":"2.0"}`} {
		resp, err := http.Post(node.server.URL+"/", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	node := newTestNode(t, RateLimit{RequestsPerMinute: 1, Burst: 2})
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		_, status := node.call(t, "hub_getState")
		statuses = append(statuses, status)
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK || statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected statuses %v", statuses)
	}

	resp, err := http.Get(node.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz throttled: %d", resp.StatusCode)
	}
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := NewRateLimiter(RateLimit{RequestsPerMinute: 1, Burst: 1})
	limiter.clockNow = func() time.Time { return now }
	if !limiter.Allow("a") || limiter.Allow("a") {
		t.Fatalf("expected single request burst")
	}
	now = now.Add(10 * time.Minute)
	limiter.Allow("b")
	if _, ok := limiter.visitors["a"]; ok {
		t.Fatalf("idle visitor not dropped")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	key, _ := ethcrypto.GenerateKey()
	env := signedEnvelope(t, key, types.TxTypePost, 3, []byte{0xc0})
	if env.Type != "post" {
		t.Fatalf("unexpected type %q", env.Type)
	}
	tx, err := env.Transaction()
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	from, err := tx.From()
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	if from != ethcrypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("sender mismatch")
	}
	env.Type = "0x07"
	if tx, err := env.Transaction(); err != nil || tx.Type != types.TxTypePost {
		t.Fatalf("numeric type not parsed: %v", err)
	}
	env.Type = "bogus"
	if _, err := env.Transaction(); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestEventsWebsocketStreamsCommittedEvents(t *testing.T) {
	node := newTestNode(t, RateLimit{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(node.server.URL, "http") + "/ws/events?types=" + events.TypeProfileCreated
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for node.hub.Feed().Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	creator := ethcrypto.PubkeyToAddress(node.creator.PublicKey)
	if _, err := node.hub.CreateProfile(creator, types.CreateProfileParams{To: creator}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt types.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.Type != events.TypeProfileCreated {
		t.Fatalf("unexpected event %q", evt.Type)
	}
}

func TestHubErrorFallsBackToServerError(t *testing.T) {
	rpcErr := hubError(errors.New("disk on fire"))
	if rpcErr.Code != codeServerError {
		t.Fatalf("unexpected code %d", rpcErr.Code)
	}
	wrapped := hubError(fmt.Errorf("ledger: %w", hubErrors.ErrAlreadyMinted))
	if wrapped.Code != codeRejected || wrapped.Message != hubErrors.ErrAlreadyMinted.Error() {
		t.Fatalf("unexpected mapping %+v", wrapped)
	}
}

func TestOwnershipProofVerifiesClientSide(t *testing.T) {
	node := newTestNode(t, RateLimit{})
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	payload, err := types.EncodeCall(types.CreateProfileParams{To: owner}, types.EIP712Signature{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if resp, _ := node.call(t, "hub_sendTransaction", signedEnvelope(t, node.creator, types.TxTypeCreateProfile, 0, payload)); resp.Error != nil {
		t.Fatalf("send: %+v", resp.Error)
	}

	resp, _ := node.call(t, "hub_getOwnershipProof", "1")
	if resp.Error != nil {
		t.Fatalf("proof: %+v", resp.Error)
	}
	raw, _ := json.Marshal(resp.Result)
	var result OwnershipProofResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode proof: %v", err)
	}
	root, _ := node.hub.Head()
	if result.Root != root.Hex() || len(result.Proof) == 0 {
		t.Fatalf("unexpected proof result %+v", result)
	}
	proof, err := result.OwnershipProof()
	if err != nil {
		t.Fatalf("rebuild proof: %v", err)
	}
	token, err := core.VerifyOwnership(proof)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if token.Owner != owner {
		t.Fatalf("unexpected owner %s", token.Owner.Hex())
	}

	resp, _ = node.call(t, "hub_getOwnershipProof", "2")
	if resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("expected not found, got %+v", resp.Error)
	}
}
