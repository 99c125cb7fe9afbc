package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"graphhub/core"
	"graphhub/core/types"
	"graphhub/native/delegation"
	"graphhub/native/ledger"
	"graphhub/native/publications"
)

// TransactionEnvelope is the JSON form of a signed direct-call transaction.
// Type is the entry point name (for example "post") or a 0x-prefixed type
// byte; Data is the RLP call payload.
type TransactionEnvelope struct {
	Type      string        `json:"type"`
	Nonce     uint64        `json:"nonce"`
	ChainID   string        `json:"chainId"`
	Data      hexutil.Bytes `json:"data"`
	Signature hexutil.Bytes `json:"signature"`
}

// NewEnvelope converts a signed transaction into its JSON envelope.
func NewEnvelope(tx *types.Transaction) (TransactionEnvelope, error) {
	sig, err := tx.Signature()
	if err != nil {
		return TransactionEnvelope{}, err
	}
	chainID := "0"
	if tx.ChainID != nil {
		chainID = tx.ChainID.String()
	}
	return TransactionEnvelope{
		Type:      tx.Type.String(),
		Nonce:     tx.Nonce,
		ChainID:   chainID,
		Data:      tx.Data,
		Signature: sig,
	}, nil
}

// Transaction rebuilds the signed transaction.
func (e TransactionEnvelope) Transaction() (*types.Transaction, error) {
	txType, err := parseTxType(e.Type)
	if err != nil {
		return nil, err
	}
	chainID, ok := new(big.Int).SetString(strings.TrimSpace(e.ChainID), 0)
	if !ok || chainID.Sign() < 0 {
		return nil, fmt.Errorf("invalid chainId %q", e.ChainID)
	}
	tx := &types.Transaction{Type: txType, Nonce: e.Nonce, ChainID: chainID, Data: e.Data}
	if err := tx.SetSignature(e.Signature); err != nil {
		return nil, err
	}
	return tx, nil
}

func parseTxType(raw string) (types.TxType, error) {
	trimmed := strings.TrimSpace(raw)
	if t, ok := types.ParseTxType(trimmed); ok {
		return t, nil
	}
	if strings.HasPrefix(trimmed, "0x") {
		v, err := strconv.ParseUint(trimmed[2:], 16, 8)
		if err == nil {
			return types.TxType(v), nil
		}
	}
	return 0, fmt.Errorf("unknown transaction type %q", raw)
}

// ReceiptResult reflects a committed hub transaction.
type ReceiptResult struct {
	Op     string        `json:"op"`
	Root   string        `json:"root"`
	Height uint64        `json:"height"`
	Result string        `json:"result,omitempty"`
	Events []types.Event `json:"events"`
}

func receiptResult(r *core.Receipt) ReceiptResult {
	out := ReceiptResult{Op: r.Op, Root: r.Root.Hex(), Height: r.Height, Events: r.Events}
	if r.Result != nil {
		out.Result = r.Result.Dec()
	}
	if out.Events == nil {
		out.Events = []types.Event{}
	}
	return out
}

type RolesResult struct {
	Governance     string `json:"governance"`
	EmergencyAdmin string `json:"emergencyAdmin"`
}

type HeadResult struct {
	Root   string `json:"root"`
	Height uint64 `json:"height"`
}

type TokenDataResult struct {
	Owner         string `json:"owner"`
	MintTimestamp uint64 `json:"mintTimestamp"`
}

type ProfileResult struct {
	ID                   string `json:"id"`
	Owner                string `json:"owner"`
	MintTimestamp        uint64 `json:"mintTimestamp"`
	PubCount             string `json:"pubCount"`
	ImageURI             string `json:"imageURI"`
	MetadataURI          string `json:"metadataURI"`
	FollowModule         string `json:"followModule"`
	FollowModuleInitData string `json:"followModuleInitData"`
	FollowNFTURI         string `json:"followNFTURI"`
	FollowerCount        uint64 `json:"followerCount"`
}

func profileResult(v core.ProfileView, followers uint64) ProfileResult {
	return ProfileResult{
		ID:                   v.ID.Dec(),
		Owner:                v.Owner.Hex(),
		MintTimestamp:        v.MintTimestamp,
		PubCount:             v.PubCount.Dec(),
		ImageURI:             v.Profile.ImageURI,
		MetadataURI:          v.Profile.MetadataURI,
		FollowModule:         v.Profile.FollowModule.Hex(),
		FollowModuleInitData: hexutil.Encode(v.Profile.FollowModuleInitData),
		FollowNFTURI:         v.Profile.FollowNFTURI,
		FollowerCount:        followers,
	}
}

type PublicationResult struct {
	Kind             string `json:"kind"`
	ContentURI       string `json:"contentURI"`
	PointedProfileID string `json:"pointedProfileId,omitempty"`
	PointedPubID     string `json:"pointedPubId,omitempty"`
	CollectModule    string `json:"collectModule"`
	ReferenceModule  string `json:"referenceModule"`
	Timestamp        uint64 `json:"timestamp"`
	CollectCount     uint64 `json:"collectCount"`
}

func publicationResult(p publications.Publication, collects uint64) PublicationResult {
	out := PublicationResult{
		Kind:            p.Kind.String(),
		ContentURI:      p.ContentURI,
		CollectModule:   p.CollectModule.Hex(),
		ReferenceModule: p.ReferenceModule.Hex(),
		Timestamp:       p.Timestamp,
		CollectCount:    collects,
	}
	if !p.PointedProfileID.IsZero() {
		out.PointedProfileID = p.PointedProfileID.Dec()
		out.PointedPubID = p.PointedPubID.Dec()
	}
	return out
}

// OwnershipProofResult carries a profile owner record and the trie nodes
// proving it under Root.
type OwnershipProofResult struct {
	Root          string          `json:"root"`
	Height        uint64          `json:"height"`
	TokenID       string          `json:"tokenId"`
	Owner         string          `json:"owner"`
	MintTimestamp uint64          `json:"mintTimestamp"`
	Proof         []hexutil.Bytes `json:"proof"`
}

func ownershipProofResult(p core.OwnershipProof) OwnershipProofResult {
	nodes := make([]hexutil.Bytes, len(p.Proof))
	for i, node := range p.Proof {
		nodes[i] = node
	}
	return OwnershipProofResult{
		Root:          p.Root.Hex(),
		Height:        p.Height,
		TokenID:       p.TokenID.Dec(),
		Owner:         p.Token.Owner.Hex(),
		MintTimestamp: p.Token.MintTimestamp,
		Proof:         nodes,
	}
}

// OwnershipProof converts the result back into a proof VerifyOwnership accepts.
func (r OwnershipProofResult) OwnershipProof() (core.OwnershipProof, error) {
	id, rpcErr := parseIDString(r.TokenID)
	if rpcErr != nil {
		return core.OwnershipProof{}, rpcErr
	}
	if !common.IsHexAddress(r.Owner) {
		return core.OwnershipProof{}, fmt.Errorf("invalid owner %q", r.Owner)
	}
	nodes := make([][]byte, len(r.Proof))
	for i, node := range r.Proof {
		nodes[i] = node
	}
	return core.OwnershipProof{
		Root:    common.HexToHash(r.Root),
		Height:  r.Height,
		TokenID: id,
		Token:   ledger.TokenData{Owner: common.HexToAddress(r.Owner), MintTimestamp: r.MintTimestamp},
		Proof:   nodes,
	}, nil
}

type DelegationConfigResult struct {
	ConfigNumber       uint64 `json:"configNumber"`
	PrevConfigNumber   uint64 `json:"prevConfigNumber"`
	MaxConfigNumberSet uint64 `json:"maxConfigNumberSet"`
}

func delegationConfigResult(c delegation.Config) DelegationConfigResult {
	return DelegationConfigResult{
		ConfigNumber:       c.ConfigNumber,
		PrevConfigNumber:   c.PrevConfigNumber,
		MaxConfigNumberSet: c.MaxConfigNumberSet,
	}
}

func invalidParams(message string, data interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message, Data: data}
}

func requireParams(params []json.RawMessage, n int) *RPCError {
	if len(params) < n {
		return invalidParams(fmt.Sprintf("expected %d parameter(s), got %d", n, len(params)), nil)
	}
	return nil
}

func parseAddressParam(raw json.RawMessage) (common.Address, *RPCError) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return common.Address{}, invalidParams("address must be a string", err.Error())
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, invalidParams("invalid hex address", s)
	}
	return common.HexToAddress(s), nil
}

// parseIDParam accepts a JSON number, a decimal string or a 0x hex string.
func parseIDParam(raw json.RawMessage) (uint256.Int, *RPCError) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return parseIDString(num.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uint256.Int{}, invalidParams("id must be a number or string", err.Error())
	}
	return parseIDString(s)
}

func parseIDString(s string) (uint256.Int, *RPCError) {
	trimmed := strings.TrimSpace(s)
	var (
		id  *uint256.Int
		err error
	)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		id, err = uint256.FromHex(trimmed)
	} else {
		id, err = uint256.FromDecimal(trimmed)
	}
	if err != nil {
		return uint256.Int{}, invalidParams("invalid id", s)
	}
	return *id, nil
}
