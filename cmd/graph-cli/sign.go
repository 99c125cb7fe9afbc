package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"graphhub/core/types"
	"graphhub/native/metatx"
	"graphhub/rpc"
)

var now = time.Now

// signatureJSON is the portable form of types.EIP712Signature written by sign
// and read back by send --sig.
type signatureJSON struct {
	Signer    common.Address `json:"signer"`
	Signature hexutil.Bytes  `json:"signature"`
	Deadline  uint64         `json:"deadline"`
}

func (s signatureJSON) toSignature() types.EIP712Signature {
	return types.EIP712Signature{Signer: s.Signer, Signature: s.Signature, Deadline: s.Deadline}
}

func runSignCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keystorePath, entry, params, deadline, separator string
	var nonce int64
	fs.StringVar(&keystorePath, "keystore", "", "keystore of the signer")
	fs.StringVar(&entry, "type", "", "entry point to authorise, for example post or burn")
	fs.StringVar(&params, "params", "", "JSON call parameters, inline or @file")
	fs.Int64Var(&nonce, "nonce", -1, "signature nonce (fetched with hub_sigNonce when negative)")
	fs.StringVar(&deadline, "deadline", "+1h", "unix seconds, RFC3339 time, or +duration from now")
	fs.StringVar(&separator, "separator", "", "domain separator (fetched with hub_domainSeparator when empty)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		return printError(stderr, "unexpected positional arguments")
	}
	txType, ep, err := lookupEntryPoint(entry)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	if ep.hash == nil {
		return printError(stderr, "entry point %s has no signed variant", txType)
	}
	raw, err := readJSONArg("params", params)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	expiry, err := parseDeadline(deadline, now())
	if err != nil {
		return printError(stderr, "%v", err)
	}
	key, err := loadKey(keystorePath)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	signer := key.Address()

	sigNonce, err := resolveSigNonce(nonce, signer)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	domainSeparator, err := resolveSeparator(separator)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	structHash, err := ep.hash(raw, sigNonce, expiry)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	sig, err := metatx.Sign(metatx.Digest(domainSeparator, structHash), key.PrivateKey)
	if err != nil {
		return printError(stderr, "sign: %v", err)
	}
	return writeJSON(stdout, stderr, signatureJSON{Signer: signer, Signature: sig, Deadline: expiry})
}

func runSendCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var keystorePath, entry, params, sigArg, chainID string
	var nonce int64
	var dryRun bool
	fs.StringVar(&keystorePath, "keystore", "", "keystore of the transaction sender")
	fs.StringVar(&entry, "type", "", "entry point to call")
	fs.StringVar(&params, "params", "", "JSON call parameters, inline or @file")
	fs.StringVar(&sigArg, "sig", "", "signature produced by graph-cli sign, inline or @file; turns the call into its WithSig variant")
	fs.Int64Var(&nonce, "nonce", -1, "account nonce (fetched with hub_accountNonce when negative)")
	fs.StringVar(&chainID, "chain-id", "", "chain id (fetched with hub_chainId when empty)")
	fs.BoolVar(&dryRun, "dry-run", false, "print the signed envelope instead of submitting it")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		return printError(stderr, "unexpected positional arguments")
	}
	txType, ep, err := lookupEntryPoint(entry)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	raw, err := readJSONArg("params", params)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	var sig types.EIP712Signature
	if strings.TrimSpace(sigArg) != "" {
		sigRaw, err := readJSONArg("sig", sigArg)
		if err != nil {
			return printError(stderr, "%v", err)
		}
		var decoded signatureJSON
		if err := json.Unmarshal(sigRaw, &decoded); err != nil {
			return printError(stderr, "decode --sig: %v", err)
		}
		sig = decoded.toSignature()
	}
	payload, err := ep.encode(raw, sig)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	key, err := loadKey(keystorePath)
	if err != nil {
		return printError(stderr, "%v", err)
	}

	chain, err := resolveChainID(chainID)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	accountNonce, err := resolveAccountNonce(nonce, key.Address())
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	tx := &types.Transaction{Type: txType, Nonce: accountNonce, ChainID: chain, Data: payload}
	if err := tx.Sign(key.PrivateKey); err != nil {
		return printError(stderr, "sign transaction: %v", err)
	}
	env, err := rpc.NewEnvelope(tx)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	if dryRun {
		return writeJSON(stdout, stderr, env)
	}
	result, rpcErr, err := rpcCall("hub_sendTransaction", []interface{}{env})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func resolveSigNonce(flagValue int64, signer common.Address) (uint64, error) {
	if flagValue >= 0 {
		return uint64(flagValue), nil
	}
	var nonce uint64
	err := queryRPC("hub_sigNonce", []interface{}{signer.Hex()}, &nonce)
	return nonce, err
}

func resolveAccountNonce(flagValue int64, sender common.Address) (uint64, error) {
	if flagValue >= 0 {
		return uint64(flagValue), nil
	}
	var nonce uint64
	err := queryRPC("hub_accountNonce", []interface{}{sender.Hex()}, &nonce)
	return nonce, err
}

func resolveSeparator(flagValue string) (common.Hash, error) {
	value := strings.TrimSpace(flagValue)
	if value == "" {
		if err := queryRPC("hub_domainSeparator", nil, &value); err != nil {
			return common.Hash{}, err
		}
	}
	raw, err := hexutil.Decode(value)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid domain separator %q", value)
	}
	return common.BytesToHash(raw), nil
}

func resolveChainID(flagValue string) (*big.Int, error) {
	value := strings.TrimSpace(flagValue)
	if value == "" {
		if err := queryRPC("hub_chainId", nil, &value); err != nil {
			return nil, err
		}
	}
	chain, ok := new(big.Int).SetString(value, 0)
	if !ok || chain.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %q", value)
	}
	return chain, nil
}

func parseDeadline(value string, at time.Time) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("--deadline is required")
	}
	if strings.HasPrefix(trimmed, "+") {
		dur, err := time.ParseDuration(strings.TrimSpace(trimmed[1:]))
		if err != nil || dur <= 0 {
			return 0, fmt.Errorf("invalid deadline duration %q", trimmed)
		}
		return uint64(at.Add(dur).Unix()), nil
	}
	if secs, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return secs, nil
	}
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid deadline %q", trimmed)
	}
	return uint64(ts.Unix()), nil
}

func writeJSON(stdout, stderr io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return printError(stderr, "encode output: %v", err)
	}
	return 0
}
