package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"graphhub/core/types"
	"graphhub/native/metatx"
)

// entryPoint knows how to turn JSON parameters into a call payload. hash is
// nil for entry points without a signed variant.
type entryPoint struct {
	encode func(raw []byte, sig types.EIP712Signature) ([]byte, error)
	hash   func(raw []byte, nonce, deadline uint64) (common.Hash, error)
}

func decodeParams[T any](raw []byte) (T, error) {
	var params T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return params, fmt.Errorf("decode params: %w", err)
	}
	return params, nil
}

func unsigned[T any]() entryPoint {
	return entryPoint{
		encode: func(raw []byte, sig types.EIP712Signature) ([]byte, error) {
			params, err := decodeParams[T](raw)
			if err != nil {
				return nil, err
			}
			return types.EncodeCall(params, sig)
		},
	}
}

func signable[T any](hash func(T, uint64, uint64) common.Hash) entryPoint {
	ep := unsigned[T]()
	ep.hash = func(raw []byte, nonce, deadline uint64) (common.Hash, error) {
		params, err := decodeParams[T](raw)
		if err != nil {
			return common.Hash{}, err
		}
		return hash(params, nonce, deadline), nil
	}
	return ep
}

var entryPoints = map[types.TxType]entryPoint{
	types.TxTypeCreateProfile:                   unsigned[types.CreateProfileParams](),
	types.TxTypeSetProfileMetadataURI:           signable(metatx.HashSetProfileMetadataURI),
	types.TxTypeSetFollowModule:                 signable(metatx.HashSetFollowModule),
	types.TxTypeChangeDelegatedExecutorsConfig:  signable(metatx.HashChangeDelegatedExecutorsConfig),
	types.TxTypeSetProfileImageURI:              signable(metatx.HashSetProfileImageURI),
	types.TxTypeSetFollowNFTURI:                 signable(metatx.HashSetFollowNFTURI),
	types.TxTypePost:                            signable(metatx.HashPost),
	types.TxTypeComment:                         signable(metatx.HashComment),
	types.TxTypeMirror:                          signable(metatx.HashMirror),
	types.TxTypeQuote:                           signable(metatx.HashQuote),
	types.TxTypeBurn:                            signable(metatx.HashBurn),
	types.TxTypeFollow:                          signable(metatx.HashFollow),
	types.TxTypeUnfollow:                        signable(metatx.HashUnfollow),
	types.TxTypeSetBlockStatus:                  signable(metatx.HashSetBlockStatus),
	types.TxTypeCollect:                         signable(metatx.HashCollect),
	types.TxTypeTransferProfile:                 unsigned[types.TransferParams](),
	types.TxTypeTransferProfileKeepingDelegates: unsigned[types.TransferParams](),
	types.TxTypeApprove:                         unsigned[types.ApproveParams](),
	types.TxTypeSetApprovalForAll:               unsigned[types.SetApprovalForAllParams](),
	types.TxTypePermit:                          signable(metatx.HashPermit),
	types.TxTypePermitForAll:                    signable(metatx.HashPermitForAll),
	types.TxTypeSetState:                        unsigned[types.SetStateParams](),
	types.TxTypeSetGovernance:                   unsigned[types.AddressParams](),
	types.TxTypeSetEmergencyAdmin:               unsigned[types.AddressParams](),
	types.TxTypeWhitelistProfileCreator:         unsigned[types.WhitelistProfileCreatorParams](),
}

func lookupEntryPoint(name string) (types.TxType, entryPoint, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, entryPoint{}, fmt.Errorf("--type is required")
	}
	txType, ok := types.ParseTxType(trimmed)
	if !ok {
		return 0, entryPoint{}, fmt.Errorf("unknown entry point %q", trimmed)
	}
	ep, ok := entryPoints[txType]
	if !ok {
		return 0, entryPoint{}, fmt.Errorf("entry point %q is not supported", trimmed)
	}
	return txType, ep, nil
}

// readJSONArg accepts inline JSON or @path.
func readJSONArg(flagName, value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("--%s is required", flagName)
	}
	if strings.HasPrefix(trimmed, "@") {
		raw, err := os.ReadFile(strings.TrimPrefix(trimmed, "@"))
		if err != nil {
			return nil, fmt.Errorf("read --%s: %w", flagName, err)
		}
		return raw, nil
	}
	return []byte(trimmed), nil
}

func runEntryPointsCommand(stdout io.Writer) int {
	names := make([]string, 0, len(entryPoints))
	for txType, ep := range entryPoints {
		name := txType.String()
		if ep.hash != nil {
			name += " (signable)"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return 0
}
