package types

import "github.com/ethereum/go-ethereum/rlp"

// Call is the RLP payload carried in Transaction.Data. A set Sig turns the
// call into its WithSig variant: the signer, not the sender, is the executor.
type Call[T any] struct {
	Params T
	Sig    EIP712Signature
}

// EncodeCall RLP-encodes params with an optional signature.
func EncodeCall[T any](params T, sig EIP712Signature) ([]byte, error) {
	return rlp.EncodeToBytes(&Call[T]{Params: params, Sig: sig})
}

// DecodeCall decodes a payload produced by EncodeCall.
func DecodeCall[T any](data []byte) (Call[T], error) {
	var call Call[T]
	if err := rlp.DecodeBytes(data, &call); err != nil {
		return Call[T]{}, err
	}
	return call, nil
}
