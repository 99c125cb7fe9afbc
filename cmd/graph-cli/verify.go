package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"graphhub/core"
	"graphhub/rpc"
)

// runVerifyOwnerCommand fetches an ownership proof and checks it locally, so
// the printed owner does not depend on trusting the node beyond its root.
func runVerifyOwnerCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify-owner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var id, root string
	fs.StringVar(&id, "id", "", "profile id")
	fs.StringVar(&root, "root", "", "expected state root; the proof must be anchored there")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(id) == "" {
		return printError(stderr, "--id is required")
	}
	var result rpc.OwnershipProofResult
	if err := queryRPC("hub_getOwnershipProof", []interface{}{strings.TrimSpace(id)}, &result); err != nil {
		return handleRPCCallError(stderr, err)
	}
	proof, err := result.OwnershipProof()
	if err != nil {
		return printError(stderr, "%v", err)
	}
	if want := strings.TrimSpace(root); want != "" && common.HexToHash(want) != proof.Root {
		return printError(stderr, "proof is anchored at %s, not %s", proof.Root.Hex(), want)
	}
	token, err := core.VerifyOwnership(proof)
	if err != nil {
		return printError(stderr, "proof rejected: %v", err)
	}
	fmt.Fprintf(stdout, "%s owned by %s at height %d (root %s)\n", proof.TokenID.Dec(), token.Owner.Hex(), proof.Height, proof.Root.Hex())
	return 0
}
