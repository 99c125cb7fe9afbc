package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var rpcEndpoint = defaultRPCEndpoint() // RPC_URL or --rpc override the localhost default

const keystorePassphraseEnv = "GRAPHHUB_KEYSTORE_PASSPHRASE"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keygen":
		return runKeygenCommand(args[1:], stdout, stderr)
	case "address":
		return runAddressCommand(args[1:], stdout, stderr)
	case "sign":
		return runSignCommand(args[1:], stdout, stderr)
	case "send":
		return runSendCommand(args[1:], stdout, stderr)
	case "verify-owner":
		return runVerifyOwnerCommand(args[1:], stdout, stderr)
	case "call":
		return runCallCommand(args[1:], stdout, stderr)
	case "entrypoints":
		return runEntryPointsCommand(stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.TrimSpace(`Usage:
  graph-cli [--rpc URL] <command> [flags]

Commands:
  keygen       Create a new encrypted keystore
  address      Print the address stored in a keystore
  sign         Produce an EIP-712 signature for a WithSig entry point
  send         Sign and submit a hub transaction
  verify-owner Fetch and check a Merkle proof of a profile owner
  call         Invoke a read-only hub_* RPC method
  entrypoints  List the entry points accepted by sign and send

The keystore passphrase is read from GRAPHHUB_KEYSTORE_PASSPHRASE or prompted for.
`)
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}
