package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"graphhub/cmd/internal/passphrase"
	"graphhub/crypto"
)

var (
	newPassphrase      = func() *passphrase.Source { return passphrase.NewSource(keystorePassphraseEnv) }
	newConfirmingInput = func() *passphrase.Source { return passphrase.NewConfirmingSource(keystorePassphraseEnv) }
)

func runKeygenCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("keystore", "", "path of the keystore file to create")
	force := fs.Bool("force", false, "overwrite an existing keystore")
	importFile := fs.String("import-file", "", "encrypt the hex private key read from this file instead of generating one")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	trimmed := strings.TrimSpace(*path)
	if trimmed == "" {
		return printError(stderr, "--keystore is required")
	}
	if _, err := os.Stat(trimmed); err == nil && !*force {
		return printError(stderr, "%s already exists; pass --force to overwrite", trimmed)
	}
	pass, err := newConfirmingInput().Get()
	if err != nil {
		return printError(stderr, "%v", err)
	}
	key, err := newKey(*importFile)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	if err := crypto.SaveToKeystore(trimmed, key, pass); err != nil {
		return printError(stderr, "write keystore: %v", err)
	}
	fmt.Fprintln(stdout, key.Address().Hex())
	return 0
}

func newKey(importFile string) (*crypto.PrivateKey, error) {
	path := strings.TrimSpace(importFile)
	if path == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		return key, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read --import-file: %w", err)
	}
	key, err := crypto.PrivateKeyFromHex(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse --import-file: %w", err)
	}
	return key, nil
}

func runAddressCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("keystore", "", "path of the keystore file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	key, err := loadKey(*path)
	if err != nil {
		return printError(stderr, "%v", err)
	}
	fmt.Fprintln(stdout, key.Address().Hex())
	return 0
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("--keystore is required")
	}
	if _, err := os.Stat(trimmed); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("keystore %s not found; run graph-cli keygen first", trimmed)
		}
		return nil, err
	}
	pass, err := newPassphrase().Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(trimmed, pass)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return key, nil
}
