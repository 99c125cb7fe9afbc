package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source resolves a keystore passphrase from an environment variable or by
// prompting on the terminal. The first successful value is cached.
type Source struct {
	envVar  string
	confirm bool

	readPassword func(prompt string) (string, error)
	isTerminal   func() bool

	once  sync.Once
	value string
	err   error
}

// NewSource returns a source that checks envVar before prompting.
func NewSource(envVar string) *Source {
	return &Source{
		envVar:       strings.TrimSpace(envVar),
		readPassword: promptTerminal(os.Stderr),
		isTerminal:   func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// NewConfirmingSource is like NewSource but asks twice when prompting, for
// keystores that are about to be created.
func NewConfirmingSource(envVar string) *Source {
	s := NewSource(envVar)
	s.confirm = true
	return s
}

func promptTerminal(w io.Writer) func(string) (string, error) {
	return func(prompt string) (string, error) {
		fmt.Fprint(w, prompt)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		return string(raw), nil
	}
}

// Get returns the cached passphrase or resolves it on first use. An
// environment value is used verbatim; whitespace-only values are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
	}
	if !s.isTerminal() {
		if s.envVar != "" {
			return "", fmt.Errorf("keystore passphrase required; set %s or run interactively", s.envVar)
		}
		return "", errors.New("keystore passphrase required and no terminal available")
	}
	passphrase, err := s.readPassword("Enter keystore passphrase: ")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(passphrase) == "" {
		return "", errors.New("keystore passphrase cannot be empty")
	}
	if s.confirm {
		again, err := s.readPassword("Repeat keystore passphrase: ")
		if err != nil {
			return "", err
		}
		if again != passphrase {
			return "", errors.New("keystore passphrases do not match")
		}
	}
	return passphrase, nil
}
