package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"

	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	"golang.org/x/term"
)

// ReadPassphrase prompts on stderr and reads a passphrase from stdin without
// echoing it. Returns an error if stdin is not a terminal.
func ReadPassphrase(prompt string) ([]byte, error) {
	return readHidden(int(os.Stdin.Fd()), os.Stderr, prompt)
}

// ReadNewPassphrase asks for a passphrase twice and returns it only when both
// entries match and are non-empty.
func ReadNewPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	first, err := readHidden(fd, os.Stderr, prompt)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, kerrors.ErrEmptyPassphrase
	}
	second, err := readHidden(fd, os.Stderr, "Repeat passphrase: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

func readHidden(fd int, out io.Writer, prompt string) ([]byte, error) {
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("cannot read passphrase: stdin is not a terminal")
	}

	fmt.Fprint(out, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(out) // Hidden input leaves the cursor on the prompt line.

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
