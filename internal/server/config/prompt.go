package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// PromptSecret reads a secret from the terminal without echo. It fails when
// stdin is not a terminal or the input is empty.
func PromptSecret(out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", errors.New("stdin is not a terminal: run interactively to enter the secret")
	}
	fmt.Fprintf(out, "%s: ", label)
	defer fmt.Fprintln(out)

	raw, err := readPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("secret cannot be empty")
	}
	s := string(raw)
	clear(raw)
	return s, nil
}
