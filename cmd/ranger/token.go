package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/howeyc/gopass"
	"golang.org/x/term"
)

// The error returned when no token is configured and there is no terminal to
// ask for one.
var ErrMissingToken = errors.New("missing token: set it in the config or RANGER_TOKEN")

// ReadToken returns token if set, otherwise it prompts for one on STDIN when
// that is a terminal.
func ReadToken(token string) (string, error) {
	if token != "" {
		return token, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrMissingToken
	}

	fmt.Print("Enter token: ")
	secret, err := gopass.GetPasswd()
	if err != nil {
		return "", fmt.Errorf("couldn't read token: %v", err)
	}
	if len(secret) == 0 {
		return "", ErrMissingToken
	}
	return string(secret), nil
}
