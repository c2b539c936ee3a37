package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/authkeeper/common"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptSecret prints a prompt to w and reads a secret from the user's
// terminal without echo. The returned byte slice should be wiped by the
// caller when no longer needed.
func promptSecret(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func wipe(bufs ...[]byte) {
	for _, b := range bufs {
		common.WipeByteArray(b)
	}
}
