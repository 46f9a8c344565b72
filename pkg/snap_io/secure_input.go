// pkg/snap_io/secure_input.go

package snap_io

import (
	"fmt"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"golang.org/x/term"
)

// MaxPasswordLength bounds interactive password input.
const MaxPasswordLength = 256

// PromptPassword reads a password from the terminal without echoing it.
// Fails when stdin is not a terminal: piping a password through stdin is
// not supported, use the configuration file instead.
func PromptPassword(rc *RuntimeContext, prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", cerr.New("stdin is not a terminal, cannot prompt for password")
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", cerr.Wrap(err, "reading password")
	}

	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", cerr.New("empty password")
	}
	if len(password) > MaxPasswordLength {
		return "", cerr.Newf("password exceeds %d characters", MaxPasswordLength)
	}
	return password, nil
}
