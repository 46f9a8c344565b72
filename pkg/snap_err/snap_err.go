// pkg/snap_err/snap_err.go

package snap_err

import (
	"fmt"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// StderrPrefixLimit bounds how much captured stderr is carried inside an
// error. Pathological failures (a tar stream fed back as diagnostics, a PHP
// stack dump) can produce megabytes of stderr; only the head is useful.
const StderrPrefixLimit = 1000

// Role identifies which side of an execution produced a failure.
type Role string

const (
	RoleSingle   Role = "single"
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

// MalformedAddressError means an address string could not be parsed into a
// location. Surfaced before any side effect.
type MalformedAddressError struct {
	Address string
	Reason  string
}

func (e *MalformedAddressError) Error() string {
	return fmt.Sprintf("malformed address %q: %s", e.Address, e.Reason)
}

// NewMalformedAddress builds a MalformedAddressError.
func NewMalformedAddress(address, reason string) error {
	return &MalformedAddressError{Address: address, Reason: reason}
}

// IoError means a local or remote filesystem operation failed. Carries the
// offending path so the user knows where to look.
type IoError struct {
	Path  string
	Op    string
	Cause error
}

func (e *IoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Path)
}

func (e *IoError) Unwrap() error { return e.Cause }

// NewIoError wraps a filesystem failure with its operation and path.
func NewIoError(op, path string, cause error) error {
	return &IoError{Op: op, Path: path, Cause: cause}
}

// CommandError means an external process exited nonzero. It carries the
// original argument vector, the failing side's role, the exit code and a
// bounded prefix of the captured stderr.
type CommandError struct {
	Role     Role
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s command %q exited %d", e.Role, strings.Join(e.Argv, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// NewCommandError builds a CommandError, truncating stderr to
// StderrPrefixLimit bytes.
func NewCommandError(role Role, argv []string, exitCode int, stderr string) *CommandError {
	return &CommandError{
		Role:     role,
		Argv:     append([]string(nil), argv...),
		ExitCode: exitCode,
		Stderr:   TruncateStderr(stderr),
	}
}

// TruncateStderr trims captured stderr to the bounded prefix.
func TruncateStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > StderrPrefixLimit {
		return s[:StderrPrefixLimit]
	}
	return s
}

// AsCommandError unwraps err looking for a CommandError anywhere in the
// chain.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if cerr.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// MaintenanceModeError means the site's maintenance-mode toggle failed.
type MaintenanceModeError struct {
	Action   string // "activate" or "deactivate"
	Location string
	Cause    error
}

func (e *MaintenanceModeError) Error() string {
	return fmt.Sprintf("could not %s maintenance mode at %q: %v", e.Action, e.Location, e.Cause)
}

func (e *MaintenanceModeError) Unwrap() error { return e.Cause }
