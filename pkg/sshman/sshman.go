// pkg/sshman/sshman.go

// Package sshman multiplexes remote command execution through one persistent
// SSH control connection per (user, host, port). Commands are not executed
// here; managers only build argument vectors that a runner executes as plain
// local processes.
package sshman

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/syntax"
)

// DefaultPort is assumed when an address carries no explicit port.
const DefaultPort = 22

type key struct {
	user string
	host string
	port int
}

// Registry hands out one Manager per distinct (user, host, port) triple.
// Construct one at program start and pass it down; entries live until
// Shutdown. Insertion-only, so a consistent view is cheap to guarantee.
type Registry struct {
	mu          sync.Mutex
	managers    map[key]*Manager
	controlBase string
}

// NewRegistry builds an empty registry. Control sockets are placed in the
// system temp dir under a per-run unique prefix.
func NewRegistry() *Registry {
	return &Registry{
		managers:    make(map[key]*Manager),
		controlBase: filepath.Join(os.TempDir(), "wpsnap-"+uuid.New().String()[:8]),
	}
}

// Instance returns the memoized manager for the triple, creating one if
// absent. A port of 0 means DefaultPort.
func (r *Registry) Instance(user, host string, port int) *Manager {
	if port == 0 {
		port = DefaultPort
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{user: user, host: host, port: port}
	if m, ok := r.managers[k]; ok {
		return m
	}
	m := &Manager{
		User:        user,
		Host:        host,
		Port:        port,
		controlPath: fmt.Sprintf("%s-%%C", r.controlBase),
	}
	r.managers[k] = m
	return m
}

// Shutdown closes every control connection. Best effort: a socket that was
// never established or already died makes ssh -O exit complain, which is
// fine at process end.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.managers {
		cmd := exec.Command("ssh", "-O", "exit", "-o", "ControlPath="+m.controlPath, m.Target())
		cmd.Stdout = nil
		cmd.Stderr = nil
		_ = cmd.Run()
	}
}

// Manager wraps command vectors for execution on one remote endpoint,
// reusing a single SSH control channel across calls.
type Manager struct {
	User string
	Host string
	Port int

	controlPath string
}

// Target returns the user@host argument given to ssh.
func (m *Manager) Target() string {
	return m.User + "@" + m.Host
}

// WrapCommand returns a new vector that, executed locally, runs argv on the
// remote host. Each argument is shell-quoted so it arrives at the remote
// process with its boundaries intact; ssh itself joins arguments with
// spaces and hands them to the remote shell.
func (m *Manager) WrapCommand(argv []string) []string {
	wrapped := []string{
		"ssh",
		"-o", "ControlMaster=auto",
		"-o", "ControlPath=" + m.controlPath,
		"-o", "ControlPersist=10m",
		"-o", "BatchMode=yes",
	}
	if m.Port != DefaultPort {
		wrapped = append(wrapped, "-p", fmt.Sprintf("%d", m.Port))
	}
	wrapped = append(wrapped, m.Target(), "--")
	for _, arg := range argv {
		wrapped = append(wrapped, quote(arg))
	}
	return wrapped
}

// quote renders one argument for a POSIX remote shell.
func quote(arg string) string {
	q, err := syntax.Quote(arg, syntax.LangPOSIX)
	if err != nil {
		// Invalid UTF-8 cannot be quoted portably; single quotes cover
		// everything except the quote character itself.
		return "'" + replaceSingleQuotes(arg) + "'"
	}
	return q
}

func replaceSingleQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\\', '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
