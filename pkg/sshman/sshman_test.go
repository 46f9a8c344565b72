package sshman

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryMemoizesPerTriple(t *testing.T) {
	r := NewRegistry()

	a := r.Instance("deploy", "web1", 22)
	b := r.Instance("deploy", "web1", 22)
	assert.Same(t, a, b)

	// port 0 collapses to the default
	c := r.Instance("deploy", "web1", 0)
	assert.Same(t, a, c)

	assert.NotSame(t, a, r.Instance("deploy", "web1", 2222))
	assert.NotSame(t, a, r.Instance("root", "web1", 22))
	assert.NotSame(t, a, r.Instance("deploy", "web2", 22))
}

func TestWrapCommand(t *testing.T) {
	r := NewRegistry()
	m := r.Instance("deploy", "web1.example.com", 22)

	wrapped := m.WrapCommand([]string{"mkdir", "-p", "/var/www/site"})

	require.Equal(t, "ssh", wrapped[0])
	assert.Contains(t, wrapped, "deploy@web1.example.com")
	assert.Contains(t, wrapped, "ControlMaster=auto")
	assert.Contains(t, wrapped, "BatchMode=yes")

	// the remote command follows the -- separator
	sep := -1
	for i, arg := range wrapped {
		if arg == "--" {
			sep = i
			break
		}
	}
	require.GreaterOrEqual(t, sep, 0)
	assert.Equal(t, []string{"mkdir", "-p", "/var/www/site"}, wrapped[sep+1:])
	assert.NotContains(t, wrapped[:sep], "-p", "default port adds no -p flag")
}

func TestWrapCommandNonDefaultPort(t *testing.T) {
	r := NewRegistry()
	m := r.Instance("deploy", "web1", 2222)

	wrapped := m.WrapCommand([]string{"true"})
	joined := strings.Join(wrapped, " ")
	assert.Contains(t, joined, "-p 2222")
}

func TestWrapCommandQuotesArguments(t *testing.T) {
	r := NewRegistry()
	m := r.Instance("deploy", "web1", 22)

	// exact quoting style is the library's business; what matters is that
	// anything the remote shell would reinterpret does not pass through raw
	for _, arg := range []string{"with space", "it's", "$HOME", "a;b", "*.swp"} {
		wrapped := m.WrapCommand([]string{arg})
		got := wrapped[len(wrapped)-1]
		assert.NotEqual(t, arg, got, "argument %q must be quoted", arg)
	}

	wrapped := m.WrapCommand([]string{"plain"})
	assert.Equal(t, "plain", wrapped[len(wrapped)-1])
}

func TestControlPathsDifferAcrossRegistries(t *testing.T) {
	a := NewRegistry().Instance("u", "h", 22)
	b := NewRegistry().Instance("u", "h", 22)
	assert.NotEqual(t, a.controlPath, b.controlPath)
}
