package snap_err

import (
	"strings"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateStderr(t *testing.T) {
	assert.Equal(t, "short", TruncateStderr("  short \n"))

	long := strings.Repeat("x", StderrPrefixLimit*3)
	got := TruncateStderr(long)
	assert.Len(t, got, StderrPrefixLimit)
}

func TestCommandErrorMessage(t *testing.T) {
	err := NewCommandError(RoleConsumer, []string{"tar", "-x"}, 2, "unexpected EOF")
	msg := err.Error()
	assert.Contains(t, msg, "consumer")
	assert.Contains(t, msg, "tar -x")
	assert.Contains(t, msg, "exited 2")
	assert.Contains(t, msg, "unexpected EOF")
}

func TestCommandErrorCopiesArgv(t *testing.T) {
	argv := []string{"rsync", "-rz"}
	err := NewCommandError(RoleSingle, argv, 1, "")
	argv[0] = "mutated"
	assert.Equal(t, "rsync", err.Argv[0])
}

func TestAsCommandErrorThroughWrapping(t *testing.T) {
	inner := NewCommandError(RoleProducer, []string{"tar", "-c"}, 1, "boom")
	wrapped := cerr.Wrap(inner, "streaming files")

	ce, ok := AsCommandError(wrapped)
	require.True(t, ok)
	assert.Equal(t, RoleProducer, ce.Role)

	_, ok = AsCommandError(cerr.New("unrelated"))
	assert.False(t, ok)
}

func TestIoErrorUnwraps(t *testing.T) {
	cause := cerr.New("disk full")
	err := NewIoError("writing archive", "/backups/x.tar.gz", cause)
	assert.Contains(t, err.Error(), "/backups/x.tar.gz")
	assert.ErrorIs(t, err, cause)
}

func TestMalformedAddress(t *testing.T) {
	err := NewMalformedAddress("u@:", "remote address has no path")
	var ma *MalformedAddressError
	require.ErrorAs(t, err, &ma)
	assert.Equal(t, "u@:", ma.Address)
}
