package transfer

import (
	"context"
	"os"
	osexec "os/exec"
	"path/filepath"
	"testing"

	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/sshman"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end tar-stream copy against the real tar binary: version-control
// dirs and tag-marked subtrees must not reach the destination.
func TestCopyTarStreamEndToEnd(t *testing.T) {
	if _, err := osexec.LookPath("tar"); err != nil {
		t.Skip("tar not installed")
	}

	runner := command.NewRunner()
	opts := location.Options{Exec: runner, Registry: sshman.NewRegistry()}

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("keep"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, ".git", "ignored"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "cache", ".exclude_tag"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "cache", "blob"), []byte("x"), 0o600))

	// .git is not passed explicitly: the fixed exclusions must cover it
	dstDir := filepath.Join(t.TempDir(), "dest")
	spec := Spec{
		Source:      location.NewLocal(srcDir, opts),
		Dest:        location.NewLocal(dstDir, opts),
		ExcludeTags: []string{".exclude_tag"},
	}
	require.NoError(t, NewEngine(runner).Copy(context.Background(), spec))

	data, err := os.ReadFile(filepath.Join(dstDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	_, err = os.Stat(filepath.Join(dstDir, ".git"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dstDir, "cache"))
	assert.True(t, os.IsNotExist(err))
}

// An empty source still copies successfully, yielding an empty destination.
func TestCopyEmptySource(t *testing.T) {
	if _, err := osexec.LookPath("tar"); err != nil {
		t.Skip("tar not installed")
	}

	runner := command.NewRunner()
	opts := location.Options{Exec: runner, Registry: sshman.NewRegistry()}

	dstDir := filepath.Join(t.TempDir(), "dest")
	spec := Spec{
		Source:      location.NewLocal(t.TempDir(), opts),
		Dest:        location.NewLocal(dstDir, opts),
		ExcludeTags: []string{".exclude_tag"},
	}
	require.NoError(t, NewEngine(runner).Copy(context.Background(), spec))

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
