package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/sshman"
	"github.com/morselabs/wpsnap/pkg/wpconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExec captures argument vectors and stdin payloads; RunToWriter
// plays back a scripted dump.
type recordingExec struct {
	argvs  [][]string
	stdins []string
	dump   string
}

func (f *recordingExec) Run(ctx context.Context, t command.Target, argv []string) (*command.Result, error) {
	f.argvs = append(f.argvs, argv)
	return &command.Result{Argv: argv}, nil
}

func (f *recordingExec) RunWithInput(ctx context.Context, t command.Target, argv []string, stdin io.Reader) (*command.Result, error) {
	data, _ := io.ReadAll(stdin)
	f.stdins = append(f.stdins, string(data))
	return f.Run(ctx, t, argv)
}

func (f *recordingExec) RunToWriter(ctx context.Context, t command.Target, argv []string, stdout io.Writer) (*command.Result, error) {
	_, _ = stdout.Write([]byte(f.dump))
	return f.Run(ctx, t, argv)
}

func (f *recordingExec) RunPiped(ctx context.Context, p command.Target, pa []string, c command.Target, ca []string) error {
	return nil
}

func testConfig() wpconfig.Config {
	return wpconfig.Config{
		"db_name":     "wp_demo",
		"db_user":     "wp",
		"db_password": "hunter2",
		"db_host":     "127.0.0.1",
	}
}

func site(t *testing.T, exec command.Executor) location.Location {
	t.Helper()
	return location.NewLocal(t.TempDir(), location.Options{Exec: exec, Registry: sshman.NewRegistry()})
}

func TestFromConfig(t *testing.T) {
	exec := &recordingExec{}

	db, err := FromConfig(testConfig(), site(t, exec), exec, "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", db.Host)
	assert.Equal(t, "wp_demo", db.Name)

	db, err = FromConfig(testConfig(), site(t, exec), exec, "db1.internal")
	require.NoError(t, err)
	assert.Equal(t, "db1.internal", db.Host, "the override wins over wp-config")

	cfg := testConfig()
	delete(cfg, "db_host")
	db, err = FromConfig(cfg, site(t, exec), exec, "")
	require.NoError(t, err)
	assert.Equal(t, "localhost", db.Host)

	cfg = testConfig()
	delete(cfg, "db_name")
	_, err = FromConfig(cfg, site(t, exec), exec, "")
	assert.Error(t, err)
}

func TestDumpToFile(t *testing.T) {
	exec := &recordingExec{dump: "-- sql dump\n"}
	db, err := FromConfig(testConfig(), site(t, exec), exec, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dump.sql")
	require.NoError(t, db.DumpToFile(context.Background(), path))

	require.Len(t, exec.argvs, 1)
	assert.Equal(t,
		[]string{"mysqldump", "--hex-blob", "-u", "wp", "-phunter2", "-h", "127.0.0.1", "wp_demo"},
		exec.argvs[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-- sql dump\n", string(data))
}

func TestRestoreDumpUsesClientArgs(t *testing.T) {
	exec := &recordingExec{}
	db, err := FromConfig(testConfig(), site(t, exec), exec, "")
	require.NoError(t, err)

	require.NoError(t, db.RestoreDump(context.Background(), strings.NewReader("-- restore me")))
	require.Len(t, exec.argvs, 1)
	assert.Equal(t,
		[]string{"mysql", "-u", "wp", "-phunter2", "-h", "127.0.0.1", "wp_demo"},
		exec.argvs[0])
	assert.Equal(t, "-- restore me", exec.stdins[0])
}

func TestRunQuery(t *testing.T) {
	exec := &recordingExec{}
	db, err := FromConfig(testConfig(), site(t, exec), exec, "")
	require.NoError(t, err)

	require.NoError(t, db.RunQuery(context.Background(), "SELECT 1"))
	assert.Equal(t, "SELECT 1", exec.stdins[0])
}

func TestSetPasswordReplacesClientCredential(t *testing.T) {
	exec := &recordingExec{}
	db, err := FromConfig(testConfig(), site(t, exec), exec, "")
	require.NoError(t, err)

	db.SetPassword("prompted")
	require.NoError(t, db.RunQuery(context.Background(), "SELECT 1"))
	assert.Contains(t, exec.argvs[0], "-pprompted")
}
