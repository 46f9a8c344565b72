// pkg/location/local.go

package location

import (
	"context"
	"os"
	"path/filepath"

	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/snap_err"
)

// Local is a path on the filesystem of the orchestrating host. Filesystem
// operations are done in-process; archive steps shell out to tar.
type Local struct {
	path string
	comp Compression
	exec command.Executor
}

var _ Location = (*Local)(nil)

func (l *Local) Path() string   { return l.path }
func (l *Local) String() string { return l.path }

func (l *Local) WrapCommand(argv []string) []string { return argv }

func (l *Local) Child(name string) Location {
	return &Local{path: childPath(l.path, name), comp: l.comp, exec: l.exec}
}

func (l *Local) RsyncAddress(contents bool) string {
	return rsyncAddress(l.path, contents)
}

func (l *Local) Compression() Compression     { return l.comp }
func (l *Local) SetCompression(c Compression) { l.comp = c }

func (l *Local) EnsureDirExists(ctx context.Context) error {
	if err := os.MkdirAll(l.path, 0o755); err != nil {
		return snap_err.NewIoError("creating directory", l.path, err)
	}
	return nil
}

func (l *Local) DeleteDirContent(ctx context.Context) error {
	entries, err := os.ReadDir(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return snap_err.NewIoError("reading directory", l.path, err)
	}
	for _, entry := range entries {
		p := filepath.Join(l.path, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			return snap_err.NewIoError("removing", p, err)
		}
	}
	return nil
}

func (l *Local) ReadFile(ctx context.Context) (string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", snap_err.NewIoError("reading file", l.path, err)
	}
	return string(data), nil
}

func (l *Local) Chown(ctx context.Context, owner string) error {
	_, err := l.exec.Run(ctx, l, []string{"chown", "-R", owner, l.path})
	return err
}

func (l *Local) ArchiveLocalDir(ctx context.Context, stagingDir string) error {
	argv := []string{"tar", "-C", stagingDir, "-c", l.comp.tarFlag(), "-f", l.path, "."}
	if _, err := l.exec.Run(ctx, command.Local{}, argv); err != nil {
		return snap_err.NewIoError("writing archive", l.path, err)
	}
	return nil
}

func (l *Local) ExtractArchiveTo(ctx context.Context, dir string) error {
	// tar detects the compression format on read.
	argv := []string{"tar", "-C", dir, "-x", "-f", l.path}
	if _, err := l.exec.Run(ctx, command.Local{}, argv); err != nil {
		return snap_err.NewIoError("extracting archive", l.path, err)
	}
	return nil
}
