// pkg/location/remote.go

package location

import (
	"context"

	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/sshman"
)

// Remote is a path on a host reached over SSH. Every operation becomes a
// command wrapped through the endpoint's connection manager.
type Remote struct {
	user string
	host string
	port int
	path string
	comp Compression
	mgr  *sshman.Manager
	exec command.Executor
}

var _ Location = (*Remote)(nil)

func (r *Remote) Path() string { return r.path }

func (r *Remote) String() string {
	return r.user + "@" + r.host + ":" + r.path
}

func (r *Remote) WrapCommand(argv []string) []string {
	return r.mgr.WrapCommand(argv)
}

func (r *Remote) Child(name string) Location {
	child := *r
	child.path = childPath(r.path, name)
	return &child
}

func (r *Remote) RsyncAddress(contents bool) string {
	return rsyncAddress(r.String(), contents)
}

func (r *Remote) Compression() Compression     { return r.comp }
func (r *Remote) SetCompression(c Compression) { r.comp = c }

func (r *Remote) EnsureDirExists(ctx context.Context) error {
	if _, err := r.exec.Run(ctx, r, []string{"mkdir", "-p", r.path}); err != nil {
		return snap_err.NewIoError("creating remote directory", r.String(), err)
	}
	return nil
}

func (r *Remote) DeleteDirContent(ctx context.Context) error {
	// find instead of a shell glob: wrapped arguments are quoted, so a
	// glob would arrive at the remote shell literally and never expand.
	argv := []string{"find", r.path, "-mindepth", "1", "-delete"}
	if _, err := r.exec.Run(ctx, r, argv); err != nil {
		return snap_err.NewIoError("clearing remote directory", r.String(), err)
	}
	return nil
}

func (r *Remote) ReadFile(ctx context.Context) (string, error) {
	res, err := r.exec.Run(ctx, r, []string{"cat", r.path})
	if err != nil {
		return "", snap_err.NewIoError("reading remote file", r.String(), err)
	}
	return res.Stdout, nil
}

func (r *Remote) Chown(ctx context.Context, owner string) error {
	_, err := r.exec.Run(ctx, r, []string{"chown", "-R", owner, r.path})
	return err
}

// ArchiveLocalDir builds the archive locally and streams it to a remote dd
// writing at this path. Conceptually: build locally, then push.
func (r *Remote) ArchiveLocalDir(ctx context.Context, stagingDir string) error {
	producer := []string{"tar", "-C", stagingDir, "-c", r.comp.tarFlag(), "."}
	consumer := []string{"dd", "of=" + r.path}
	if err := r.exec.RunPiped(ctx, command.Local{}, producer, r, consumer); err != nil {
		return snap_err.NewIoError("writing remote archive", r.String(), err)
	}
	return nil
}

// ExtractArchiveTo streams the remote archive through cat into a local tar
// extraction.
func (r *Remote) ExtractArchiveTo(ctx context.Context, dir string) error {
	producer := []string{"cat", r.path}
	consumer := []string{"tar", "-C", dir, "-x"}
	if err := r.exec.RunPiped(ctx, r, producer, command.Local{}, consumer); err != nil {
		return snap_err.NewIoError("extracting remote archive", r.String(), err)
	}
	return nil
}
