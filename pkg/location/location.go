// pkg/location/location.go

// Package location models an addressable endpoint, either a local path or a
// user@host:path reachable over SSH, with uniform operations over both.
// Callers never branch on the concrete kind; capability methods carry the
// difference.
package location

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/sshman"
)

var sshAddressRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)@((?:[a-zA-Z0-9-]+\.)*(?:[a-zA-Z0-9-]+)):(.*)$`)

// Location is an addressable endpoint with uniform operations regardless of
// whether it is local or remote. It implements command.Target so runners
// can execute commands "at" it without inspecting its kind.
type Location interface {
	command.Target

	// Path returns the filesystem path on the endpoint.
	Path() string
	// Child returns a new Location one path segment below this one,
	// preserving endpoint and compression settings.
	Child(name string) Location
	// RsyncAddress renders the endpoint for rsync. With contents=true a
	// trailing slash is ensured so rsync transfers the directory's
	// contents rather than the directory itself.
	RsyncAddress(contents bool) string

	Compression() Compression
	SetCompression(c Compression)

	// EnsureDirExists creates the directory and all missing parents.
	// Idempotent.
	EnsureDirExists(ctx context.Context) error
	// DeleteDirContent removes every entry inside the directory, keeping
	// the directory itself. Idempotent on an empty directory.
	DeleteDirContent(ctx context.Context) error
	// ReadFile returns the file's entire content.
	ReadFile(ctx context.Context) (string, error)
	// Chown changes ownership of the tree rooted here.
	Chown(ctx context.Context, owner string) error
	// ArchiveLocalDir folds the contents of a local staging directory
	// into a single compressed archive at this Location.
	ArchiveLocalDir(ctx context.Context, stagingDir string) error
	// ExtractArchiveTo unpacks the archive at this Location into a local
	// directory.
	ExtractArchiveTo(ctx context.Context, dir string) error
}

// Options carries the collaborators a Location needs to operate. One value
// is built in the command layer and shared across all Parse calls of a run.
type Options struct {
	Exec        command.Executor
	Registry    *sshman.Registry
	SSHPort     int
	Compression Compression
}

func (o Options) compression() Compression {
	if o.Compression == "" {
		return CompressionGzip
	}
	return o.Compression
}

// Parse turns `path` into a local Location and `user@host:path` into a
// remote one. The port is not expressible in the address; it comes from
// Options.
func Parse(address string, opts Options) (Location, error) {
	if address == "" {
		return nil, snap_err.NewMalformedAddress(address, "empty address")
	}

	m := sshAddressRe.FindStringSubmatch(address)
	if m == nil {
		return NewLocal(address, opts), nil
	}
	if m[3] == "" {
		return nil, snap_err.NewMalformedAddress(address, "remote address has no path")
	}
	return NewRemote(m[1], m[2], m[3], opts), nil
}

// NewLocal builds a local Location.
func NewLocal(p string, opts Options) *Local {
	return &Local{path: p, comp: opts.compression(), exec: opts.Exec}
}

// NewRemote builds a remote Location, registering its SSH manager.
func NewRemote(user, host, p string, opts Options) *Remote {
	return &Remote{
		user: user,
		host: host,
		port: opts.SSHPort,
		path: p,
		comp: opts.compression(),
		mgr:  opts.Registry.Instance(user, host, opts.SSHPort),
		exec: opts.Exec,
	}
}

func rsyncAddress(rendered string, contents bool) string {
	if contents {
		if !strings.HasSuffix(rendered, "/") {
			return rendered + "/"
		}
		return rendered
	}
	return strings.TrimSuffix(rendered, "/")
}

func childPath(parent, name string) string {
	return path.Join(parent, name)
}
