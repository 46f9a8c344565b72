// pkg/restore/restore.go

// Package restore replays a snapshot archive against its original (or a
// patched) target: extract, mirror the file tree back, run the optional
// git/chown post-steps, reload the database.
package restore

import (
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/database"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/settings"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/snap_io"
	"github.com/morselabs/wpsnap/pkg/snapshot"
	"github.com/morselabs/wpsnap/pkg/transfer"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Options describes one restore run.
type Options struct {
	Snapshot  location.Location
	PatchPath string

	// LocationOpts parameterizes locations parsed out of the sidecar.
	LocationOpts location.Options
}

// Pipeline wires the collaborators of a restore run.
type Pipeline struct {
	exec   command.Executor
	engine *transfer.Engine
}

// New builds a Pipeline on the given executor.
func New(exec command.Executor) *Pipeline {
	return &Pipeline{exec: exec, engine: transfer.NewEngine(exec)}
}

// Run executes the restore.
func (p *Pipeline) Run(rc *snap_io.RuntimeContext, opts Options) error {
	ctx := rc.Ctx
	logger := otelzap.Ctx(ctx)

	workDir, err := os.MkdirTemp("", "wpsnap-restore-*")
	if err != nil {
		return snap_err.NewIoError("creating work directory", os.TempDir(), err)
	}
	defer os.RemoveAll(workDir)

	logger.Info("Extracting archive", zap.String("snapshot", opts.Snapshot.String()))
	if err := opts.Snapshot.ExtractArchiveTo(ctx, workDir); err != nil {
		return err
	}

	logger.Info("Reading configuration")
	sidecar, err := settings.Read(filepath.Join(workDir, settings.FileName))
	if err != nil {
		return err
	}
	sidecar, err = settings.ApplyPatch(sidecar, opts.PatchPath)
	if err != nil {
		return err
	}

	sourceAddr, err := sidecar.Source()
	if err != nil {
		return err
	}
	target, err := location.Parse(sourceAddr, opts.LocationOpts)
	if err != nil {
		return err
	}

	logger.Info("Restoring files", zap.String("target", target.String()))
	files := location.NewLocal(filepath.Join(workDir, snapshot.FilesSubdir), opts.LocationOpts)
	if err := p.engine.Copy(ctx, transfer.Spec{Source: files, Dest: target, Delete: true}); err != nil {
		return err
	}

	for _, repo := range sidecar.Git {
		logger.Info("Cloning repository",
			zap.String("repo", repo.Repo),
			zap.String("location", repo.Location))
		if err := p.cloneRepo(ctx, target.Child(repo.Location), repo); err != nil {
			return err
		}
	}

	if sidecar.Owner != "" {
		logger.Info("Changing files owner", zap.String("owner", sidecar.Owner))
		if err := target.Chown(ctx, sidecar.Owner); err != nil {
			return err
		}
	}

	logger.Info("Restoring database")
	db, err := database.FromConfig(sidecar.WPConfig, target, p.exec, "")
	if err != nil {
		return err
	}
	if err := db.RestoreDumpFile(ctx, filepath.Join(workDir, snapshot.DumpFileName)); err != nil {
		return err
	}

	for _, query := range sidecar.SetupQueries {
		if err := db.RunQuery(ctx, query); err != nil {
			return cerr.Wrap(err, "running setup query")
		}
	}
	return nil
}
