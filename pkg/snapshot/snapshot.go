// pkg/snapshot/snapshot.go

// Package snapshot orchestrates one backup run: recover credentials, stage
// the settings sidecar and database dump, copy the file tree, seal the
// staging directory into an archive at the destination. Steps run strictly
// in sequence and fail fast.
package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/morselabs/wpsnap/pkg/archive"
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/database"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/maintenance"
	"github.com/morselabs/wpsnap/pkg/settings"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/snap_io"
	"github.com/morselabs/wpsnap/pkg/transfer"
	"github.com/morselabs/wpsnap/pkg/wpconfig"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// FilesSubdir is the archive-internal directory holding the copied tree.
const FilesSubdir = "wordpress"

// DumpFileName is the database dump inside the archive root.
const DumpFileName = "dump.sql"

// Options describes one snapshot run.
type Options struct {
	Source           location.Location
	BackupDir        location.Location
	BaseName         string
	FileNameTemplate string
	DBHost           string
	MaintenanceMode  bool
	Excludes         []string
	ExcludeTags      []string
	PromptDBPassword bool

	// ArgsEcho is recorded verbatim in the settings sidecar.
	ArgsEcho map[string]any
}

// Pipeline wires the collaborators of a snapshot run.
type Pipeline struct {
	exec   command.Executor
	engine *transfer.Engine
	maint  *maintenance.Controller
}

// New builds a Pipeline on the given executor.
func New(exec command.Executor) *Pipeline {
	return &Pipeline{
		exec:   exec,
		engine: transfer.NewEngine(exec),
		maint:  maintenance.NewController(exec),
	}
}

// Run executes the snapshot and returns the archive's final Location.
func (p *Pipeline) Run(rc *snap_io.RuntimeContext, opts Options) (location.Location, error) {
	ctx := rc.Ctx
	logger := otelzap.Ctx(ctx)

	logger.Info("Parsing site configuration", zap.String("source", opts.Source.String()))
	cfg, err := wpconfig.Read(ctx, opts.Source)
	if err != nil {
		return nil, err
	}

	db, err := database.FromConfig(cfg, opts.Source, p.exec, opts.DBHost)
	if err != nil {
		return nil, err
	}
	if opts.PromptDBPassword || db.Password == "" {
		password, err := snap_io.PromptPassword(rc, "Database password: ")
		if err != nil {
			return nil, err
		}
		db.SetPassword(password)
	}

	staging, err := os.MkdirTemp("", "wpsnap-*")
	if err != nil {
		return nil, snap_err.NewIoError("creating staging directory", os.TempDir(), err)
	}
	defer os.RemoveAll(staging)

	logger.Info("Saving settings", zap.String("staging_dir", staging))
	sidecar := settings.Settings{
		RunID:    uuid.New().String(),
		Time:     archive.RenderTimestamp(rc.Timestamp),
		Args:     opts.ArgsEcho,
		WPConfig: cfg,
	}
	if err := settings.Write(filepath.Join(staging, settings.FileName), sidecar); err != nil {
		return nil, err
	}

	logger.Info("Dumping database", zap.String("db", db.Name))
	if err := db.DumpToFile(ctx, filepath.Join(staging, DumpFileName)); err != nil {
		return nil, err
	}

	logger.Info("Copying files", zap.String("source", opts.Source.String()))
	if err := p.copyFiles(ctx, opts, staging); err != nil {
		return nil, err
	}

	baseName := opts.BaseName
	if baseName == "" {
		baseName = cfg["db_name"]
	}
	req := archive.NewRequest(staging, opts.BackupDir, opts.FileNameTemplate, baseName, rc.Timestamp)
	target, err := archive.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Info("Wrote archive", zap.String("archive", target.String()))
	return target, nil
}

// copyFiles mirrors the site tree into the staging area, bracketed by
// maintenance mode when requested. The bracket covers only this step.
func (p *Pipeline) copyFiles(ctx context.Context, opts Options, staging string) error {
	dest := location.NewLocal(staging, location.Options{Exec: p.exec}).Child(FilesSubdir)
	spec := transfer.Spec{
		Source:      opts.Source,
		Dest:        dest,
		Excludes:    opts.Excludes,
		ExcludeTags: opts.ExcludeTags,
	}

	step := func(ctx context.Context) error {
		return p.engine.Copy(ctx, spec)
	}
	if opts.MaintenanceMode {
		return p.maint.Bracket(ctx, opts.Source, step)
	}
	return step(ctx)
}
