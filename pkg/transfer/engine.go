// pkg/transfer/engine.go

// Package transfer materializes one directory tree at another endpoint. Two
// strategies: rsync mirroring, and a tar producer/consumer pipe used when
// tag-based exclusion is required or rsync is missing at an endpoint.
package transfer

import (
	"context"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// fixedExcludes are always excluded: version-control directories and editor
// droppings have no business inside a site snapshot.
var fixedExcludes = []string{".git", ".idea", "*.swp", "*.un~"}

// Spec describes one transfer. Built per call, not retained.
type Spec struct {
	Source location.Location
	Dest   location.Location
	// Excludes are glob-style path patterns skipped at the source.
	Excludes []string
	// ExcludeTags name marker files; a directory containing one is
	// skipped wholesale. Only tar can express this, so any tag forces
	// the tar strategy.
	ExcludeTags []string
	// Delete requests mirroring semantics: destination-only entries are
	// removed so the destination matches the source exactly.
	Delete bool
}

// Engine runs transfers through an injected executor.
type Engine struct {
	exec command.Executor
}

// NewEngine builds an Engine.
func NewEngine(exec command.Executor) *Engine {
	return &Engine{exec: exec}
}

// Copy materializes the source tree at the destination. The destination is
// created first so an unreachable endpoint fails before any data movement.
func (e *Engine) Copy(ctx context.Context, spec Spec) error {
	logger := otelzap.Ctx(ctx)

	if err := spec.Dest.EnsureDirExists(ctx); err != nil {
		return err
	}

	if len(spec.ExcludeTags) > 0 {
		return e.tarStream(ctx, spec)
	}

	err := e.rsync(ctx, spec)
	if err == nil {
		return nil
	}

	if ce, ok := snap_err.AsCommandError(err); ok && rsyncUnavailable(ce.Stderr) {
		logger.Warn("rsync unavailable, falling back to tar stream",
			zap.String("source", spec.Source.String()),
			zap.String("dest", spec.Dest.String()))
		return e.tarStream(ctx, spec)
	}
	return err
}

// rsync mirrors the source's contents into the destination. rsync runs on
// the orchestrating host and reaches remote endpoints on its own.
func (e *Engine) rsync(ctx context.Context, spec Spec) error {
	argv := []string{"rsync", "-rz"}
	for _, ex := range fixedExcludes {
		argv = append(argv, "--exclude="+ex)
	}
	for _, ex := range spec.Excludes {
		argv = append(argv, "--exclude="+ex)
	}
	if spec.Delete {
		argv = append(argv, "--delete")
	}
	argv = append(argv, spec.Source.RsyncAddress(true), spec.Dest.RsyncAddress(true))

	_, err := e.exec.Run(ctx, command.Local{}, argv)
	return err
}

// tarStream pipes a tar creation at the source into a tar extraction at the
// destination. Extraction has no mirror mode, so delete semantics clear the
// destination before the pipe starts, never after.
func (e *Engine) tarStream(ctx context.Context, spec Spec) error {
	// Copy already ensured the destination directory exists, and
	// DeleteDirContent empties it without removing the directory itself.
	if spec.Delete {
		if err := spec.Dest.DeleteDirContent(ctx); err != nil {
			return err
		}
	}

	producer := []string{"tar", "-C", spec.Source.Path()}
	for _, ex := range fixedExcludes {
		producer = append(producer, "--exclude", ex)
	}
	for _, ex := range spec.Excludes {
		producer = append(producer, "--exclude", ex)
	}
	for _, tag := range spec.ExcludeTags {
		producer = append(producer, "--exclude-tag-all", tag)
	}
	producer = append(producer, "-c", ".")

	consumer := []string{"tar", "-C", spec.Dest.Path(), "-x"}

	if err := e.exec.RunPiped(ctx, spec.Source, producer, spec.Dest, consumer); err != nil {
		return cerr.Wrapf(err, "streaming %s to %s", spec.Source, spec.Dest)
	}
	return nil
}

// rsyncUnavailable reports whether captured stderr indicates the rsync
// binary itself is missing at an endpoint. A substring heuristic: the shell
// reports a missing binary only as free text. Isolated here so the check
// can be swapped without touching call sites.
func rsyncUnavailable(stderr string) bool {
	return strings.Contains(stderr, "command not found") ||
		strings.Contains(stderr, "executable file not found")
}
