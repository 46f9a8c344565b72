// pkg/archive/builder.go

// Package archive folds a local staging directory into a single compressed
// archive file at a destination Location.
package archive

import (
	"context"
	"strings"
	"time"

	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultTemplate is the archive file-name template when none is given.
const DefaultTemplate = "{base}_{time}.tar.gz"

// RenderTimestamp renders t for the {time} placeholder and the settings
// sidecar: second-resolution UTC with a single trailing "Z". The render
// itself carries no offset marker, so the suffix never doubles.
func RenderTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

// Request describes one archive build. The timestamp is rendered when the
// request is built, at operation start, not when the archive is written.
type Request struct {
	StagingDir string
	Dest       location.Location
	Template   string
	BaseName   string
	Timestamp  string
}

// NewRequest builds a Request, rendering now for the {time} placeholder.
func NewRequest(stagingDir string, dest location.Location, template, baseName string, now time.Time) Request {
	if template == "" {
		template = DefaultTemplate
	}
	return Request{
		StagingDir: stagingDir,
		Dest:       dest,
		Template:   template,
		BaseName:   baseName,
		Timestamp:  RenderTimestamp(now),
	}
}

// FileName resolves the {base} and {time} placeholders.
func (r Request) FileName() string {
	name := strings.ReplaceAll(r.Template, "{base}", r.BaseName)
	return strings.ReplaceAll(name, "{time}", r.Timestamp)
}

// Build writes the archive and returns its final Location so the caller can
// record it.
func Build(ctx context.Context, req Request) (location.Location, error) {
	logger := otelzap.Ctx(ctx)

	if err := req.Dest.EnsureDirExists(ctx); err != nil {
		return nil, err
	}

	target := req.Dest.Child(req.FileName())
	logger.Info("Writing archive",
		zap.String("archive", target.String()),
		zap.String("staging_dir", req.StagingDir))

	if err := target.ArchiveLocalDir(ctx, req.StagingDir); err != nil {
		return nil, err
	}
	return target, nil
}
