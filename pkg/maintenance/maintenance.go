// pkg/maintenance/maintenance.go

// Package maintenance toggles a WordPress site's maintenance mode around a
// transfer, guaranteeing deactivation once activation has succeeded.
package maintenance

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Controller issues maintenance-mode toggles through the site's own CLI.
type Controller struct {
	exec command.Executor
}

// NewController builds a Controller.
func NewController(exec command.Executor) *Controller {
	return &Controller{exec: exec}
}

// Activate turns maintenance mode on at the site rooted at loc.
func (c *Controller) Activate(ctx context.Context, loc location.Location) error {
	return c.toggle(ctx, loc, "activate")
}

// Deactivate turns maintenance mode off at the site rooted at loc.
func (c *Controller) Deactivate(ctx context.Context, loc location.Location) error {
	return c.toggle(ctx, loc, "deactivate")
}

func (c *Controller) toggle(ctx context.Context, loc location.Location, action string) error {
	argv := []string{"wp", "maintenance-mode", action, "--path=" + loc.Path(), "--quiet"}
	if _, err := c.exec.Run(ctx, loc, argv); err != nil {
		return &snap_err.MaintenanceModeError{Action: action, Location: loc.String(), Cause: err}
	}
	return nil
}

// Bracket runs fn between activate and deactivate. Once activation has
// succeeded, deactivation runs exactly once no matter how fn ends,
// including a panic. If activation fails, fn never runs and no deactivation
// is attempted. A deactivation failure never masks fn's own error; both are
// reported, fn's first.
func (c *Controller) Bracket(ctx context.Context, loc location.Location, fn func(ctx context.Context) error) (err error) {
	logger := otelzap.Ctx(ctx)

	logger.Info("Activating maintenance mode", zap.String("site", loc.String()))
	if aerr := c.Activate(ctx, loc); aerr != nil {
		return aerr
	}

	defer func() {
		logger.Info("Deactivating maintenance mode", zap.String("site", loc.String()))
		derr := c.Deactivate(ctx, loc)
		if derr == nil {
			return
		}
		if err != nil {
			err = multierror.Append(err, derr)
			return
		}
		err = derr
	}()

	return fn(ctx)
}
