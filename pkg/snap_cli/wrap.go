// pkg/snap_cli/wrap.go

package snap_cli

import (
	"context"

	"github.com/morselabs/wpsnap/pkg/snap_io"
	"github.com/spf13/cobra"
)

// Wrap adapts a RuntimeContext-aware handler to a cobra RunE, adding panic
// recovery and command lifecycle logging.
func Wrap(fn func(rc *snap_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		rc := snap_io.NewContext(context.Background(), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		return fn(rc, cmd, args)
	}
}
