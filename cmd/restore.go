// cmd/restore.go

package cmd

import (
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/restore"
	"github.com/morselabs/wpsnap/pkg/snap_cli"
	"github.com/morselabs/wpsnap/pkg/snap_io"
	"github.com/morselabs/wpsnap/pkg/sshman"
	"github.com/spf13/cobra"
)

var (
	restorePatchPath string
	restoreSSHPort   int
)

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot>",
	Short: "Restore a snapshot archive",
	Long: `Restore a snapshot onto the site it was taken from, or onto a different
target by patching the embedded settings.

Examples:
  wpsnap restore /var/backups/wp_demo_2024-01-02T03:04:05Z.tar.gz
  wpsnap restore deploy@web1.example.com:snap.tar.gz --patch staging.json`,

	Args: cobra.ExactArgs(1),
	RunE: snap_cli.Wrap(func(rc *snap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		registry := sshman.NewRegistry()
		defer registry.Shutdown()

		runner := command.NewRunner()
		locOpts := location.Options{
			Exec:     runner,
			Registry: registry,
			SSHPort:  restoreSSHPort,
		}

		snap, err := location.Parse(args[0], locOpts)
		if err != nil {
			return err
		}

		return restore.New(runner).Run(rc, restore.Options{
			Snapshot:     snap,
			PatchPath:    restorePatchPath,
			LocationOpts: locOpts,
		})
	}),
}

func init() {
	f := restoreCmd.Flags()
	f.StringVarP(&restorePatchPath, "patch", "p", "", "A settings patch file (JSON)")
	f.IntVar(&restoreSSHPort, "ssh-port", 0, "SSH port for remote addresses (default 22)")
}
