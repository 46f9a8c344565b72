// cmd/snapshot.go

package cmd

import (
	"strings"

	"github.com/morselabs/wpsnap/pkg/archive"
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/snap_cli"
	"github.com/morselabs/wpsnap/pkg/snap_io"
	"github.com/morselabs/wpsnap/pkg/snapshot"
	"github.com/morselabs/wpsnap/pkg/sshman"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var (
	snapshotBaseName        string
	snapshotTemplate        string
	snapshotCompression     string
	snapshotDBHost          string
	snapshotMaintenanceMode bool
	snapshotExcludes        []string
	snapshotExcludeTags     []string
	snapshotSSHPort         int
	snapshotPromptPassword  bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <source> <backup-dir>",
	Short: "Take a snapshot of a WordPress site",
	Long: `Take a snapshot of a WordPress website and store it at a local or remote
location as a single compressed archive containing the file tree, a database
dump and a settings sidecar.

Examples:
  wpsnap snapshot /var/www/site /var/backups
  wpsnap snapshot deploy@web1.example.com:/var/www/site /var/backups \
      --maintenance-mode --exclude wp-content/cache --compression-mode xz`,

	Args: cobra.ExactArgs(2),
	RunE: snap_cli.Wrap(func(rc *snap_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		logger := otelzap.Ctx(rc.Ctx)

		compressionMode := snapshotCompression
		if compressionMode == "" {
			compressionMode = viper.GetString("compression_mode")
		}
		compression, err := location.ParseCompression(compressionMode)
		if err != nil {
			return err
		}
		template := retargetTemplate(snapshotTemplate, compression)

		registry := sshman.NewRegistry()
		defer registry.Shutdown()

		runner := command.NewRunner()
		locOpts := location.Options{
			Exec:        runner,
			Registry:    registry,
			SSHPort:     snapshotSSHPort,
			Compression: compression,
		}

		source, err := location.Parse(args[0], locOpts)
		if err != nil {
			return err
		}
		backupDir, err := location.Parse(args[1], locOpts)
		if err != nil {
			return err
		}

		excludes := append(viper.GetStringSlice("exclude"), snapshotExcludes...)

		opts := snapshot.Options{
			Source:           source,
			BackupDir:        backupDir,
			BaseName:         snapshotBaseName,
			FileNameTemplate: template,
			DBHost:           snapshotDBHost,
			MaintenanceMode:  snapshotMaintenanceMode,
			Excludes:         excludes,
			ExcludeTags:      snapshotExcludeTags,
			PromptDBPassword: snapshotPromptPassword,
			ArgsEcho: map[string]any{
				"source":             source.String(),
				"backup_dir":         backupDir.String(),
				"snapshot_base_name": snapshotBaseName,
				"file_name_template": template,
				"compression_mode":   string(compression),
				"db_host":            snapshotDBHost,
				"maintenance_mode":   snapshotMaintenanceMode,
				"exclude":            excludes,
				"exclude_tag_all":    snapshotExcludeTags,
			},
		}

		target, err := snapshot.New(runner).Run(rc, opts)
		if err != nil {
			return err
		}
		logger.Info("Snapshot complete", zap.String("archive", target.String()))
		return nil
	}),
}

func init() {
	f := snapshotCmd.Flags()
	f.StringVarP(&snapshotBaseName, "snapshot-base-name", "n", "",
		"Base name for the snapshot file (defaults to the DB name)")
	f.StringVarP(&snapshotTemplate, "file-name-template", "t", archive.DefaultTemplate,
		"Template for the snapshot file name ({base} and {time} placeholders)")
	f.StringVarP(&snapshotCompression, "compression-mode", "c", "",
		"Compression mode for the archive: gzip, bzip2, lzip or xz")
	f.StringVar(&snapshotDBHost, "db-host", "",
		"Override the database host found in wp-config.php")
	f.BoolVar(&snapshotMaintenanceMode, "maintenance-mode", false,
		"Activate maintenance mode while copying files")
	f.StringArrayVar(&snapshotExcludes, "exclude", nil,
		"Exclude source files/directories matching PATTERN (repeatable)")
	f.StringArrayVar(&snapshotExcludeTags, "exclude-tag-all", nil,
		"Exclude directories containing the named marker FILE (repeatable)")
	f.IntVar(&snapshotSSHPort, "ssh-port", 0,
		"SSH port for remote addresses (default 22)")
	f.BoolVar(&snapshotPromptPassword, "prompt-db-password", false,
		"Prompt for the database password instead of using wp-config.php")
}

// retargetTemplate adjusts the default template's extension to the selected
// compression mode. A template without a .gz suffix is left alone.
func retargetTemplate(template string, c location.Compression) string {
	if c == location.CompressionGzip {
		return template
	}
	ext := strings.TrimPrefix(c.Extension(), ".tar")
	return strings.Replace(template, ".gz", ext, 1)
}
